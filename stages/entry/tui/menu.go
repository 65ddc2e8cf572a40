package entryui

import (
	"plumcave/tui/consts/pages"

	"github.com/rivo/tview"
)

type menuEntry struct {
	label string
	hint  string
	key   rune
	page  string // empty quits
}

var menuEntries = []menuEntry{
	{"Log In", "Open your backups with email and password", '1', pages.Entry.LOGIN},
	{"Fetch by Tag", "Restore a backup someone shared with you", '2', pages.Entry.FETCH},
	{"Help", "Keys, tags and how sealing works", '3', pages.Entry.HELP},
	{"Settings", "Storage backend and effective configuration", '4', pages.Entry.SETTINGS},
	{"Quit", "Exit plumcave", 'q', ""},
}

type Menu struct {
	app     *tview.Application
	flex    *tview.Flex
	updater *Updater

	list *tview.List
}

func newMenu(app *tview.Application, updater *Updater) *Menu {
	return &Menu{
		app:     app,
		flex:    tview.NewFlex().SetDirection(tview.FlexRow),
		updater: updater,
	}
}

func (s *Menu) buildMenu() {
	s.list = tview.NewList()
	for _, e := range menuEntries {
		s.list.AddItem(e.label, e.hint, e.key, nil)
	}
	s.list.SetSelectedFunc(func(idx int, _, _ string, _ rune) {
		if page := menuEntries[idx].page; page != "" {
			s.updater.switchPage(page)
			return
		}
		s.app.Stop()
	})

	s.flex.Clear().
		AddItem(s.list, len(menuEntries)*2, 1, true)
}
