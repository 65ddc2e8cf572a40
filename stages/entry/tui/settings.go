package entryui

import (
	"plumcave/tui/consts/pages"
	"plumcave/tui/stages/entry"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Settings shows the effective configuration. Edits go through the config
// file, the TUI only reads it.
type Settings struct {
	app     *tview.Application
	flex    *tview.Flex
	service *entry.Service
	updater *Updater

	configView *tview.TextView
	actions    *tview.Form
}

func newSettings(app *tview.Application, service *entry.Service, updater *Updater) *Settings {
	return &Settings{
		app:     app,
		flex:    tview.NewFlex().SetDirection(tview.FlexRow),
		service: service,
		updater: updater,
	}
}

func (s *Settings) buildSettings() {
	s.flex.Clear()
	s.addItems()
	s.setFlex()
}

func (s *Settings) addItems() {
	text, err := s.service.ConfigText()
	if err != nil {
		go s.updater.setError(err.Error(), 0)
	}
	s.configView = tview.NewTextView().
		SetText(text).
		SetScrollable(true).
		SetWrap(false)
	s.configView.SetBorder(true).SetTitle("Effective Config").SetTitleAlign(tview.AlignLeft)

	s.actions = tview.NewForm().
		AddButton("Back", func() { s.updater.switchPage(pages.Entry.MENU) }).
		AddButton("Forget Remembered Emails", func() {
			go func() {
				if err := s.service.ForgetEmails(); err != nil {
					s.updater.setError(err.Error(), 0)
					return
				}
				s.updater.setStatus("Remembered emails cleared.", 0)
			}()
		})
	s.actions.SetCancelFunc(func() { s.updater.switchPage(pages.Entry.MENU) })

	s.flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Modifiers() == tcell.ModAlt && (event.Rune() == 'B' || event.Rune() == 'b') {
			s.updater.switchPage(pages.Entry.MENU)
			return nil
		}
		if event.Key() == tcell.KeyTab {
			if s.configView.HasFocus() {
				s.app.SetFocus(s.actions)
			} else {
				s.app.SetFocus(s.configView)
			}
			return nil
		}
		return event
	})
}

func (s *Settings) setFlex() {
	s.flex.
		AddItem(s.configView, 0, 1, false).
		AddItem(s.actions, 3, 1, true)
}
