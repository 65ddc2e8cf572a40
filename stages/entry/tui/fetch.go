package entryui

import (
	"context"
	"fmt"

	"plumcave/tui/consts/pages"
	"plumcave/tui/stages/entry"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const labelTag = "Tag :"

type Fetch struct {
	app     *tview.Application
	flex    *tview.Flex
	service *entry.Service
	updater *Updater

	fetchForm *tview.Form
	cancel    context.CancelFunc
}

func newFetch(app *tview.Application, service *entry.Service, updater *Updater) *Fetch {
	return &Fetch{
		app:     app,
		flex:    tview.NewFlex().SetDirection(tview.FlexRow),
		service: service,
		updater: updater,
	}
}

func (s *Fetch) buildFetch() {
	s.flex.Clear()
	s.addItems()
	s.setFlex()
}

func (s *Fetch) addItems() {
	s.fetchForm = tview.NewForm().
		AddTextArea(labelTag, "", 0, 6, 0, nil).
		AddTextView("Note :", "The backup is restored into the current directory.", 0, 1, true, false).
		AddButton("Cancel", s.back).
		AddButton("Fetch", s.submit)
	s.fetchForm.SetBorder(true).SetTitle("Fetch by Tag").SetTitleAlign(tview.AlignLeft)
	s.fetchForm.SetCancelFunc(s.back)

	s.flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Modifiers() == tcell.ModAlt {
			switch event.Rune() {
			case 'F', 'f':
				s.submit()
				return nil
			case 'C', 'c':
				s.back()
				return nil
			}
		}
		return event
	})
}

func (s *Fetch) setFlex() {
	s.flex.AddItem(s.fetchForm, 0, 1, true)
}

// back also abandons a running fetch.
func (s *Fetch) back() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.updater.switchPage(pages.Entry.MENU)
}

func (s *Fetch) submit() {
	if s.cancel != nil {
		return
	}
	tag := s.fetchForm.GetFormItemByLabel(labelTag).(*tview.TextArea).GetText()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.fetch(ctx, cancel, tag)
}

func (s *Fetch) fetch(ctx context.Context, cancel context.CancelFunc, tag string) {
	defer cancel()

	progress := func(stage string, done float64) {
		s.updater.setStatus(fmt.Sprintf("Fetching: %s %d%%", stage, int(done*100)), -1)
	}
	path, err := s.service.FetchShared(ctx, tag, progress)

	s.app.QueueUpdateDraw(func() {
		s.cancel = nil
	})
	if err != nil {
		s.updater.setStatus("", 0)
		if ctx.Err() == nil {
			s.updater.setError(err.Error(), 0)
		}
		return
	}
	s.updater.setStatus(fmt.Sprintf("Saved: %s", path), 0)
}
