package interactionui

import (
	"context"
	"fmt"

	"plumcave/tui/backup"
	"plumcave/tui/consts/pages"
	"plumcave/tui/stages/interaction"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Inbox lists the tags other users sent to the session user.
type Inbox struct {
	app     *tview.Application
	updater *Updater
	service *interaction.Service
	flex    *tview.Flex

	table        *tview.Table
	confirmModal *tview.Modal

	received []*backup.Received
}

func newInbox(app *tview.Application, updater *Updater, service *interaction.Service) *Inbox {
	return &Inbox{
		app:     app,
		updater: updater,
		service: service,

		flex: tview.NewFlex().SetDirection(tview.FlexRow),
	}
}

func (s *Inbox) buildInbox() {
	s.flex.Clear()
	s.addItems()
	s.flex.AddItem(s.table, 0, 1, true)
}

func (s *Inbox) addItems() {
	s.table = tview.NewTable().SetSeparator(tview.Borders.Vertical)
	s.table.SetBorder(true).
		SetTitle("").
		SetTitleAlign(tview.AlignLeft)

	s.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Modifiers() != tcell.ModAlt {
			return event
		}
		switch event.Rune() {
		case 'B', 'b':
			s.updater.switchPage(pages.Interaction.BACKUPS)
		case 'R', 'r':
			go s.setReceivedList()
		case 'F', 'f':
			if r := s.selected(); r != nil && r.Readable {
				go s.fetch(r)
			}
		case 'X', 'x':
			if r := s.selected(); r != nil {
				s.confirm(fmt.Sprintf("Remove the tag from %s ?", r.Sender), func() {
					go s.delete(r)
				})
			}
		default:
			return event
		}
		return nil
	})

	go s.setReceivedList()
}

func (s *Inbox) selected() *backup.Received {
	r, _ := s.table.GetSelection()
	idx, ok := s.table.GetCell(r, 0).Reference.(int)
	if !ok || idx >= len(s.received) {
		return nil
	}
	return s.received[idx]
}

func (s *Inbox) setReceivedList() {
	received, err := s.service.ListReceived(context.Background())
	if err != nil {
		s.updater.setError(err.Error(), 0)
		received = nil
	}

	s.app.QueueUpdateDraw(func() {
		s.received = received
		s.table.Clear()
		for col, h := range []string{"Sr.No.", "From", "Owner", "Backup"} {
			cell := tview.NewTableCell(h).SetSelectable(false).SetAttributes(tcell.AttrBold)
			if col > 0 {
				cell.SetExpansion(1)
			}
			s.table.SetCell(0, col, cell)
		}

		for i, r := range s.received {
			owner, id := r.Owner, r.BackupID
			if !r.Readable {
				owner, id = "[indianred](unreadable)[-]", ""
			}
			s.table.SetCell(i+2, 0, tview.NewTableCell(fmt.Sprintf(" %d  ", i+1)).SetReference(i))
			s.table.SetCell(i+2, 1, tview.NewTableCell(fmt.Sprintf(" %s  ", r.Sender)).SetExpansion(1))
			s.table.SetCell(i+2, 2, tview.NewTableCell(fmt.Sprintf(" %s  ", owner)).SetExpansion(1))
			s.table.SetCell(i+2, 3, tview.NewTableCell(fmt.Sprintf(" %s  ", id)).SetExpansion(1))
		}

		s.table.SetFixed(2, 0)
		s.table.SetTitle(fmt.Sprintf("Inbox (%d)", len(s.received)))
		s.table.
			SetSelectable(true, false).
			SetSelectedStyle(tcell.StyleDefault.
				Background(tcell.ColorWhite).
				Foreground(tcell.ColorBlack)).
			Select(2, 0)
	})
}

func (s *Inbox) confirm(text string, yes func()) {
	s.confirmModal = tview.NewModal().
		SetText(text).
		AddButtons([]string{"Cancel", "Yes"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			s.flex.RemoveItem(s.confirmModal)
			s.flex.AddItem(s.table, 0, 1, true)
			s.app.SetFocus(s.table)
			if buttonIndex == 1 {
				yes()
			}
		})

	s.flex.RemoveItem(s.table)
	s.flex.AddItem(s.confirmModal, 0, 1, true)
	s.app.SetFocus(s.confirmModal)
}

func (s *Inbox) fetch(r *backup.Received) {
	progress := func(stage string, done float64) {
		s.updater.setStatus(fmt.Sprintf("%s: %s %d%%", r.BackupID, stage, int(done*100)), -1)
	}
	path, err := s.service.FetchReceived(context.Background(), r.Tag, progress)
	if err != nil {
		s.updater.setError(err.Error(), 0)
		s.updater.setStatus("", 0)
		return
	}
	s.updater.setStatus(fmt.Sprintf("Fetched: %s", path), 0)
}

func (s *Inbox) delete(r *backup.Received) {
	if err := s.service.DeleteReceived(context.Background(), r.ID); err != nil {
		s.updater.setError(err.Error(), 0)
		return
	}
	s.updater.setStatus(fmt.Sprintf("Removed tag from %s", r.Sender), 0)
	s.setReceivedList()
}
