package interactionui

import (
	"context"
	"fmt"
	"time"

	"plumcave/tui/backup"
	"plumcave/tui/consts/pages"
	"plumcave/tui/stages/interaction"

	"github.com/docker/go-units"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

type Backups struct {
	app     *tview.Application
	updater *Updater
	service *interaction.Service
	flex    *tview.Flex

	backupsTable *tview.Table
	confirmModal *tview.Modal
	tagForm      *tview.Form

	backups []*backup.Info
}

func newBackups(app *tview.Application, updater *Updater, service *interaction.Service) *Backups {
	return &Backups{
		app:     app,
		updater: updater,
		service: service,

		flex: tview.NewFlex().SetDirection(tview.FlexRow),
	}
}

func (s *Backups) buildBackups() {
	s.flex.Clear()
	s.addItems()
	s.setFlex()
}

func (s *Backups) setFlex() {
	s.flex.
		AddItem(s.backupsTable, 0, 1, true)
}

func (s *Backups) addItems() {
	s.backupsTable = tview.NewTable().SetSeparator(tview.Borders.Vertical)
	s.backupsTable.SetBorder(true).
		SetTitle("").
		SetTitleAlign(tview.AlignLeft)

	s.backupsTable.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Modifiers() != tcell.ModAlt {
			return event
		}
		switch event.Rune() {
		case 'N', 'n':
			s.updater.switchPage(pages.Interaction.PICK)
		case 'R', 'r':
			go s.setBackupsList()
		case 'I', 'i':
			s.updater.switchPage(pages.Interaction.INBOX)
		case 'L', 'l':
			s.updater.setConfirm("Log out?", func(key tcell.Key) {
				s.updater.setConfirm("", nil)
				if key != tcell.KeyEnter {
					s.app.SetFocus(s.backupsTable)
					return
				}
				s.service.Logout()
				s.updater.switchStage(pages.PAGE_L1_ENTRY)
			})
		case 'D', 'd':
			if info := s.selected(); info != nil {
				s.backupModal(fmt.Sprintf("Want to DOWNLOAD: %s ?", info.Name), func() {
					go s.downloadBackup(info)
				})
			}
		case 'S', 's':
			if info := s.selected(); info != nil {
				go s.shareBackup(info)
			}
		case 'X', 'x':
			if info := s.selected(); info != nil {
				s.backupModal(fmt.Sprintf("Want to DELETE: %s ?\nThis cannot be undone.", info.Name), func() {
					go s.deleteBackup(info)
				})
			}
		default:
			return event
		}
		return nil
	})

	go s.setBackupsList()
}

func (s *Backups) selected() *backup.Info {
	r, _ := s.backupsTable.GetSelection()
	idx, ok := s.backupsTable.GetCell(r, 0).Reference.(int)
	if !ok || idx >= len(s.backups) {
		return nil
	}
	return s.backups[idx]
}

func (s *Backups) setBackupsList() {
	s.app.QueueUpdateDraw(func() {
		s.backupsTable.SetTitle("Loading...")
		s.backupsTable.Clear()
		headers := []string{"Sr.No.", "Name", "Description", "Stored Size", "Created On"}
		for col, h := range headers {
			cell := tview.NewTableCell(h).
				SetSelectable(false).
				SetAttributes(tcell.AttrBold)

			if col > 2 {
				cell.SetAlign(tview.AlignCenter)
			}
			if col == 1 || col == 2 {
				cell.SetExpansion(1)
			} else {
				cell.SetExpansion(0)
			}
			s.backupsTable.SetCell(0, col, cell)
		}
	})

	backups, err := s.service.ListBackups(context.Background())
	if err != nil {
		s.updater.setError(err.Error(), 0)
		backups = nil
	}

	s.app.QueueUpdateDraw(func() {
		s.backups = backups
		for i, info := range s.backups {
			name := info.Name
			if !info.Readable {
				name = fmt.Sprintf("[indianred]%s (unreadable)[-]", info.ID)
			}
			s.backupsTable.SetCell(i+2, 0, tview.NewTableCell(fmt.Sprintf(" %d  ", i+1)).SetExpansion(0).SetReference(i))
			s.backupsTable.SetCell(i+2, 1, tview.NewTableCell(fmt.Sprintf(" %s  ", name)).SetExpansion(1).SetAlign(tview.AlignLeft))
			s.backupsTable.SetCell(i+2, 2, tview.NewTableCell(fmt.Sprintf(" %s  ", info.Description)).SetExpansion(1).SetAlign(tview.AlignLeft))
			s.backupsTable.SetCell(i+2, 3, tview.NewTableCell(fmt.Sprintf("  %s  ", units.HumanSize(float64(info.EncryptedSize)))).SetAlign(tview.AlignCenter).SetExpansion(0))
			s.backupsTable.SetCell(i+2, 4, tview.NewTableCell(fmt.Sprintf("  %s  ", createdText(info.CreatedAt))).SetAlign(tview.AlignCenter).SetExpansion(0))
		}

		s.backupsTable.SetFixed(2, 0)
		s.backupsTable.SetTitle("Backups")

		s.backupsTable.
			SetSelectable(true, false).
			SetSelectedStyle(tcell.StyleDefault.
				Background(tcell.ColorWhite).
				Foreground(tcell.ColorBlack)).
			Select(2, 0)

		count := len(s.backups)
		for col := range 5 {
			text := ""
			if col == 1 {
				text = fmt.Sprintf("End: Total Backups: %d", count)
			}
			s.backupsTable.SetCell(count+3, col, tview.NewTableCell(text).SetExpansion(0).SetSelectable(false).SetAttributes(tcell.AttrBold))
		}
	})
}

func createdText(at time.Time) string {
	if time.Since(at) > 24*time.Hour {
		return at.Local().Format("2006-01-02 15:04:05")
	}
	return units.HumanDuration(time.Since(at)) + " ago"
}

func (s *Backups) backupModal(text string, yes func()) {
	s.confirmModal = tview.NewModal().
		SetText(text).
		AddButtons([]string{"Cancel", "Yes"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			s.restoreTable(s.confirmModal)
			if buttonIndex == 1 {
				yes()
			}
		})

	s.flex.RemoveItem(s.backupsTable)
	s.flex.AddItem(s.confirmModal, 0, 1, true)
	s.app.SetFocus(s.confirmModal)
}

func (s *Backups) restoreTable(over tview.Primitive) {
	s.flex.RemoveItem(over)
	s.flex.AddItem(s.backupsTable, 0, 1, true)
	s.app.SetFocus(s.backupsTable)
}

// DOWNLOAD
func (s *Backups) downloadBackup(info *backup.Info) {
	name := shortName(info.Name)
	progress := func(stage string, done float64) {
		s.updater.setStatus(fmt.Sprintf("%s: %s %d%%", name, stage, int(done*100)), -1)
	}
	path, err := s.service.DownloadBackup(context.Background(), info.ID, progress)
	if err != nil {
		s.updater.setError(err.Error(), 0)
		s.updater.setStatus("", 0)
		return
	}
	s.updater.setStatus(fmt.Sprintf("Downloaded: %s", path), 0)
}

// SHARE
func (s *Backups) shareBackup(info *backup.Info) {
	s.updater.setStatus("Building tag ...", -1)
	tag, err := s.service.ShareTag(context.Background(), info.ID)
	s.updater.setStatus("", 0)
	if err != nil {
		s.updater.setError(err.Error(), 0)
		return
	}

	s.app.QueueUpdateDraw(func() {
		s.tagForm = tview.NewForm().
			AddTextView("Backup:", info.Name, 0, 1, true, false).
			AddTextView("Tag:", tag, 0, 4, true, false).
			AddTextView("Note:", "Anyone holding this tag can fetch this backup. Share it like a password.", 0, 2, true, false).
			AddInputField("Send to:", "", 40, nil, nil).
			AddButton("Send", func() {
				recipient := s.tagForm.GetFormItemByLabel("Send to:").(*tview.InputField).GetText()
				go s.sendTag(info, recipient)
			}).
			AddButton("Done", func() {
				s.restoreTable(s.tagForm)
			}).
			SetButtonsAlign(tview.AlignCenter)
		s.tagForm.SetBorder(true).SetTitle("Share Tag").SetTitleAlign(tview.AlignLeft)
		s.tagForm.SetCancelFunc(func() {
			s.restoreTable(s.tagForm)
		})

		s.flex.RemoveItem(s.backupsTable)
		s.flex.AddItem(s.tagForm, 0, 1, true)
		s.app.SetFocus(s.tagForm)
	})
}

// sendTag drops the tag into the inbox of recipient, sealed to their key.
func (s *Backups) sendTag(info *backup.Info, recipient string) {
	s.updater.setStatus(fmt.Sprintf("Sending tag to %s ...", recipient), -1)
	if err := s.service.SendTag(context.Background(), info.ID, recipient); err != nil {
		s.updater.setError(err.Error(), 0)
		s.updater.setStatus("", 0)
		return
	}
	s.updater.setStatus(fmt.Sprintf("Sent tag of %s to %s", shortName(info.Name), recipient), 0)
}

// DELETE
func (s *Backups) deleteBackup(info *backup.Info) {
	name := shortName(info.Name)
	s.updater.setStatus(fmt.Sprintf("Deleting: %s ...", name), -1)
	if err := s.service.DeleteBackup(context.Background(), info.ID); err != nil {
		s.updater.setError(err.Error(), 0)
		s.updater.setStatus("", 0)
		return
	}
	s.updater.setStatus(fmt.Sprintf("Deleted: %s", name), 0)
	s.setBackupsList()
}

func shortName(name string) string {
	r := []rune(name)
	if len(r) <= 16 {
		return name
	}
	return string(r[:15]) + "…"
}
