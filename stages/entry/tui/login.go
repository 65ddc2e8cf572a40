package entryui

import (
	"plumcave/tui/consts/pages"
	"plumcave/tui/stages/entry"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	labelEmail    = "Email :"
	labelPassword = "Password :"
	labelRemember = "Remember email? :"
	labelRecent   = "Recent :"
)

type Login struct {
	app     *tview.Application // the app
	flex    *tview.Flex        // the root flex canvas
	service *entry.Service
	updater *Updater

	loginForm *tview.Form
	busy      bool
}

func newLogin(app *tview.Application, service *entry.Service, updater *Updater) *Login {
	return &Login{
		app:     app,
		flex:    tview.NewFlex().SetDirection(tview.FlexRow),
		service: service,
		updater: updater,
	}
}

func (s *Login) buildLogin() {
	s.flex.Clear()
	s.addItems()
	s.setFlex()
}

func (s *Login) addItems() {
	s.busy = false
	s.loginForm = tview.NewForm().
		AddInputField(labelEmail, "", 40, nil, nil).
		AddPasswordField(labelPassword, "", 40, '*', nil).
		AddCheckbox(labelRemember, true, nil).
		AddButton("Cancel", func() { s.updater.switchPage(pages.Entry.MENU) }).
		AddButton("Log In", s.submit)
	s.loginForm.SetBorder(true).SetTitle("Log In").SetTitleAlign(tview.AlignLeft)
	s.loginForm.SetCancelFunc(func() { s.updater.switchPage(pages.Entry.MENU) })

	recent := s.service.RecentEmails()
	if len(recent) > 0 {
		s.loginForm.GetFormItemByLabel(labelEmail).(*tview.InputField).SetText(recent[0])
		s.loginForm.AddFormItem(tview.NewDropDown().SetLabel(labelRecent).SetOptions(recent, func(option string, optionIndex int) {
			s.loginForm.GetFormItemByLabel(labelEmail).(*tview.InputField).SetText(option)
		}).SetCurrentOption(0))
		// land on the password when the email is already filled
		s.loginForm.SetFocus(1)
	}

	s.setShortcuts()
}

func (s *Login) setShortcuts() {
	s.flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Modifiers() == tcell.ModAlt {
			switch event.Rune() {
			case 'O', 'o':
				s.submit()
				return nil
			case 'C', 'c':
				s.updater.switchPage(pages.Entry.MENU)
				return nil
			}
		}
		return event
	})
}

func (c *Login) setFlex() {
	c.flex.
		AddItem(c.loginForm, 0, 1, true)
}

// submit reads the form on the event loop and derives off it. Argon2 takes
// a moment.
func (s *Login) submit() {
	if s.busy {
		return
	}
	s.busy = true

	email := s.loginForm.GetFormItemByLabel(labelEmail).(*tview.InputField).GetText()
	passField := s.loginForm.GetFormItemByLabel(labelPassword).(*tview.InputField)
	pwd := []byte(passField.GetText())
	passField.SetText("")
	remember := s.loginForm.GetFormItemByLabel(labelRemember).(*tview.Checkbox).IsChecked()

	s.app.SetFocus(nil)
	go s.login(email, pwd, remember)
}

func (s *Login) login(email string, pwd []byte, remember bool) {
	s.updater.setStatus("Deriving keys ...", -1)
	err := s.service.Login(email, pwd, remember)
	s.updater.setStatus("", -1)

	s.app.QueueUpdateDraw(func() {
		s.busy = false
		if err != nil {
			s.app.SetFocus(s.loginForm)
			return
		}
		s.updater.switchStage(pages.PAGE_L1_INTERACTION)
	})
	if err != nil {
		s.updater.setError(err.Error(), 0)
	}
}
