package interactionui

import (
	"fmt"

	"plumcave/tui/consts/pages"
	auxiliaryui "plumcave/tui/stages/auxiliary/tui"
	"plumcave/tui/stages/interaction"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

type AppTUI struct {
	app       *tview.Application
	pages     *tview.Pages
	Flex      *tview.Flex
	service   *interaction.Service
	updater   *Updater
	buildPage map[string]func()

	layout  *auxiliaryui.Layout
	backups *Backups
	picker  *Picker
	entropy *Entropy
	inbox   *Inbox
}

// Updater for sub-level pages
type Updater struct {
	switchPage  func(string)
	setStatus   func(string, int)
	setError    func(string, int)
	setConfirm  func(string, func(key tcell.Key))
	switchStage func(string)

	// startBackup hands a picked file to the entropy page
	startBackup func(path, description string)
	// refresh reloads the backups table, safe off the event loop
	refresh func()
}

func NewAppTUI(app *tview.Application, service *interaction.Service) *AppTUI {
	ui := &AppTUI{
		app:       app,
		pages:     tview.NewPages(),
		service:   service,
		buildPage: make(map[string]func()),
	}

	ui.layout = auxiliaryui.NewLayout(ui.app, "BACKUPS",
		fmt.Sprintf("Logged in as %s", service.Email()))
	ui.updater = &Updater{
		switchPage: ui.SwitchTo,
		setStatus:  ui.layout.SetStatus,
		setError:   ui.layout.SetError,
		setConfirm: ui.layout.SetConfirm,
	}

	ui.backups = newBackups(ui.app, ui.updater, ui.service)
	ui.picker = newPicker(ui.app, ui.updater, ui.service)
	ui.entropy = newEntropy(ui.app, ui.updater, ui.service)
	ui.inbox = newInbox(ui.app, ui.updater, ui.service)
	ui.updater.refresh = func() { go ui.backups.setBackupsList() }
	ui.updater.startBackup = func(path, description string) {
		ui.entropy.path = path
		ui.entropy.description = description
		ui.SwitchTo(pages.Interaction.ENTROPY)
	}

	ui.buildPage[pages.Interaction.BACKUPS] = ui.backups.buildBackups
	ui.buildPage[pages.Interaction.PICK] = ui.picker.buildPicker
	ui.buildPage[pages.Interaction.ENTROPY] = ui.entropy.buildEntropy
	ui.buildPage[pages.Interaction.INBOX] = ui.inbox.buildInbox

	ui.pages.AddPage(pages.Interaction.BACKUPS, ui.backups.flex, true, true)
	ui.pages.AddPage(pages.Interaction.PICK, ui.picker.flex, true, false)
	ui.pages.AddPage(pages.Interaction.ENTROPY, ui.entropy.flex, true, false)
	ui.pages.AddPage(pages.Interaction.INBOX, ui.inbox.flex, true, false)

	ui.Flex = ui.layout.Frame(ui.pages)

	ui.SwitchTo(pages.Interaction.BACKUPS)

	return ui
}

func (ui *AppTUI) SwitchTo(name string) {
	build, exists := ui.buildPage[name]
	if !exists {
		panic("build not found")
	}
	build()
	ui.pages.SwitchToPage(name)
	ui.app.SetFocus(ui.pages.GetPage(name))
	ui.layout.SetTips(pages.PAGE_L1_INTERACTION, name)
}

func (ui *AppTUI) SetSwitchStage(fn func(string)) {
	ui.updater.switchStage = fn
}
