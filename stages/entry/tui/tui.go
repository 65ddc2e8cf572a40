package entryui

import (
	"plumcave/tui/consts/pages"
	"plumcave/tui/stages/entry"
	auxiliaryui "plumcave/tui/stages/auxiliary/tui"

	"github.com/rivo/tview"
)

type AppTUI struct {
	app       *tview.Application
	pages     *tview.Pages
	Flex      *tview.Flex
	service   *entry.Service
	updater   *Updater
	buildPage map[string]func()

	layout   *auxiliaryui.Layout
	menu     *Menu
	login    *Login
	fetch    *Fetch
	settings *Settings
	help     *auxiliaryui.Help
}

// Updater for sub-level pages
type Updater struct {
	switchPage  func(string)
	setStatus   func(string, int)
	setError    func(string, int)
	switchStage func(string)
}

func NewAppTUI(app *tview.Application, service *entry.Service) *AppTUI {
	ui := &AppTUI{
		app:       app,
		pages:     tview.NewPages(),
		service:   service,
		buildPage: make(map[string]func()),
	}

	ui.layout = auxiliaryui.NewLayout(ui.app, "PLUMCAVE",
		"Zero-Knowledge Backups - Keys Never Leave This Machine.")
	ui.updater = &Updater{
		switchPage: ui.SwitchTo,
		setStatus:  ui.layout.SetStatus,
		setError:   ui.layout.SetError,
	}

	ui.menu = newMenu(ui.app, ui.updater)
	ui.login = newLogin(ui.app, ui.service, ui.updater)
	ui.fetch = newFetch(ui.app, ui.service, ui.updater)
	ui.settings = newSettings(ui.app, ui.service, ui.updater)
	ui.help = auxiliaryui.NewHelp(ui.app, func() { ui.SwitchTo(pages.Entry.MENU) })

	ui.buildPage[pages.Entry.MENU] = ui.menu.buildMenu
	ui.buildPage[pages.Entry.LOGIN] = ui.login.buildLogin
	ui.buildPage[pages.Entry.FETCH] = ui.fetch.buildFetch
	ui.buildPage[pages.Entry.SETTINGS] = ui.settings.buildSettings
	ui.buildPage[pages.Entry.HELP] = ui.help.Build

	ui.pages.AddPage(pages.Entry.MENU, ui.menu.flex, true, true)
	ui.pages.AddPage(pages.Entry.LOGIN, ui.login.flex, true, false)
	ui.pages.AddPage(pages.Entry.FETCH, ui.fetch.flex, true, false)
	ui.pages.AddPage(pages.Entry.SETTINGS, ui.settings.flex, true, false)
	ui.pages.AddPage(pages.Entry.HELP, ui.help.Flex, true, false)

	ui.Flex = ui.layout.Frame(ui.pages)

	ui.SwitchTo(pages.Entry.MENU)

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
	ui.layout.SetTips(pages.PAGE_L1_ENTRY, name)
}

func (ui *AppTUI) SetSwitchStage(fn func(string)) {
	ui.updater.switchStage = fn
}
