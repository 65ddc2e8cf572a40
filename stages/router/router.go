package router

import (
	"path/filepath"

	"plumcave/tui/backup"
	"plumcave/tui/consts/pages"
	"plumcave/tui/core"
	"plumcave/tui/logger"
	"plumcave/tui/stages/auxiliary"
	"plumcave/tui/stages/entry"
	entryui "plumcave/tui/stages/entry/tui"
	"plumcave/tui/stages/interaction"
	interactionui "plumcave/tui/stages/interaction/tui"

	"github.com/rivo/tview"
)

const recentFileName = "recent.json"

type Stages struct {
	logger   logger.Logger
	core     *core.Core
	manager  *backup.Manager
	settings *auxiliary.Settings

	app          *tview.Application
	pages        *tview.Pages
	constructors map[string]func()
	activePage   string

	entry       *entryui.AppTUI
	interaction *interactionui.AppTUI
}

func NewStages(app *tview.Application, log logger.Logger, core *core.Core, manager *backup.Manager,
	settings *auxiliary.Settings) *Stages {
	s := &Stages{
		logger:       log,
		core:         core,
		manager:      manager,
		settings:     settings,
		app:          app,
		constructors: make(map[string]func()),
	}
	s.registerConstructors()

	return s
}

func (s *Stages) InitStages() (*tview.Pages, error) {
	s.pages = tview.NewPages()
	s.SwitchTo(pages.PAGE_L1_ENTRY)

	return s.pages, nil
}

// SwitchTo rebuilds a stage from scratch, nothing from the previous stage
// survives in its widgets.
func (s *Stages) SwitchTo(name string) {
	if s.pages.HasPage(name) {
		s.pages.RemovePage(name)
	}
	constructor, ok := s.constructors[name]
	if !ok {
		panic("internal error: constructor not found")
	}
	constructor()
	s.pages.SwitchToPage(name)
	s.activePage = name
	s.logger.Log(logger.DebugLevel, "stage %s", name)
}

func (s *Stages) registerConstructors() {
	s.constructors[pages.PAGE_L1_ENTRY] = func() {
		if s.pages.HasPage(pages.PAGE_L1_INTERACTION) {
			s.pages.RemovePage(pages.PAGE_L1_INTERACTION)
			s.interaction = nil
		}
		// no session survives a return to the entry stage
		if s.core.Active() {
			s.core.DelSession()
			s.logger.Log(logger.InfoLevel, "session dropped on stage switch")
		}
		recent := entry.NewRecentManager(filepath.Join(filepath.Dir(s.settings.Path), recentFileName))
		entryService := entry.NewService(s.logger, s.core, s.manager, recent, s.settings)
		s.entry = entryui.NewAppTUI(s.app, entryService)
		s.entry.SetSwitchStage(s.SwitchTo)
		s.pages.AddPage(pages.PAGE_L1_ENTRY, s.entry.Flex, true, true)
	}

	s.constructors[pages.PAGE_L1_INTERACTION] = func() {
		interactionService := interaction.NewService(s.logger, s.core, s.manager, s.settings)
		s.interaction = interactionui.NewAppTUI(s.app, interactionService)
		s.interaction.SetSwitchStage(s.SwitchTo)
		s.pages.AddPage(pages.PAGE_L1_INTERACTION, s.interaction.Flex, true, false)
	}
}
