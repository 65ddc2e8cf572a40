package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"plumcave/tui/logger"
	"plumcave/tui/logger/native"
	"plumcave/tui/stages/auxiliary"
	"plumcave/tui/stages/router"

	"github.com/rivo/tview"
)

// runTUI owns the terminal until the user quits or ctx ends. Logs go to a
// file since stdout belongs to the UI.
func runTUI(ctx context.Context, settings *auxiliary.Settings) error {
	logPath := settings.LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	maxSize, err := settings.LogMaxSizeBytes()
	if err != nil {
		return err
	}
	log, err := native.New(logPath, maxSize, int64(settings.Log.MaxAge.Seconds()), logger.ParseLevel(settings.Log.Level))
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer log.Stop()
	if err := log.Rotate(); err != nil {
		log.Log(logger.WarnLevel, "failed to rotate logs: %v", err)
	}
	log.Log(logger.InfoLevel, "starting %s, config %s", Version, settings.Path)

	d, err := newDeps(ctx, settings, log)
	if err != nil {
		return err
	}
	// the master key never outlives the process
	defer d.core.DelSession()

	app := tview.NewApplication().EnableMouse(true)
	stages := router.NewStages(app, log, d.core, d.manager, settings)
	pages, err := stages.InitStages()
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	if err := app.SetRoot(pages, true).Run(); err != nil {
		log.Log(logger.ErrorLevel, "tui stopped: %v", err)
		return err
	}
	log.Log(logger.InfoLevel, "bye")
	return nil
}
