package interactionui

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"plumcave/tui/consts/pages"
	"plumcave/tui/entropy"
	"plumcave/tui/stages/interaction"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	gaugeWidth   = 40
	gaugeRefresh = 100 * time.Millisecond
)

// Entropy collects pointer motion into a pool for the picked file, then
// seals and uploads it.
type Entropy struct {
	app     *tview.Application
	flex    *tview.Flex
	updater *Updater
	service *interaction.Service

	path        string
	description string

	info    *tview.TextView
	pad     *tview.Box
	gauge   *tview.TextView
	actions *tview.Form

	pool    *entropy.Pool
	quality atomic.Uint64 // math.Float64bits of the last notified quality
	stopUI  context.CancelFunc
}

func newEntropy(app *tview.Application, updater *Updater, service *interaction.Service) *Entropy {
	return &Entropy{
		app:     app,
		flex:    tview.NewFlex().SetDirection(tview.FlexRow),
		updater: updater,
		service: service,
	}
}

func (s *Entropy) buildEntropy() {
	s.release()
	s.flex.Clear()
	s.addItems()
	s.setFlex()
}

func (s *Entropy) addItems() {
	s.quality.Store(0)

	desc := s.description
	if desc == "" {
		desc = "[gray](none)[-]"
	}
	s.info = tview.NewTextView().
		SetDynamicColors(true).
		SetText(fmt.Sprintf(" File: %s\n Description: %s", s.path, desc))

	s.pad = tview.NewBox().
		SetBorder(true).
		SetTitle(" Move the mouse around in here ").
		SetTitleAlign(tview.AlignCenter)
	s.pad.SetMouseCapture(func(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		if action == tview.MouseMove && s.pool != nil {
			x, y := event.Position()
			s.service.MixPointer(s.pool, x, y)
		}
		return action, event
	})

	s.gauge = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText(renderGauge(0))

	s.actions = tview.NewForm().
		AddButton("Cancel", s.cancel).
		AddButton("Seal and Upload", s.seal).
		SetButtonsAlign(tview.AlignCenter)
	s.actions.SetCancelFunc(s.cancel)

	s.flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Modifiers() == tcell.ModAlt {
			switch event.Rune() {
			case 'U', 'u':
				s.seal()
				return nil
			case 'B', 'b':
				s.cancel()
				return nil
			}
		}
		return event
	})

	pool, err := s.service.NewEntropyPool(func(q float64) {
		s.quality.Store(math.Float64bits(q))
	})
	if err != nil {
		go s.updater.setError(err.Error(), 0)
		return
	}
	s.pool = pool

	ctx, stop := context.WithCancel(context.Background())
	s.stopUI = stop
	go s.refresh(ctx)
}

func (s *Entropy) setFlex() {
	s.flex.
		AddItem(s.info, 3, 1, false).
		AddItem(s.pad, 0, 1, false).
		AddItem(s.gauge, 1, 1, false).
		AddItem(s.actions, 3, 1, true)
}

// refresh redraws the gauge off the event loop, the pool notifies from
// both the timer goroutine and mouse handlers.
func (s *Entropy) refresh(ctx context.Context) {
	ticker := time.NewTicker(gaugeRefresh)
	defer ticker.Stop()

	last := -1.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q := math.Float64frombits(s.quality.Load())
			if q == last {
				continue
			}
			last = q
			s.app.QueueUpdateDraw(func() {
				s.gauge.SetText(renderGauge(q))
			})
		}
	}
}

func renderGauge(q float64) string {
	q = min(max(q, 0), 100)
	filled := int(q / 100 * gaugeWidth)
	color := "yellow"
	if q >= 99 {
		color = "green"
	}
	return fmt.Sprintf("Quality [%s]%s[gray]%s[-] %5.1f%%", color,
		strings.Repeat("█", filled), strings.Repeat("░", gaugeWidth-filled), q)
}

// release stops the gauge and wipes a pool that was never sealed.
func (s *Entropy) release() {
	if s.stopUI != nil {
		s.stopUI()
		s.stopUI = nil
	}
	if s.pool != nil {
		s.pool.Discard()
		s.pool = nil
	}
}

func (s *Entropy) cancel() {
	s.release()
	s.updater.switchPage(pages.Interaction.BACKUPS)
}

// seal hands the pool to the upload goroutine and returns to the backups
// page, progress shows in the status bar.
func (s *Entropy) seal() {
	pool := s.pool
	if pool == nil {
		return
	}
	s.pool = nil
	if s.stopUI != nil {
		s.stopUI()
		s.stopUI = nil
	}

	go s.processUpload(pool, s.path, s.description)
	s.updater.switchPage(pages.Interaction.BACKUPS)
}

func (s *Entropy) processUpload(pool *entropy.Pool, path, description string) {
	name := shortName(filepath.Base(path))
	progress := func(stage string, done float64) {
		s.updater.setStatus(fmt.Sprintf("%s: %s %d%%", name, stage, int(done*100)), -1)
	}

	_, err := s.service.CreateBackup(context.Background(), path, description, pool, progress)
	if err != nil {
		s.updater.setError(err.Error(), 0)
		s.updater.setStatus("", 0)
		return
	}
	s.updater.setStatus(fmt.Sprintf("Backed up %s", name), 0)
	s.updater.refresh()
}
