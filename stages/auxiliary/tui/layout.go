package auxiliaryui

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"plumcave/tui/consts/pages"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const defaultDelay = 5 // seconds

// Layout is the frame shared by both stages: title, the stage's pages, a
// message row and the shortcut tips.
type Layout struct {
	app *tview.Application

	// Elements for the layout
	title     *tview.TextView
	subtitles *tview.TextView

	infoFlex *tview.Grid

	errorText   *tview.TextView
	confirmText *tview.TextView
	statusText  *tview.TextView

	tips *tview.TextView

	// bumped on every write so a delayed clear never wipes a newer message
	errorGen  atomic.Uint64
	statusGen atomic.Uint64
}

func NewLayout(app *tview.Application, title, subtitle string) *Layout {
	s := &Layout{app: app}

	s.title = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText(title).
		SetDynamicColors(true).
		SetTextColor(tcell.ColorWhite)

	s.subtitles = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText(subtitle).
		SetDynamicColors(true).
		SetTextColor(tcell.ColorLightGray)

	// Used to show error messages
	s.errorText = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("").
		SetDynamicColors(true).
		SetTextColor(tcell.ColorIndianRed)

	// Used to show confirmation messages
	s.confirmText = tview.NewTextView().
		SetTextAlign(tview.AlignLeft).
		SetLabelWidth(0).
		SetText("").
		SetDynamicColors(true).
		SetTextColor(tcell.ColorLightGray)

	// Used to show status messages
	s.statusText = tview.NewTextView().
		SetTextAlign(tview.AlignRight).
		SetText("").
		SetDynamicColors(true).
		SetTextColor(tcell.ColorForestGreen)

	s.tips = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("").
		SetDynamicColors(true).
		SetTextColor(tcell.ColorDarkGreen).SetWrap(true).SetWordWrap(true)

	s.infoFlex = tview.NewGrid().
		SetRows(1).
		SetColumns(0, 0, 0).
		AddItem(s.confirmText, 0, 0, 1, 1, 0, 0, false).
		AddItem(s.errorText, 0, 1, 1, 1, 0, 0, false).
		AddItem(s.statusText, 0, 2, 1, 1, 0, 0, false)

	return s
}

// Frame wraps body with the title rows above and the message and tip rows
// below.
func (s *Layout) Frame(body tview.Primitive) *tview.Flex {
	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewBox(), 1, 1, false).
		AddItem(s.title, 1, 1, false).
		AddItem(s.subtitles, 1, 1, false).
		AddItem(tview.NewBox(), 1, 1, false).
		//
		AddItem(body, 0, 1, true).
		//
		AddItem(tview.NewBox(), 1, 1, false).
		AddItem(s.infoFlex, 1, 1, false).
		AddItem(tview.NewBox(), 1, 1, false).
		AddItem(s.tips, 2, 1, false)
}

func (s *Layout) SetSubtitle(txt string) {
	s.subtitles.SetText(txt)
}

// SetError must be called off the event loop.
//
// delay = 0: default time out
// delay = -1: not time out
// delay = +ve: delay time out
func (s *Layout) SetError(txt string, delay int) {
	s.setTimed(s.errorText, &s.errorGen, txt, delay)
}

// SetStatus follows the same delay rules as SetError.
func (s *Layout) SetStatus(txt string, delay int) {
	s.setTimed(s.statusText, &s.statusGen, txt, delay)
}

func (s *Layout) setTimed(view *tview.TextView, gen *atomic.Uint64, txt string, delay int) {
	g := gen.Add(1)
	s.app.QueueUpdateDraw(func() {
		view.SetText(txt)
	})
	if txt == "" || delay == -1 {
		return
	}
	if delay < 1 {
		delay = defaultDelay
	}
	time.AfterFunc(time.Duration(delay)*time.Second, func() {
		if gen.Load() != g {
			return
		}
		s.app.QueueUpdateDraw(func() {
			view.SetText("")
		})
	})
}

// SetConfirm asks a yes/no question in the message row. It runs on the
// event loop.
func (s *Layout) SetConfirm(txt string, proceed func(key tcell.Key)) {
	if txt == "" {
		s.confirmText.SetText("")
		return
	}

	txt += " (Esc to cancel, Enter to confirm)"
	s.confirmText.SetText(txt)
	s.confirmText.SetDoneFunc(proceed)
	s.app.SetFocus(s.confirmText)
}

func (s *Layout) SetTips(stage, name string) {
	s.tips.SetText(TipsText(pages.TipsMap[stage][name]))
}

func TipsText(tips []*pages.Tip) string {
	text := "       "
	new := ""
	for _, tip := range tips {
		if tip.ShortCut == "" {
			new = strings.ReplaceAll(fmt.Sprintf("[yellow]~ [-]%s", tip.Label), " ", "\u00A0")
		} else {
			new = strings.ReplaceAll(fmt.Sprintf("[yellow]<%s> [-]%s", tip.ShortCut, tip.Label), " ", "\u00A0")
		}
		text += new + "       "
	}
	return text
}
