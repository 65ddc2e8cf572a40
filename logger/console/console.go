// Package console is the logger.Logger used by the command line, where the
// terminal is not owned by the TUI.
package console

import (
	"fmt"
	"io"

	"plumcave/tui/logger"

	"github.com/rs/zerolog"
)

type Console struct {
	zlog zerolog.Logger
}

func New(out io.Writer, minLevel logger.Level) *Console {
	zlog := zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}).
		Level(toZerolog(minLevel)).
		With().
		Timestamp().
		Logger()

	return &Console{zlog: zlog}
}

func (s *Console) Log(level logger.Level, msg string, args ...any) {
	ev := s.zlog.WithLevel(toZerolog(level))
	if len(args) > 0 {
		ev.Msg(fmt.Sprintf(msg, args...))
		return
	}
	ev.Msg(msg)
}

func (s *Console) Rotate() error { return nil }

func (s *Console) Stop() {}

func toZerolog(l logger.Level) zerolog.Level {
	switch l {
	case logger.DebugLevel:
		return zerolog.DebugLevel
	case logger.WarnLevel:
		return zerolog.WarnLevel
	case logger.ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
