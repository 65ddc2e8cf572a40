package logger

import "strings"

type Level string

const (
	DebugLevel Level = "DEBUG"
	InfoLevel  Level = "INFO"
	WarnLevel  Level = "WARN"
	ErrorLevel Level = "ERROR"
)

var levelRank = map[Level]int{
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
}

// ParseLevel falls back to INFO on anything unknown.
func ParseLevel(s string) Level {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRank[l]; !ok {
		return InfoLevel
	}
	return l
}

// Enabled reports whether l passes a min threshold.
func (l Level) Enabled(min Level) bool {
	return levelRank[l] >= levelRank[min]
}

type Log struct {
	SessionID string `json:"sessionId"`
	Level     Level  `json:"level"`
	Time      int64  `json:"time"`
	Message   string `json:"message"`
	Args      []any  `json:"args,omitempty"`
}

type Logger interface {
	Log(level Level, msg string, args ...any)
	Rotate() error
	// Stops the logger, including the workers and the closes file.
	Stop()
}

// Nop drops everything.
type Nop struct{}

func (Nop) Log(Level, string, ...any) {}
func (Nop) Rotate() error             { return nil }
func (Nop) Stop()                     {}
