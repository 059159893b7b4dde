package logsvc

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/labstack/gommon/color"

	"github.com/trezcool/schoolportal/core"
)

// Levels
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

type (
	Entry struct {
		Level   string
		Message string
		Args    []interface{}
	}

	// ConsoleLogger writes colored entries to a std logger and keeps them in memory.
	ConsoleLogger struct {
		std   *log.Logger
		color *color.Color

		mu      sync.Mutex
		entries []Entry
	}
)

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(w io.Writer, prefix string) *ConsoleLogger {
	c := color.New()
	c.SetOutput(w)
	return &ConsoleLogger{
		std:   log.New(w, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		color: c,
	}
}

// NewDiscardLogger is a ConsoleLogger that prints nothing; entries are still recorded.
func NewDiscardLogger() *ConsoleLogger {
	return NewConsoleLogger(io.Discard, "")
}

// Entries returns the recorded entries, optionally filtered by level.
func (l *ConsoleLogger) Entries(levels ...string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if len(levels) == 0 || contains(levels, e.Level) {
			entries = append(entries, e)
		}
	}
	return entries
}

func contains(levels []string, level string) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

func (l *ConsoleLogger) log(level string, paint func(interface{}, ...string) string, msg string, args []interface{}) {
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Level: level, Message: msg, Args: args})
	l.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(paint("[" + level + "] "))
	sb.WriteString(msg)
	for _, arg := range args {
		sb.WriteString(fmt.Sprintf(" | %+v", arg))
	}
	_ = l.std.Output(3, sb.String())
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, l.color.Cyan, msg, args)
}

func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, l.color.Green, msg, args)
}

func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, l.color.Yellow, msg, args)
}

func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	l.log(LevelError, l.color.Red, msg, args)
}

func (l *ConsoleLogger) Fatal(msg string, args ...interface{}) {
	l.log(LevelFatal, l.color.Magenta, msg, args)
	l.std.Fatal(msg)
}
