// Package diag accumulates leveled diagnostics produced during a conversion
// run so that callers can inspect them, assert on them in tests, or replay
// them through a logger after the run completes.
package diag

import (
	"fmt"
	"log/slog"
)

// Level is the severity of a diagnostic message.
type Level int8

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

// Message is a single diagnostic tied to the document section that produced
// it. Section is empty for document-wide messages.
type Message struct {
	Level   Level
	Section string
	Text    string
}

func (m Message) String() string {
	if m.Section == "" {
		return fmt.Sprintf("%s: %s", m.Level, m.Text)
	}
	return fmt.Sprintf("%s: [%s] %s", m.Level, m.Section, m.Text)
}

// Log is an ordered collection of diagnostics. The zero value is ready to
// use. It is not safe for concurrent use; the conversion pipeline appends
// from a single goroutine.
type Log struct {
	messages []Message
}

// Infof records an info-level message for the given section.
func (l *Log) Infof(section, format string, args ...any) {
	l.append(LevelInfo, section, format, args...)
}

// Warnf records a warning for the given section.
func (l *Log) Warnf(section, format string, args ...any) {
	l.append(LevelWarn, section, format, args...)
}

// Errorf records an error-level message for the given section.
func (l *Log) Errorf(section, format string, args ...any) {
	l.append(LevelError, section, format, args...)
}

func (l *Log) append(level Level, section, format string, args ...any) {
	l.messages = append(l.messages, Message{
		Level:   level,
		Section: section,
		Text:    fmt.Sprintf(format, args...),
	})
}

// Messages returns the recorded diagnostics in the order they were added.
func (l *Log) Messages() []Message {
	return l.messages
}

// Len returns the number of recorded diagnostics.
func (l *Log) Len() int {
	return len(l.messages)
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (l *Log) HasErrors() bool {
	for _, m := range l.messages {
		if m.Level == LevelError {
			return true
		}
	}
	return false
}

// CountAt returns the number of diagnostics recorded at the given level.
func (l *Log) CountAt(level Level) int {
	n := 0
	for _, m := range l.messages {
		if m.Level == level {
			n++
		}
	}
	return n
}

// Replay writes every recorded diagnostic to the logger at its matching
// slog level, attaching the section name when present.
func (l *Log) Replay(logger *slog.Logger) {
	for _, m := range l.messages {
		attrs := make([]any, 0, 2)
		if m.Section != "" {
			attrs = append(attrs, "section", m.Section)
		}
		switch m.Level {
		case LevelWarn:
			logger.Warn(m.Text, attrs...)
		case LevelError:
			logger.Error(m.Text, attrs...)
		default:
			logger.Info(m.Text, attrs...)
		}
	}
}
