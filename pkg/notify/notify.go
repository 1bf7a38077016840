// Package notify defines the user-notification sink the console core raises
// transient notices on. The actual UI surface (toast, status bar) is a
// collaborator; the core only needs somewhere to hand messages to.
package notify

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Level classifies a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Sink receives user-visible notices.
type Sink interface {
	Notify(level Level, message string)
}

// Func adapts a function to the Sink interface.
type Func func(level Level, message string)

// Notify implements Sink.
func (f Func) Notify(level Level, message string) { f(level, message) }

// LogSink writes notices to a logger. It is the default sink when no UI is
// attached.
type LogSink struct {
	Logger *logrus.Entry
}

// Notify implements Sink.
func (s *LogSink) Notify(level Level, message string) {
	switch level {
	case LevelError:
		s.Logger.Error(message)
	case LevelWarn:
		s.Logger.Warn(message)
	default:
		s.Logger.Info(message)
	}
}

// Deduper wraps a sink and suppresses identical messages re-raised within a
// cool-down window. The transport uses this so each disconnect/reconnect
// transition surfaces exactly one notice.
type Deduper struct {
	mu       sync.Mutex
	next     Sink
	cooldown time.Duration
	lastSeen map[string]time.Time
	now      func() time.Time
}

// NewDeduper wraps next with the given cool-down window.
func NewDeduper(next Sink, cooldown time.Duration) *Deduper {
	return &Deduper{
		next:     next,
		cooldown: cooldown,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Notify implements Sink.
func (d *Deduper) Notify(level Level, message string) {
	d.mu.Lock()
	ts := d.now()
	if last, ok := d.lastSeen[message]; ok && ts.Sub(last) < d.cooldown {
		d.mu.Unlock()
		return
	}
	d.lastSeen[message] = ts
	d.mu.Unlock()

	d.next.Notify(level, message)
}
