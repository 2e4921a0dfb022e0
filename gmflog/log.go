// Package gmflog structures pipeline/element log lines as logrus fields
// (pipeline tag, element tag, state, sub-state), grounded on the
// linkerd2 corpus's logrus.WithFields idiom (e.g.
// cni-plugin/kubernetes.go). The teacher repo's own logging is a
// println-based firmware shortcut (fine for a microcontroller UART);
// SPEC_FULL.md §6 calls for a real structured logger for the host-side
// event/observability story, so this package replaces it rather than
// generalizing it.
package gmflog

import (
	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/gmf/element"
)

// Logger wraps a logrus.FieldLogger scoped to one pipeline, so call
// sites never repeat the pipeline tag field.
type Logger struct {
	entry *logrus.Entry
}

// New returns a Logger that tags every line with pipeline=tag.
func New(tag string) *Logger {
	return &Logger{entry: logrus.WithField("pipeline", tag)}
}

// Event logs a pipeline/element event at the level its Sub warrants:
// Error-level for SubError, Info for terminal sub-states, Debug for
// everything else (RUNNING/PAUSED/OPENING transitions are routine).
func (l *Logger) Event(e element.Event) {
	fields := logrus.Fields{
		"element": e.From,
		"sub":     e.Sub.String(),
	}
	entry := l.entry.WithFields(fields)
	switch e.Sub {
	case element.SubError:
		entry.Error("element state change")
	case element.SubFinished, element.SubStopped:
		entry.Info("element state change")
	default:
		entry.Debug("element state change")
	}
}

// Errorf logs a formatted error line tagged with op.
func (l *Logger) Errorf(op, format string, args ...any) {
	l.entry.WithField("op", op).Errorf(format, args...)
}

// Infof logs a formatted informational line tagged with op.
func (l *Logger) Infof(op, format string, args ...any) {
	l.entry.WithField("op", op).Infof(format, args...)
}
