// Package notify delivers user-visible toasts. Delivery failures are logged and
// never reach the caller.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// Severity of a toast
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Toast is a single notification
type Toast struct {
	Summary  string
	Detail   string
	Severity Severity
}

// Sink is the host's notification service
type Sink interface {
	Add(toast Toast) error
}

// Notifier is what the extension components report through.
type Notifier interface {
	Notify(summary, detail string, severity Severity)
}

// Toaster adapts a Sink into a Notifier. A nil sink, a failing sink or a
// panicking sink only produces a log line.
type Toaster struct {
	sink Sink
}

// NewToaster creates a Toaster writing to sink
func NewToaster(sink Sink) *Toaster {
	return &Toaster{sink: sink}
}

// Notify implements Notifier
func (t *Toaster) Notify(summary, detail string, severity Severity) {
	if t == nil || t.sink == nil {
		logrus.WithField("severity", severity).Warnf("%s: %s", summary, detail)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logrus.Warnf("%s: %s (toast panicked: %v)", summary, detail, r)
		}
	}()

	if err := t.sink.Add(Toast{Summary: summary, Detail: detail, Severity: severity}); err != nil {
		logrus.Warnf("%s: %s (toast failed: %v)", summary, detail, err)
	}
}

// LogSink writes toasts to the logrus logger
type LogSink struct{}

// Add implements Sink
func (LogSink) Add(toast Toast) error {
	entry := logrus.WithField("toast", toast.Summary)
	switch toast.Severity {
	case SeverityError:
		entry.Error(toast.Detail)
	case SeverityWarn:
		entry.Warn(toast.Detail)
	default:
		entry.Info(toast.Detail)
	}
	return nil
}

// TerminalSink renders styled toasts to a terminal
type TerminalSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalSink creates a TerminalSink writing to out
func NewTerminalSink(out io.Writer) *TerminalSink {
	return &TerminalSink{out: out}
}

// Add implements Sink
func (s *TerminalSink) Add(toast Toast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintln(s.out, Render(toast))
	return err
}

// Render formats a toast with a severity color and icon
func Render(toast Toast) string {
	color, icon := severityStyle(toast.Severity)

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Bold(true)

	line := summaryStyle.Render(fmt.Sprintf("%s %s", icon, toast.Summary))
	if toast.Detail != "" {
		line += " " + lipgloss.NewStyle().Faint(true).Render(toast.Detail)
	}
	return line
}

func severityStyle(severity Severity) (string, string) {
	switch severity {
	case SeverityError:
		return "#FF5F87", "✗"
	case SeverityWarn:
		return "#FFAF00", "⚠"
	default:
		return "#5FAFFF", "ℹ"
	}
}
