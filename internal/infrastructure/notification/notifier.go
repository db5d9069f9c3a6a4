// Package notification delivers user-facing print notifications.
package notification

import (
	"sync"

	appprinting "github.com/labelprint/labelprint/internal/application/printing"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log. Used by the command line
// composer where the terminal is the user interface.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements appprinting.Notifier
func (n *LogNotifier) Notify(severity appprinting.Severity, summary, detail string) {
	fields := []zap.Field{
		zap.String("severity", string(severity)),
		zap.String("detail", detail),
	}
	switch severity {
	case appprinting.SeverityError:
		n.logger.Error(summary, fields...)
	case appprinting.SeverityWarn:
		n.logger.Warn(summary, fields...)
	default:
		n.logger.Info(summary, fields...)
	}
}

// Notification is one recorded message
type Notification struct {
	Severity appprinting.Severity
	Summary  string
	Detail   string
}

// RecordingNotifier keeps every notification in memory
type RecordingNotifier struct {
	mu    sync.Mutex
	items []Notification
	next  appprinting.Notifier
}

// NewRecordingNotifier creates a RecordingNotifier. If next is not nil,
// notifications are forwarded to it after being recorded.
func NewRecordingNotifier(next appprinting.Notifier) *RecordingNotifier {
	return &RecordingNotifier{next: next}
}

// Notify implements appprinting.Notifier
func (n *RecordingNotifier) Notify(severity appprinting.Severity, summary, detail string) {
	n.mu.Lock()
	n.items = append(n.items, Notification{Severity: severity, Summary: summary, Detail: detail})
	n.mu.Unlock()

	if n.next != nil {
		n.next.Notify(severity, summary, detail)
	}
}

// Notifications returns a copy of the recorded notifications
func (n *RecordingNotifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Last returns the most recent notification
func (n *RecordingNotifier) Last() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return Notification{}, false
	}
	return n.items[len(n.items)-1], true
}

// Count returns the number of recorded notifications of a severity
func (n *RecordingNotifier) Count(severity appprinting.Severity) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, item := range n.items {
		if item.Severity == severity {
			count++
		}
	}
	return count
}

// Reset drops all recorded notifications
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = nil
}
