// Package notify sends desktop notifications and launches the click action.
package notify

import (
	"time"
)

const (
	// DefaultTimeout is how long a regular notification stays on screen.
	DefaultTimeout = 3 * time.Second
	// TimeoutNever keeps a notification until the user dismisses it.
	TimeoutNever time.Duration = 0
)

// Alert is a single notification decided by the state machine.
type Alert struct {
	Message string        `json:"message"`
	Icon    string        `json:"icon,omitempty"`
	Timeout time.Duration `json:"timeout"`
}

// Persistent reports whether the alert never auto-dismisses.
func (a Alert) Persistent() bool {
	return a.Timeout == TimeoutNever
}

// Notifier shows a notification. Implementations must not wait for the
// notification to be dismissed.
type Notifier interface {
	Send(text, icon string, timeout time.Duration) error
}

// Launcher starts an external command without waiting for it.
type Launcher interface {
	Run(command string) error
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Send(string, string, time.Duration) error { return nil }
