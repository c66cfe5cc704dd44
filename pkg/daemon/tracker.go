package daemon

import (
	"github.com/charlie0129/batticon/pkg/notify"
	"github.com/charlie0129/batticon/pkg/powerinfo"
)

// Memory is what the tracker remembers between polls.
type Memory struct {
	// LastStatus is nil until the first successful poll.
	LastStatus      *powerinfo.RawStatus
	LowAlerted      bool
	CriticalAlerted bool
}

// Result is the outcome of a single observation.
type Result struct {
	Status  powerinfo.RawStatus
	Percent int
	// Alerts are in the order they must be sent.
	Alerts  []notify.Alert
	Display powerinfo.DisplayState
	Message string
	Icon    string
}

// Tracker decides which notifications to send. Status-change alerts fire on
// every transition, low and critical alerts at most once per discharge
// episode.
type Tracker struct {
	mem Memory
}

// Memory returns a copy of the current memory.
func (t *Tracker) Memory() Memory {
	m := t.mem
	if m.LastStatus != nil {
		s := *m.LastStatus
		m.LastStatus = &s
	}
	return m
}

// Observe feeds one resolved reading into the tracker.
func (t *Tracker) Observe(status powerinfo.RawStatus, percent, low, critical int) Result {
	icon := powerinfo.IconKey(status, percent)
	res := Result{
		Status:  status,
		Percent: percent,
		Icon:    icon,
	}

	if t.mem.LastStatus == nil || *t.mem.LastStatus != status {
		wasDischarging := t.mem.LastStatus != nil && t.mem.LastStatus.IsDischarging()

		timeout := notify.DefaultTimeout
		if status == powerinfo.Missing {
			timeout = notify.TimeoutNever
		}
		res.Alerts = append(res.Alerts, notify.Alert{
			Message: powerinfo.Describe(powerinfo.DisplayState(status), percent),
			Icon:    icon,
			Timeout: timeout,
		})

		// A new discharge episode starts with fresh warnings. Outside of an
		// episode both flags stay cleared.
		if !status.IsDischarging() || !wasDischarging {
			t.mem.LowAlerted = false
			t.mem.CriticalAlerted = false
		}
		s := status
		t.mem.LastStatus = &s
	}

	if status.IsDischarging() {
		if percent <= low && !t.mem.LowAlerted {
			res.Alerts = append(res.Alerts, notify.Alert{
				Message: powerinfo.Describe(powerinfo.LowLevel, percent),
				Icon:    icon,
				Timeout: notify.TimeoutNever,
			})
			t.mem.LowAlerted = true
		}
		if percent <= critical && !t.mem.CriticalAlerted {
			res.Alerts = append(res.Alerts, notify.Alert{
				Message: powerinfo.Describe(powerinfo.CriticalLevel, percent),
				Icon:    icon,
				Timeout: notify.TimeoutNever,
			})
			t.mem.CriticalAlerted = true
		}
	}

	res.Display = powerinfo.DisplayState(status)
	switch {
	case t.mem.CriticalAlerted:
		res.Display = powerinfo.CriticalLevel
	case t.mem.LowAlerted:
		res.Display = powerinfo.LowLevel
	}
	res.Message = powerinfo.Describe(res.Display, percent)

	return res
}
