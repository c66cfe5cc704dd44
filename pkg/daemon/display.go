package daemon

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// LogDisplay is the Display used without a tray. It logs every change of
// the tooltip.
type LogDisplay struct {
	mu   sync.Mutex
	last string
}

func (d *LogDisplay) Update(tooltip, icon string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if tooltip == d.last {
		return
	}
	d.last = tooltip
	logrus.WithField("icon", icon).Info(tooltip)
}
