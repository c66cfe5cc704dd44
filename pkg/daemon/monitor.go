package daemon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batticon/pkg/config"
	"github.com/charlie0129/batticon/pkg/events"
	"github.com/charlie0129/batticon/pkg/notify"
	"github.com/charlie0129/batticon/pkg/powerinfo"
	"github.com/charlie0129/batticon/pkg/powersupply"
)

const (
	pollRecordCount = 60
	// missedPollWindow is how far back the recorder looks for missed polls.
	missedPollWindow = 1*time.Minute + 20*time.Second
)

// Display is the surface that shows the current state, usually a tray
// icon.
type Display interface {
	Update(tooltip, icon string)
}

// StatusResolver reads the battery. It is satisfied by
// *powerinfo.Resolver.
type StatusResolver interface {
	ResolveStatus() (powerinfo.RawStatus, error)
	ResolvePercentage() (int, error)
}

// Monitor owns the poll loop. Tracker state is only touched from the
// goroutine running Run.
type Monitor struct {
	conf     config.Config
	supplies *powersupply.Supplies
	resolver StatusResolver
	tracker  Tracker
	notifier notify.Notifier
	launcher notify.Launcher
	display  Display
	clicks   <-chan struct{}
	hub      *events.EventHub
	recorder *PollRecorder
	// due is when the pending poll was scheduled. Only Run touches it.
	due time.Time

	mu       sync.RWMutex
	snapshot *powerinfo.Snapshot
}

// MonitorOptions holds the collaborators of a Monitor. Nil fields get
// no-op defaults, except Config and Supplies.
type MonitorOptions struct {
	Config   config.Config
	Supplies *powersupply.Supplies
	Resolver StatusResolver
	Notifier notify.Notifier
	Launcher notify.Launcher
	Display  Display
	Clicks   <-chan struct{}
	Hub      *events.EventHub
}

// NewMonitor creates a Monitor.
func NewMonitor(opts MonitorOptions) *Monitor {
	m := &Monitor{
		conf:     opts.Config,
		supplies: opts.Supplies,
		resolver: opts.Resolver,
		notifier: opts.Notifier,
		launcher: opts.Launcher,
		display:  opts.Display,
		clicks:   opts.Clicks,
		hub:      opts.Hub,
		recorder: NewPollRecorder(pollRecordCount),
	}
	if m.supplies == nil {
		m.supplies = &powersupply.Supplies{}
	}
	if m.notifier == nil {
		m.notifier = notify.Discard{}
	}
	if m.launcher == nil {
		m.launcher = notify.ExecLauncher{}
	}
	if m.display == nil {
		m.display = nopDisplay{}
	}
	return m
}

type nopDisplay struct{}

func (nopDisplay) Update(string, string) {}

// ACOnly reports whether no battery was discovered.
func (m *Monitor) ACOnly() bool {
	return m.supplies.Battery == nil
}

// Run announces an AC-only system, polls once and then keeps polling at
// the configured interval until ctx is done. Clicks on the display are
// handled in the same loop.
func (m *Monitor) Run(ctx context.Context) error {
	logrus.Debugln("poll loop starts")

	m.Start()

	timer := time.NewTimer(m.untilNextPoll())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Debugln("poll loop stopped")
			return nil
		case <-m.clicks:
			m.Click()
		case <-timer.C:
			m.checkMissedPolls()
			m.Poll()
			timer.Reset(m.untilNextPoll())
		}
	}
}

// Start sends the AC-only notice, if any, and performs the first poll.
func (m *Monitor) Start() {
	if m.ACOnly() {
		logrus.Info("no battery found, running in AC only mode")
		m.send(notify.Alert{
			Message: powerinfo.ACOnlyMessage,
			Timeout: notify.DefaultTimeout,
		})
	}
	m.Poll()
}

// untilNextPoll re-reads the interval so a config reload takes effect on
// the next tick.
func (m *Monitor) untilNextPoll() time.Duration {
	now := time.Now()
	m.due = nextPoll(cron.Every(m.conf.UpdateInterval()), m.due, now)
	return m.due.Sub(now)
}

// nextPoll returns the poll time following due on the whole-second grid of
// sched, so the time spent polling does not shift later polls. When that
// time has already passed, e.g. after a suspend, the grid restarts at now.
func nextPoll(sched cron.Schedule, due, now time.Time) time.Time {
	if !due.IsZero() {
		if next := sched.Next(due); next.After(now) {
			return next
		}
	}
	return sched.Next(now)
}

func (m *Monitor) checkMissedPolls() {
	interval := m.conf.UpdateInterval()
	count := m.recorder.GetRecordsIn(missedPollWindow, interval)
	expected := int(missedPollWindow / interval)
	if expected > pollRecordCount {
		expected = pollRecordCount
	}

	// Polls are usually missed because the system was suspended.
	if count < expected-1 && !m.recorder.GetLastRecord().IsZero() {
		logrus.WithFields(logrus.Fields{
			"pollCount":     count,
			"expectedCount": expected,
			"recentRecords": formatRelativeTimes(m.recorder.GetRecords()),
		}).Debug("possibly missed polls")
	}
}

// Poll runs one resolve-classify-notify-display cycle. A poll that cannot
// read the battery changes nothing.
func (m *Monitor) Poll() {
	res, err := m.poll()
	if err != nil {
		if errors.Is(err, powerinfo.ErrInsufficientData) {
			logrus.WithError(err).Debug("poll skipped")
		} else {
			logrus.WithError(err).Warn("poll failed")
		}
		return
	}
	if res == nil {
		return
	}

	logrus.WithFields(logrus.Fields{
		"status":  res.Status.String(),
		"display": res.Display.String(),
		"percent": res.Percent,
		"alerts":  len(res.Alerts),
	}).Trace("poll done")
}

func (m *Monitor) poll() (*Result, error) {
	m.recorder.AddRecordNow()

	if m.ACOnly() {
		m.display.Update(powerinfo.ACOnlyMessage, powerinfo.ACOnlyIcon)
		m.setSnapshot(&powerinfo.Snapshot{
			ACOnly:    true,
			Message:   powerinfo.ACOnlyMessage,
			Icon:      powerinfo.ACOnlyIcon,
			UpdatedAt: time.Now(),
		})
		return nil, nil
	}

	status, percent, err := m.resolve()
	if err != nil {
		return nil, err
	}

	prev := m.tracker.Memory().LastStatus
	res := m.tracker.Observe(status, percent, m.conf.LowLevel(), m.conf.CriticalLevel())

	if prev == nil || *prev != status {
		from := ""
		if prev != nil {
			from = prev.String()
		}
		logrus.WithFields(logrus.Fields{
			"from":    from,
			"to":      status.String(),
			"percent": percent,
		}).Info("battery status changed")
		m.hub.Publish(events.StatusChanged, events.StatusChangedEvent{
			From:    from,
			To:      status.String(),
			Percent: percent,
			Ts:      time.Now().Unix(),
		})
	}

	for _, a := range res.Alerts {
		m.send(a)
	}

	m.display.Update(res.Message, res.Icon)
	m.setSnapshot(&powerinfo.Snapshot{
		BatteryID: m.supplies.Battery.ID,
		Status:    res.Status.String(),
		Display:   res.Display.String(),
		Percent:   res.Percent,
		Message:   res.Message,
		Icon:      res.Icon,
		UpdatedAt: time.Now(),
	})

	return &res, nil
}

// resolve reads status first. Missing and Unknown report 0%, Charged
// reports 100%.
func (m *Monitor) resolve() (powerinfo.RawStatus, int, error) {
	status, err := m.resolver.ResolveStatus()
	if err != nil {
		return status, 0, err
	}

	switch status {
	case powerinfo.Missing, powerinfo.Unknown:
		return status, 0, nil
	case powerinfo.Charged:
		return status, 100, nil
	}

	percent, err := m.resolver.ResolvePercentage()
	if err != nil {
		return status, 0, err
	}
	return status, percent, nil
}

func (m *Monitor) send(a notify.Alert) {
	m.hub.Publish(events.AlertSent, events.AlertEvent{
		Message:   a.Message,
		Icon:      a.Icon,
		TimeoutMs: a.Timeout.Milliseconds(),
		Ts:        time.Now().Unix(),
	})

	if m.conf.HideNotifications() {
		logrus.WithField("message", a.Message).Debug("notification hidden")
		return
	}

	if err := m.notifier.Send(a.Message, a.Icon, a.Timeout); err != nil {
		logrus.WithError(err).Error("failed to send notification")
	}
}

// Click runs the configured click command, if any.
func (m *Monitor) Click() {
	command := m.conf.LeftClickCommand()
	if command == "" {
		logrus.Debug("no click command configured")
		return
	}

	logrus.WithField("command", command).Debug("running click command")
	if err := m.launcher.Run(command); err != nil {
		logrus.WithError(err).Error("failed to run click command")
	}
}

func (m *Monitor) setSnapshot(s *powerinfo.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = s
}

// Snapshot returns the state shown by the last successful poll, or nil
// before the first one.
func (m *Monitor) Snapshot() *powerinfo.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return nil
	}
	s := *m.snapshot
	return &s
}

// Recorder returns the poll recorder.
func (m *Monitor) Recorder() *PollRecorder {
	return m.recorder
}
