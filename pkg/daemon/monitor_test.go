package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/charlie0129/batticon/pkg/config"
	"github.com/charlie0129/batticon/pkg/events"
	"github.com/charlie0129/batticon/pkg/powerinfo"
	"github.com/charlie0129/batticon/pkg/powersupply"
	"github.com/charlie0129/batticon/pkg/utils/ptr"
)

type sentAlert struct {
	text    string
	icon    string
	timeout time.Duration
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentAlert
	err  error
}

func (f *fakeNotifier) Send(text, icon string, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentAlert{text, icon, timeout})
	return f.err
}

func (f *fakeNotifier) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		out = append(out, s.text)
	}
	return out
}

type fakeLauncher struct {
	mu   sync.Mutex
	runs []string
}

func (f *fakeLauncher) Run(command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, command)
	return nil
}

func (f *fakeLauncher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

type fakeDisplay struct {
	tooltip string
	icon    string
	updates int
}

func (f *fakeDisplay) Update(tooltip, icon string) {
	f.tooltip = tooltip
	f.icon = icon
	f.updates++
}

// scriptedResolver returns one scripted step per poll.
type scriptedResolver struct {
	steps        []step
	i            int
	statusCalls  int
	percentCalls int
}

type step struct {
	status  powerinfo.RawStatus
	percent int
	fail    bool
}

func (r *scriptedResolver) ResolveStatus() (powerinfo.RawStatus, error) {
	r.statusCalls++
	s := r.steps[r.i]
	if s.fail {
		r.i++
		return powerinfo.Unknown, pkgerrors.Wrap(powerinfo.ErrInsufficientData, "status unreadable")
	}
	if s.status == powerinfo.Missing || s.status == powerinfo.Unknown || s.status == powerinfo.Charged {
		r.i++
	}
	return s.status, nil
}

func (r *scriptedResolver) ResolvePercentage() (int, error) {
	r.percentCalls++
	s := r.steps[r.i]
	r.i++
	return s.percent, nil
}

func testConfig(hide bool, command string) config.Config {
	return config.NewFileFromConfig(&config.RawFileConfig{
		UpdateInterval:    ptr.To(1),
		LowLevel:          ptr.To(20),
		CriticalLevel:     ptr.To(5),
		HideNotifications: ptr.To(hide),
		LeftClickCommand:  ptr.To(command),
	}, "")
}

var testBattery = &powersupply.Supplies{
	Battery: &powersupply.Ref{ID: "BAT0", Path: "/nonexistent/BAT0"},
}

func TestMonitorPoll(t *testing.T) {
	resolver := &scriptedResolver{steps: []step{
		{status: powerinfo.Charging, percent: 80},
		{status: powerinfo.Charging, percent: 75},
		{status: powerinfo.Discharging, percent: 15},
		{fail: true},
		{status: powerinfo.Discharging, percent: 15},
		{status: powerinfo.Discharging, percent: 4},
		{status: powerinfo.Discharging, percent: 4},
	}}
	notifier := &fakeNotifier{}
	display := &fakeDisplay{}
	hub := events.NewEventHub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	m := NewMonitor(MonitorOptions{
		Config:   testConfig(false, ""),
		Supplies: testBattery,
		Resolver: resolver,
		Notifier: notifier,
		Display:  display,
		Hub:      hub,
	})

	m.Start()
	for range resolver.steps[1:] {
		m.Poll()
	}

	want := []string{
		"Charging (80% remaining)",
		"Discharging (15% remaining)",
		"Level is low! (15% remaining)",
		"Level is critical! (4% remaining)",
	}
	got := notifier.texts()
	if len(got) != len(want) {
		t.Fatalf("sent = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if display.tooltip != "Level is critical! (4% remaining)" {
		t.Errorf("tooltip = %q", display.tooltip)
	}
	// The failed poll does not update the display.
	if display.updates != len(resolver.steps)-1 {
		t.Errorf("display updates = %d, want %d", display.updates, len(resolver.steps)-1)
	}

	snap := m.Snapshot()
	if snap == nil || snap.Display != "CriticalLevel" || snap.Percent != 4 || snap.BatteryID != "BAT0" {
		t.Errorf("snapshot = %+v", snap)
	}

	var statusChanges, alerts int
	for len(sub) > 0 {
		ev := <-sub
		switch ev.Name {
		case events.StatusChanged:
			statusChanges++
		case events.AlertSent:
			alerts++
		}
	}
	if statusChanges != 2 || alerts != 4 {
		t.Errorf("events: %d status changes, %d alerts, want 2 and 4", statusChanges, alerts)
	}
}

func TestMonitorTransientFailureKeepsState(t *testing.T) {
	resolver := &scriptedResolver{steps: []step{
		{status: powerinfo.Discharging, percent: 30},
		{fail: true},
		{fail: true},
		{status: powerinfo.Discharging, percent: 29},
	}}
	notifier := &fakeNotifier{}
	display := &fakeDisplay{}

	m := NewMonitor(MonitorOptions{
		Config:   testConfig(false, ""),
		Supplies: testBattery,
		Resolver: resolver,
		Notifier: notifier,
		Display:  display,
	})

	m.Start()
	before := m.Snapshot()
	m.Poll()
	m.Poll()
	if got := m.Snapshot(); !got.UpdatedAt.Equal(before.UpdatedAt) || display.tooltip != "Discharging (30% remaining)" {
		t.Errorf("failed polls changed state: snapshot %+v, tooltip %q", got, display.tooltip)
	}
	m.Poll()

	if got := notifier.texts(); len(got) != 1 {
		t.Errorf("sent = %q, want a single discharging alert", got)
	}
	if display.tooltip != "Discharging (29% remaining)" {
		t.Errorf("tooltip = %q", display.tooltip)
	}
}

func TestMonitorACOnly(t *testing.T) {
	resolver := &scriptedResolver{}
	notifier := &fakeNotifier{}
	display := &fakeDisplay{}

	m := NewMonitor(MonitorOptions{
		Config:   testConfig(false, ""),
		Supplies: &powersupply.Supplies{AC: &powersupply.Ref{ID: "AC", Path: "/nonexistent/AC"}},
		Resolver: resolver,
		Notifier: notifier,
		Display:  display,
	})

	m.Start()
	for i := 0; i < 5; i++ {
		m.Poll()
	}

	if got := notifier.texts(); len(got) != 1 || got[0] != powerinfo.ACOnlyMessage {
		t.Errorf("sent = %q, want exactly one AC only notice", got)
	}
	if notifier.sent[0].icon != "" || notifier.sent[0].timeout != 3*time.Second {
		t.Errorf("AC only notice = %+v", notifier.sent[0])
	}
	if resolver.statusCalls != 0 || resolver.percentCalls != 0 {
		t.Errorf("resolver called %d/%d times in AC only mode", resolver.statusCalls, resolver.percentCalls)
	}
	if display.tooltip != powerinfo.ACOnlyMessage || display.icon != powerinfo.ACOnlyIcon {
		t.Errorf("display = %q/%q", display.tooltip, display.icon)
	}
	if snap := m.Snapshot(); snap == nil || !snap.ACOnly {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestMonitorPercentForStatesWithoutLevel(t *testing.T) {
	resolver := &scriptedResolver{steps: []step{
		{status: powerinfo.Missing},
		{status: powerinfo.Charged},
		{status: powerinfo.Unknown},
	}}
	notifier := &fakeNotifier{}

	m := NewMonitor(MonitorOptions{
		Config:   testConfig(false, ""),
		Supplies: testBattery,
		Resolver: resolver,
		Notifier: notifier,
	})

	m.Start()
	if snap := m.Snapshot(); snap.Percent != 0 || snap.Icon != "battery-missing" {
		t.Errorf("missing snapshot = %+v", snap)
	}
	if notifier.sent[0].timeout != 0 {
		t.Errorf("missing alert timeout = %v, want 0", notifier.sent[0].timeout)
	}
	m.Poll()
	if snap := m.Snapshot(); snap.Percent != 100 || snap.Message != "Fully charged!" {
		t.Errorf("charged snapshot = %+v", snap)
	}
	m.Poll()
	if snap := m.Snapshot(); snap.Percent != 0 || snap.Message != "Status unknown!" {
		t.Errorf("unknown snapshot = %+v", snap)
	}
	if resolver.percentCalls != 0 {
		t.Errorf("ResolvePercentage called %d times", resolver.percentCalls)
	}
}

func TestMonitorHideNotifications(t *testing.T) {
	resolver := &scriptedResolver{steps: []step{
		{status: powerinfo.Discharging, percent: 3},
	}}
	notifier := &fakeNotifier{}
	hub := events.NewEventHub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	m := NewMonitor(MonitorOptions{
		Config:   testConfig(true, ""),
		Supplies: testBattery,
		Resolver: resolver,
		Notifier: notifier,
		Hub:      hub,
	})
	m.Start()

	if got := notifier.texts(); len(got) != 0 {
		t.Errorf("sent = %q while notifications are hidden", got)
	}
	// Alerts are still decided and published.
	if len(sub) != 4 {
		t.Errorf("published %d events, want 4", len(sub))
	}
	if snap := m.Snapshot(); snap.Display != "CriticalLevel" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestMonitorNotifierErrorIsNotFatal(t *testing.T) {
	resolver := &scriptedResolver{steps: []step{
		{status: powerinfo.Charging, percent: 50},
		{status: powerinfo.Discharging, percent: 50},
	}}
	notifier := &fakeNotifier{err: errors.New("notify-send: not found")}

	m := NewMonitor(MonitorOptions{
		Config:   testConfig(false, ""),
		Supplies: testBattery,
		Resolver: resolver,
		Notifier: notifier,
	})
	m.Start()
	m.Poll()

	if got := notifier.texts(); len(got) != 2 {
		t.Errorf("sent = %q, want 2 attempts", got)
	}
	if mem := m.tracker.Memory(); mem.LastStatus == nil || *mem.LastStatus != powerinfo.Discharging {
		t.Errorf("memory = %+v", mem)
	}
}

func TestMonitorClick(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    int
	}{
		{name: "configured command", command: "gnome-power-statistics", want: 1},
		{name: "no command", command: "", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			launcher := &fakeLauncher{}
			m := NewMonitor(MonitorOptions{
				Config:   testConfig(false, tt.command),
				Launcher: launcher,
			})
			m.Click()
			if got := launcher.count(); got != tt.want {
				t.Errorf("launcher runs = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMonitorRun(t *testing.T) {
	resolver := &scriptedResolver{steps: []step{
		{status: powerinfo.Charging, percent: 50},
		{status: powerinfo.Charging, percent: 50},
		{status: powerinfo.Charging, percent: 50},
	}}
	launcher := &fakeLauncher{}
	clicks := make(chan struct{})

	m := NewMonitor(MonitorOptions{
		Config:   testConfig(false, "xterm"),
		Supplies: testBattery,
		Resolver: resolver,
		Launcher: launcher,
		Clicks:   clicks,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	clicks <- struct{}{}
	clicks <- struct{}{}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if got := launcher.count(); got != 2 {
		t.Errorf("launcher runs = %d, want 2", got)
	}
	if m.Snapshot() == nil {
		t.Error("no initial poll before the first interval")
	}
}

func TestNextPoll(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched := cron.Every(5 * time.Second)

	tests := []struct {
		name string
		due  time.Time
		now  time.Time
		want time.Time
	}{
		{
			name: "first poll aligns to whole seconds",
			now:  base.Add(300 * time.Millisecond),
			want: base.Add(5 * time.Second),
		},
		{
			name: "slow poll does not shift the grid",
			due:  base.Add(5 * time.Second),
			now:  base.Add(5*time.Second + 900*time.Millisecond),
			want: base.Add(10 * time.Second),
		},
		{
			name: "next slot already reached restarts from now",
			due:  base.Add(5 * time.Second),
			now:  base.Add(10 * time.Second),
			want: base.Add(15 * time.Second),
		},
		{
			name: "after suspend restarts from now",
			due:  base.Add(5 * time.Second),
			now:  base.Add(2*time.Minute + 100*time.Millisecond),
			want: base.Add(2*time.Minute + 5*time.Second),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextPoll(sched, tt.due, tt.now); !got.Equal(tt.want) {
				t.Errorf("nextPoll() = %v, want %v", got, tt.want)
			}
		})
	}
}
