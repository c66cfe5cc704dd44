package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charlie0129/batticon/pkg/config"
	"github.com/charlie0129/batticon/pkg/events"
	"github.com/charlie0129/batticon/pkg/powerinfo"
	"github.com/charlie0129/batticon/pkg/powersupply"
	"github.com/charlie0129/batticon/pkg/utils/ptr"
	"github.com/charlie0129/batticon/pkg/version"
)

func newTestServer(t *testing.T, root string) (*Server, *Monitor) {
	t.Helper()

	conf := config.NewFileFromConfig(&config.RawFileConfig{
		SysfsPath: ptr.To(root),
	}, "")
	hub := events.NewEventHub()
	m := NewMonitor(MonitorOptions{
		Config:   conf,
		Supplies: testBattery,
		Resolver: &scriptedResolver{steps: []step{{status: powerinfo.Discharging, percent: 42}}},
		Hub:      hub,
	})
	return NewServer(conf, m, hub), m
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestGetStatus(t *testing.T) {
	s, m := newTestServer(t, t.TempDir())

	if w := get(t, s, "/status"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /status before first poll = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	m.Start()

	w := get(t, s, "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /status = %d: %s", w.Code, w.Body.String())
	}
	var snap powerinfo.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Status != "Discharging" || snap.Percent != 42 || snap.Message != "Discharging (42% remaining)" {
		t.Errorf("snapshot = %+v", snap)
	}

	w = get(t, s, "/polls")
	var polls []string
	if err := json.Unmarshal(w.Body.Bytes(), &polls); err != nil {
		t.Fatal(err)
	}
	if len(polls) != 1 {
		t.Errorf("GET /polls = %v, want one record", polls)
	}
}

func TestGetPowerSupplies(t *testing.T) {
	root := t.TempDir()
	for name, typ := range map[string]string{"AC": "Mains\n", "BAT0": "Battery\n", "hidpp_battery_0": "USB\n"} {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "type"), []byte(typ), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s, _ := newTestServer(t, root)
	w := get(t, s, "/power-supplies")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /power-supplies = %d: %s", w.Code, w.Body.String())
	}
	var entries []powersupply.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %+v, want AC and BAT0", entries)
	}

	s, _ = newTestServer(t, filepath.Join(root, "missing"))
	if w := get(t, s, "/power-supplies"); w.Code != http.StatusInternalServerError {
		t.Errorf("GET /power-supplies on missing root = %d", w.Code)
	}
}

func TestGetVersionAndConfig(t *testing.T) {
	s, _ := newTestServer(t, "/sys/class/power_supply")

	w := get(t, s, "/version")
	var v string
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v != version.Version {
		t.Errorf("GET /version = %q, want %q", v, version.Version)
	}

	w = get(t, s, "/config")
	var raw config.RawFileConfig
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if raw.LowLevel == nil || *raw.LowLevel != 20 || raw.UpdateInterval == nil || *raw.UpdateInterval != 5 {
		t.Errorf("GET /config = %s", w.Body.String())
	}
}
