// internal/monitoring/monitoring_test.go
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Recorder(t *testing.T) {
	m := NewMetrics(MetricsConfig{})

	m.ControlDiscovered("scoped")
	m.ControlDiscovered("scoped")
	m.ControlDiscovered("document")
	m.ControlSkipped("duplicate")
	m.PanelResolved("linked-id")
	m.PanelResolved("linked-id")
	m.ActivationFailed()
	m.RecordEmitted()
	m.RecordOutput("json", 5, nil)
	m.RecordOutput("sqlite", 0, errors.New("disk full"))

	testCases := []struct {
		name string
		got  float64
		want float64
	}{
		{"scoped discovered", testutil.ToFloat64(m.controlsDiscovered.WithLabelValues("scoped")), 2},
		{"document discovered", testutil.ToFloat64(m.controlsDiscovered.WithLabelValues("document")), 1},
		{"duplicate skipped", testutil.ToFloat64(m.controlsSkipped.WithLabelValues("duplicate")), 1},
		{"linked-id resolved", testutil.ToFloat64(m.panelsResolved.WithLabelValues("linked-id")), 2},
		{"activation failures", testutil.ToFloat64(m.activationFailures), 1},
		{"records emitted", testutil.ToFloat64(m.recordsEmitted), 1},
		{"records written", testutil.ToFloat64(m.recordsWritten.WithLabelValues("json")), 5},
		{"output errors", testutil.ToFloat64(m.outputErrors.WithLabelValues("sqlite")), 1},
	}
	for _, tc := range testCases {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// two instances must not collide on registration
	a := NewMetrics(MetricsConfig{})
	b := NewMetrics(MetricsConfig{})
	a.RecordEmitted()

	if got := testutil.ToFloat64(b.recordsEmitted); got != 0 {
		t.Errorf("second registry saw %v records", got)
	}
}

func TestServer_Routes(t *testing.T) {
	m := NewMetrics(MetricsConfig{Namespace: "test"})
	m.RecordEmitted()
	s := NewServer(m, "run-1", "ev-faq", nil)
	s.SetStatus(RunStatusRunning, "")

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "test_pipeline_records_emitted_total 1") {
		t.Errorf("metrics body missing counter:\n%s", body)
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if h.RunID != "run-1" || h.Status != RunStatusRunning || h.Job != "ev-faq" {
		t.Errorf("unexpected health: %+v", h)
	}

	s.SetStatus(RunStatusFailed, "browser crashed")
	resp2, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", resp2.StatusCode)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := NewServer(NewMetrics(MetricsConfig{}), "run-2", "job", nil)
	addr, err := s.Start("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}
