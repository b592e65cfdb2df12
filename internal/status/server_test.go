package status

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tutorial-orchestrator/internal/platform/metrics"
	"tutorial-orchestrator/internal/tutorial"
)

func newTestServer(snap SnapshotFunc, met *metrics.Metrics) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	var update func()
	if met != nil {
		update = func() { met.SetCaptureOpen(1) }
	}
	return New(":0", snap, met, update, log)
}

func TestStatusEndpoint(t *testing.T) {
	snap := func() tutorial.RunSnapshot {
		return tutorial.RunSnapshot{
			RunID:            "01TESTRUN",
			Topic:            "decorators",
			State:            tutorial.StateCapturing,
			Mode:             tutorial.NarrationParallel,
			SegmentsExecuted: 2,
			ClipsRecorded:    2,
		}
	}
	srv := newTestServer(snap, metrics.New())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var got tutorial.RunSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if got.RunID != "01TESTRUN" || got.State != tutorial.StateCapturing || got.SegmentsExecuted != 2 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	met := metrics.New()
	met.IncSegmentsExecuted()
	srv := newTestServer(func() tutorial.RunSnapshot { return tutorial.RunSnapshot{} }, met)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "tutorial_segments_executed_total 1") {
		t.Errorf("metrics body missing executed counter:\n%s", body)
	}
	// The gauge refresher runs before each scrape.
	if !strings.Contains(body, "tutorial_capture_open 1") {
		t.Errorf("metrics body missing refreshed gauge:\n%s", body)
	}
}

func TestMetricsEndpointDisabledWithoutMetrics(t *testing.T) {
	srv := newTestServer(func() tutorial.RunSnapshot { return tutorial.RunSnapshot{} }, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
