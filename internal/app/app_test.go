package app

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/metrics"
)

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	m := &metrics.Metrics{IsHealthy: true}
	m.RecordRun(domain.RunReport{Stored: 2, Elapsed: time.Second}, nil)
	a := &Application{metrics: m}

	rec := httptest.NewRecorder()
	a.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected status: %v", body["status"])
	}
}

func TestHandleHealthUnhealthy(t *testing.T) {
	t.Parallel()

	m := &metrics.Metrics{IsHealthy: false, LastError: "db unreachable"}
	a := &Application{metrics: m}

	rec := httptest.NewRecorder()
	a.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 503 {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "error" || body["last_error"] != "db unreachable" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandleMetrics(t *testing.T) {
	t.Parallel()

	m := &metrics.Metrics{IsHealthy: true}
	m.RecordRun(domain.RunReport{Fetched: 4, Stored: 3, Skipped: 1}, nil)
	a := &Application{metrics: m}

	rec := httptest.NewRecorder()
	a.handleMetrics(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["articles_stored"] != float64(3) {
		t.Fatalf("unexpected stored counter: %v", body["articles_stored"])
	}
	if body["is_healthy"] != true {
		t.Fatalf("expected healthy snapshot, got %v", body)
	}
}
