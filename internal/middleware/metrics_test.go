package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type mockHTTPMetrics struct {
	statuses  []int
	latencies []time.Duration
}

func (m *mockHTTPMetrics) RecordHTTPStatus(statusCode int) {
	m.statuses = append(m.statuses, statusCode)
}

func (m *mockHTTPMetrics) RecordRequestLatency(duration time.Duration) {
	m.latencies = append(m.latencies, duration)
}

func TestMetricsMiddleware_RecordsStatusAndLatency(t *testing.T) {
	m := &mockHTTPMetrics{}
	handler := NewMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if len(m.statuses) != 1 || m.statuses[0] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [404]", m.statuses)
	}
	if len(m.latencies) != 1 {
		t.Errorf("latencies = %v, want 1 record", m.latencies)
	}
}

func TestMetricsMiddleware_DefaultsTo200(t *testing.T) {
	m := &mockHTTPMetrics{}
	handler := NewMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if len(m.statuses) != 1 || m.statuses[0] != http.StatusOK {
		t.Errorf("statuses = %v, want [200]", m.statuses)
	}
}
