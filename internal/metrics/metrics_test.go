package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			total := 0.0
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

// TestRecordNotepadCreated_IncrementsCounter は作成カウンタが種別ごとに増加することを検証する。
func TestRecordNotepadCreated_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNotepadCreated("guest")
	c.RecordNotepadCreated("guest")
	c.RecordNotepadCreated("premium")
	// 空文字はguestに分類される
	c.RecordNotepadCreated("")

	if got := counterValue(t, reg, "pastebridge_notepads_created_total"); got != 4 {
		t.Errorf("notepads_created_total = %v, want 4", got)
	}
}

// TestRecordNotepadExpired_AddsCount は削除件数の加算を検証する。
func TestRecordNotepadExpired_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNotepadExpired(7)
	c.RecordNotepadExpired(3)

	if got := counterValue(t, reg, "pastebridge_notepads_expired_total"); got != 10 {
		t.Errorf("notepads_expired_total = %v, want 10", got)
	}
}

// TestHandler_ExposesMetrics は/metricsエンドポイントの出力を検証する。
func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEntryAppended()
	c.RecordHTTPStatus(200)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	text := string(body)
	if !strings.Contains(text, "pastebridge_entries_appended_total 1") {
		t.Errorf("expected entries_appended_total in output:\n%s", text)
	}
	if !strings.Contains(text, `pastebridge_http_status_total{status_code="200"} 1`) {
		t.Errorf("expected http_status_total in output:\n%s", text)
	}
}
