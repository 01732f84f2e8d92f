// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordNotepadCreated(accountType string)
	RecordEntryAppended()
	RecordNotepadLinked()
	RecordNotepadExpired(count int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	notepadsCreated *prometheus.CounterVec
	entriesAppended prometheus.Counter
	notepadsLinked  prometheus.Counter
	notepadsExpired prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		notepadsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pastebridge_notepads_created_total",
			Help: "作成されたノートパッドの合計数（アカウント種別ごと）",
		}, []string{"account_type"}),
		entriesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pastebridge_entries_appended_total",
			Help: "追記されたエントリの合計数",
		}),
		notepadsLinked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pastebridge_notepads_linked_total",
			Help: "アカウントに連携されたノートパッドの合計数",
		}),
		notepadsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pastebridge_notepads_expired_total",
			Help: "クリーンアップで削除された期限切れノートパッドの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pastebridge_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pastebridge_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.notepadsCreated,
		c.entriesAppended,
		c.notepadsLinked,
		c.notepadsExpired,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordNotepadCreated はノートパッド作成を記録する。
func (c *Collector) RecordNotepadCreated(accountType string) {
	if accountType == "" {
		accountType = "guest"
	}
	c.notepadsCreated.WithLabelValues(accountType).Inc()
}

// RecordEntryAppended はエントリ追記を記録する。
func (c *Collector) RecordEntryAppended() {
	c.entriesAppended.Inc()
}

// RecordNotepadLinked はアカウント連携を記録する。
func (c *Collector) RecordNotepadLinked() {
	c.notepadsLinked.Inc()
}

// RecordNotepadExpired はクリーンアップで削除されたノートパッド数を記録する。
func (c *Collector) RecordNotepadExpired(count int) {
	c.notepadsExpired.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
