// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector は取り込みパイプラインとフィード生成のメトリクスを収集する。
type Collector struct {
	fetchSuccess    prometheus.Counter
	fetchFail       prometheus.Counter
	entriesInserted prometheus.Counter
	fetchLatency    prometheus.Histogram
	feedRender      prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ainews_fetch_success_total",
			Help: "フィードフェッチ成功の合計数",
		}),
		fetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ainews_fetch_fail_total",
			Help: "フィードフェッチ失敗（HTTPエラー・タイムアウト・パース失敗）の合計数",
		}),
		entriesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ainews_entries_inserted_total",
			Help: "新規挿入された記事の合計数（重複スキップは含まない）",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ainews_fetch_latency_seconds",
			Help:    "フィードフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		feedRender: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ainews_feed_render_seconds",
			Help:    "アグリゲートフィード生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.entriesInserted,
		c.fetchLatency,
		c.feedRender,
	)

	return c
}

// RecordFetchSuccess はフェッチ成功を記録する。
func (c *Collector) RecordFetchSuccess(feedID string) {
	c.fetchSuccess.Inc()
}

// RecordFetchFailure はフェッチ失敗を記録する。
func (c *Collector) RecordFetchFailure(feedID string) {
	c.fetchFail.Inc()
}

// RecordEntriesInserted は新規挿入された記事数を記録する。
func (c *Collector) RecordEntriesInserted(count int) {
	c.entriesInserted.Add(float64(count))
}

// RecordFetchLatency はフェッチのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordFeedRenderDuration はアグリゲートフィード生成のレイテンシを記録する。
func (c *Collector) RecordFeedRenderDuration(duration time.Duration) {
	c.feedRender.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
