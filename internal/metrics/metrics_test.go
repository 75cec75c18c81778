package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scrape status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("scrape body read failed: %v", err)
	}
	return string(body)
}

// カウンタの記録がスクレイプ出力に反映されることを検証
func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchSuccess("feed-1")
	c.RecordFetchSuccess("feed-2")
	c.RecordFetchFailure("feed-3")
	c.RecordEntriesInserted(5)

	body := scrape(t, reg)

	tests := []struct {
		metric string
		want   string
	}{
		{"ainews_fetch_success_total", "ainews_fetch_success_total 2"},
		{"ainews_fetch_fail_total", "ainews_fetch_fail_total 1"},
		{"ainews_entries_inserted_total", "ainews_entries_inserted_total 5"},
	}

	for _, tt := range tests {
		if !strings.Contains(body, tt.want) {
			t.Errorf("%s: output should contain %q", tt.metric, tt.want)
		}
	}
}

// ヒストグラムの観測値が記録されることを検証
func TestCollector_Histograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchLatency(150 * time.Millisecond)
	c.RecordFeedRenderDuration(20 * time.Millisecond)

	body := scrape(t, reg)

	if !strings.Contains(body, "ainews_fetch_latency_seconds_count 1") {
		t.Error("fetch latency observation should be recorded")
	}
	if !strings.Contains(body, "ainews_feed_render_seconds_count 1") {
		t.Error("feed render observation should be recorded")
	}
}
