package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ainews/internal/ingest"
	"github.com/hitoshi/ainews/internal/model"
)

type mockIngestRunner struct {
	report    *ingest.Report
	err       error
	gotFeedID string
}

func (m *mockIngestRunner) Run(_ context.Context, feedID string) (*ingest.Report, error) {
	m.gotFeedID = feedID
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func newIngestRouter(runner IngestRunner) http.Handler {
	h := NewIngestHandler(runner)
	r := chi.NewRouter()
	r.Post("/api/ingest", h.TriggerAll)
	r.Post("/api/ingest/{id}", h.TriggerOne)
	return r
}

// 全ソース取り込みトリガーの結果レポート形式を検証
func TestTriggerAll_ReturnsReport(t *testing.T) {
	runner := &mockIngestRunner{report: &ingest.Report{
		Success: true,
		Results: []ingest.SourceResult{
			{FeedID: "feed-a", FeedTitle: "AI Weekly", ItemsCount: 2, Success: true},
			{FeedID: "feed-b", FeedTitle: "ML Blog", Success: false, Error: "HTTPステータス 503"},
		},
		TotalFeeds: 2,
	}}
	router := newIngestRouter(runner)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if runner.gotFeedID != "" {
		t.Errorf("feedID = %q, want empty (all sources)", runner.gotFeedID)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("response decode failed: %v", err)
	}
	if body["success"] != true {
		t.Error("success should be true even with per-source failures")
	}
	if body["totalFeeds"] != float64(2) {
		t.Errorf("totalFeeds = %v, want 2", body["totalFeeds"])
	}

	results := body["results"].([]any)
	first := results[0].(map[string]any)
	if first["feedId"] != "feed-a" || first["itemsCount"] != float64(2) {
		t.Errorf("first result = %v", first)
	}
	second := results[1].(map[string]any)
	if second["success"] != false || second["error"] == "" {
		t.Errorf("second result = %v", second)
	}
}

// 単一ソース指定のトリガーでIDが伝搬されることを検証
func TestTriggerOne_PassesFeedID(t *testing.T) {
	runner := &mockIngestRunner{report: &ingest.Report{Success: true, TotalFeeds: 1}}
	router := newIngestRouter(runner)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/feed-xyz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if runner.gotFeedID != "feed-xyz" {
		t.Errorf("feedID = %q, want feed-xyz", runner.gotFeedID)
	}
}

// 存在しないソース指定で404を返すことを検証
func TestTriggerOne_UnknownSource(t *testing.T) {
	runner := &mockIngestRunner{err: model.NewSourceNotFoundError("no-such")}
	router := newIngestRouter(runner)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/no-such", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Result().StatusCode)
	}
}

// レジストリ読み取り失敗で500を返すことを検証
func TestTriggerAll_RegistryFailure(t *testing.T) {
	runner := &mockIngestRunner{err: fmt.Errorf("ソースレジストリの読み取りに失敗: connection refused")}
	router := newIngestRouter(runner)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Result().StatusCode)
	}
}
