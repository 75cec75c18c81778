package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/ainews/internal/ingest"
	"github.com/hitoshi/ainews/internal/middleware"
	"github.com/hitoshi/ainews/internal/security"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(_ context.Context) error { return m.err }

func newTestRouter(t *testing.T, pingErr error) http.Handler {
	t.Helper()

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(limiter.Stop)

	log := slog.New(slog.DiscardHandler)

	return NewRouter(&RouterDeps{
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       limiter,
		LoggingMiddleware: middleware.NewLoggingMiddleware(log),
		SourceHandler:     NewSourceHandler(&mockDetector{pollingURL: "https://x.example.com/feed.xml"}, newMockSourceRepo()),
		IngestHandler:     NewIngestHandler(&mockIngestRunner{report: &ingest.Report{Success: true}}),
		ReportHandler:     NewReportHandler(newMockPeriodicRepo(), newMockSpecialRepo(), security.NewContentSanitizer()),
		FeedHandler:       NewFeedHandler(&mockRenderer{doc: minimalFeed}, nil, log, 3600),
		HealthHandler:     NewHealthHandler(&mockPinger{err: pingErr}),
	})
}

// 主要ルートが配線されていることを検証
func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/feed.xml", http.StatusOK},
		{http.MethodGet, "/api/sources", http.StatusOK},
		{http.MethodPost, "/api/ingest", http.StatusOK},
		{http.MethodGet, "/api/reports/periodic", http.StatusOK},
		{http.MethodGet, "/api/reports/special", http.StatusOK},
		{http.MethodGet, "/no-such-route", http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Result().StatusCode != tt.want {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, w.Result().StatusCode, tt.want)
		}
	}
}

// セキュリティヘッダーが全ルートに付与されることを検証
func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/feed.xml", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Result().Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

// APIルートにCORSヘッダーが付与されることを検証
func TestRouter_APIRoutesHaveCORS(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Result().Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

// フィードルートは全オリジン許可であることを検証
func TestRouter_FeedRouteIsPermissive(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/feed.xml", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Result().Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

// データベース疎通失敗時にヘルスチェックが503を返すことを検証
func TestRouter_HealthUnavailable(t *testing.T) {
	router := newTestRouter(t, fmt.Errorf("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Result().StatusCode)
	}
}
