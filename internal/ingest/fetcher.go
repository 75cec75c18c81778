package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/ainews/internal/model"
)

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Fetcher は個別フィードソースのHTTPフェッチとパースを行う。
// SSRF検証つきクライアントで取得し、gofeedでRSS 2.0/Atomを共通の
// ParsedEntry形へ正規化する。
type Fetcher struct {
	ssrfGuard   SSRFValidator
	logger      *slog.Logger
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(
	ssrfGuard SSRFValidator,
	logger *slog.Logger,
	userAgent string,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	return &Fetcher{
		ssrfGuard:   ssrfGuard,
		logger:      logger,
		userAgent:   userAgent,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// FetchSource はフィードソースを取得してパース済み記事のリストを返す。
// HTTPエラー、タイムアウト、パース失敗はいずれもエラーとして返し、
// 呼び出し元（Runner）がソース単位の失敗として記録する。リトライはしない。
func (f *Fetcher) FetchSource(ctx context.Context, source *model.FeedSource) ([]model.ParsedEntry, error) {
	if err := f.ssrfGuard.ValidateURL(source.PollingURL); err != nil {
		return nil, fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.PollingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTPステータス %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("フィードのパースに失敗: %w", err)
	}

	entries := convertFeedItems(parsedFeed.Items)

	f.logger.Info("フィードソースのフェッチが完了しました",
		slog.String("feed_id", source.ID),
		slog.String("polling_url", source.PollingURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("items_parsed", len(entries)),
		slog.Int("items_raw", len(parsedFeed.Items)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return entries, nil
}
