package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ainews/internal/model"
	"github.com/hitoshi/ainews/internal/repository"
)

// SourceFetcher はフィードソースのフェッチ・パースのインターフェース。
type SourceFetcher interface {
	FetchSource(ctx context.Context, source *model.FeedSource) ([]model.ParsedEntry, error)
}

// ContentSanitizer は保存前のHTMLサニタイズのインターフェース。
type ContentSanitizer interface {
	Sanitize(rawHTML string) string
}

// MetricsRecorder は取り込みメトリクス記録のインターフェース。
type MetricsRecorder interface {
	RecordFetchSuccess(feedID string)
	RecordFetchFailure(feedID string)
	RecordEntriesInserted(count int)
	RecordFetchLatency(duration time.Duration)
}

// Runner は取り込みバッチの実行を調整する。
// ソースごとにフェッチ→パース→insert-or-ignoreを行い、
// 1ソースの失敗が他のソースを巻き込まないことを保証する。
// semaphoreパターンで最大並列数を制御する。
type Runner struct {
	sourceRepo     repository.SourceRepository
	entryRepo      repository.EntryRepository
	fetcher        SourceFetcher
	sanitizer      ContentSanitizer
	metrics        MetricsRecorder
	logger         *slog.Logger
	maxConcurrency int
}

// NewRunner はRunnerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値4を使用する。
func NewRunner(
	sourceRepo repository.SourceRepository,
	entryRepo repository.EntryRepository,
	fetcher SourceFetcher,
	sanitizer ContentSanitizer,
	metrics MetricsRecorder,
	logger *slog.Logger,
	maxConcurrency int,
) *Runner {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Runner{
		sourceRepo:     sourceRepo,
		entryRepo:      entryRepo,
		fetcher:        fetcher,
		sanitizer:      sanitizer,
		metrics:        metrics,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Run は取り込みバッチを実行する。
// feedIDが空の場合は全アクティブソース、指定された場合はそのソースのみを対象にする。
// ソース単位の失敗はResultsに記録して継続し、エラーを返すのは
// レジストリ自体が読めない場合と指定IDのソースが存在しない場合のみ。
func (r *Runner) Run(ctx context.Context, feedID string) (*Report, error) {
	sources, err := r.loadSources(ctx, feedID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]SourceResult, len(sources))

	// semaphoreパターンで並列数を制御。失敗分離はソースごとの
	// ゴルーチン内で完結するため、並列化しても不変条件は保たれる
	sem := make(chan struct{}, r.maxConcurrency)
	var wg sync.WaitGroup

	for i, source := range sources {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, src *model.FeedSource) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = r.ingestSource(ctx, src)
		}(i, source)
	}

	wg.Wait()

	r.logger.Info("取り込みバッチが完了しました",
		slog.Int("total_feeds", len(sources)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return &Report{
		Success:    true,
		Results:    results,
		TotalFeeds: len(sources),
	}, nil
}

// loadSources は取り込み対象のソースを取得する。
func (r *Runner) loadSources(ctx context.Context, feedID string) ([]*model.FeedSource, error) {
	if feedID == "" {
		sources, err := r.sourceRepo.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("ソースレジストリの読み取りに失敗: %w", err)
		}
		return sources, nil
	}

	source, err := r.sourceRepo.FindByID(ctx, feedID)
	if err != nil {
		return nil, fmt.Errorf("ソースレジストリの読み取りに失敗: %w", err)
	}
	if source == nil {
		return nil, model.NewSourceNotFoundError(feedID)
	}
	return []*model.FeedSource{source}, nil
}

// ingestSource は1ソースの取り込みを行い、結果レコードを返す。
// フェッチ・パースの失敗はこのソースの失敗として記録し、他のソースには影響しない。
func (r *Runner) ingestSource(ctx context.Context, source *model.FeedSource) SourceResult {
	result := SourceResult{
		FeedID:    source.ID,
		FeedTitle: source.Title,
	}

	start := time.Now()
	entries, err := r.fetcher.FetchSource(ctx, source)
	if r.metrics != nil {
		r.metrics.RecordFetchLatency(time.Since(start))
	}
	if err != nil {
		r.logger.Warn("フィードソースの取り込みをスキップします",
			slog.String("feed_id", source.ID),
			slog.String("feed_title", source.Title),
			slog.String("error", err.Error()),
		)
		if r.metrics != nil {
			r.metrics.RecordFetchFailure(source.ID)
		}
		result.Error = err.Error()
		return result
	}

	inserted := r.persistEntries(ctx, source, entries)

	if r.metrics != nil {
		r.metrics.RecordFetchSuccess(source.ID)
		r.metrics.RecordEntriesInserted(inserted)
	}

	result.Success = true
	result.ItemsCount = len(entries)
	return result
}

// persistEntries はパース済み記事をinsert-or-ignoreで保存し、挿入件数を返す。
// 1記事の保存失敗はログに記録して残りの記事の処理を継続する。
// (feed_id, guid) 重複は成功扱いのno-opで、エラーではない。
func (r *Runner) persistEntries(ctx context.Context, source *model.FeedSource, entries []model.ParsedEntry) int {
	now := time.Now()
	inserted := 0

	for _, parsed := range entries {
		entry := &model.FeedEntry{
			ID:          uuid.New().String(),
			FeedID:      source.ID,
			Title:       parsed.Title,
			Description: r.sanitizer.Sanitize(parsed.Description),
			Link:        parsed.Link,
			PublishDate: parsed.PublishDate,
			GUID:        parsed.GUID,
			Content:     r.sanitizer.Sanitize(parsed.Content),
			Author:      parsed.Author,
			CreatedAt:   now,
		}

		ok, err := r.entryRepo.InsertIgnore(ctx, entry)
		if err != nil {
			r.logger.Error("記事の保存に失敗しました",
				slog.String("feed_id", source.ID),
				slog.String("feed_title", source.Title),
				slog.String("item_title", parsed.Title),
				slog.String("guid", parsed.GUID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			inserted++
		}
	}

	r.logger.Info("記事の保存が完了しました",
		slog.String("feed_id", source.ID),
		slog.Int("items_parsed", len(entries)),
		slog.Int("items_inserted", inserted),
		slog.Int("items_skipped", len(entries)-inserted),
	)

	return inserted
}
