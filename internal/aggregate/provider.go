// Package aggregate は対外公開用のアグリゲートフィードを生成する。
//
// 取り込み記事・定期レポート・特集レポートの3種のプロバイダから
// 候補アイテムを集め、公開日時降順にマージして1本のRSS 2.0文書として出力する。
// どのプロバイダを有効にするかは設定(AGGREGATE_PROVIDERS)で列挙する。
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/ainews/internal/model"
	"github.com/hitoshi/ainews/internal/repository"
)

// Item はアグリゲートフィードの1アイテムを表す計算上の中間形。
// 永続化されず、リクエストごとに各プロバイダが生成する。
type Item struct {
	Title       string
	Link        string
	Description string
	PublishDate time.Time
	GUID        string
	Content     string // CDATAで出力するサニタイズ済みHTML。空の場合は出力しない
}

// Provider はアグリゲートフィードへの候補アイテム供給源のインターフェース。
type Provider interface {
	// Name は設定(AGGREGATE_PROVIDERS)で指定するプロバイダ名を返す。
	Name() string

	// Fetch は候補アイテムを最大limit件返す。
	// langが空でない場合、言語を持つプロバイダはその言語に絞る。
	Fetch(ctx context.Context, lang string, limit int) ([]Item, error)
}

// Summarizer はレポート・記事本文からdescription用の要約を生成する。
type Summarizer interface {
	Summarize(label, htmlContent string) string
}

// --- 定期レポートプロバイダ ---

// PeriodicReportProvider は定期レポートをアグリゲートフィードに供給する。
type PeriodicReportProvider struct {
	repo       repository.PeriodicReportRepository
	summarizer Summarizer
	baseURL    string
}

// NewPeriodicReportProvider はPeriodicReportProviderの新しいインスタンスを生成する。
func NewPeriodicReportProvider(repo repository.PeriodicReportRepository, summarizer Summarizer, baseURL string) *PeriodicReportProvider {
	return &PeriodicReportProvider{repo: repo, summarizer: summarizer, baseURL: baseURL}
}

// Name はプロバイダ名 "periodic" を返す。
func (p *PeriodicReportProvider) Name() string { return "periodic" }

// Fetch は直近の定期レポートをアイテムに変換して返す。
// descriptionには対象期間のラベルを前置する。
func (p *PeriodicReportProvider) Fetch(ctx context.Context, lang string, limit int) ([]Item, error) {
	reports, err := p.repo.ListRecent(ctx, lang, limit)
	if err != nil {
		return nil, fmt.Errorf("定期レポートの取得に失敗しました: %w", err)
	}

	items := make([]Item, 0, len(reports))
	for _, report := range reports {
		label := fmt.Sprintf("【%s〜%s】",
			report.PeriodStartDate.Format("2006-01-02"),
			report.PeriodEndDate.Format("2006-01-02"),
		)
		link := fmt.Sprintf("%s/reports/%s", p.baseURL, report.ID)
		items = append(items, Item{
			Title:       report.Title,
			Link:        link,
			Description: p.summarizer.Summarize(label, report.HTMLContent),
			PublishDate: report.CreatedAt,
			GUID:        link,
			Content:     report.HTMLContent,
		})
	}
	return items, nil
}

// --- 特集レポートプロバイダ ---

// SpecialReportProvider は特集レポートをアグリゲートフィードに供給する。
type SpecialReportProvider struct {
	repo       repository.SpecialReportRepository
	summarizer Summarizer
	baseURL    string
}

// NewSpecialReportProvider はSpecialReportProviderの新しいインスタンスを生成する。
func NewSpecialReportProvider(repo repository.SpecialReportRepository, summarizer Summarizer, baseURL string) *SpecialReportProvider {
	return &SpecialReportProvider{repo: repo, summarizer: summarizer, baseURL: baseURL}
}

// Name はプロバイダ名 "special" を返す。
func (p *SpecialReportProvider) Name() string { return "special" }

// Fetch は直近の特集レポートをアイテムに変換して返す。
// descriptionにはカテゴリのラベルを前置する。言語フィルタは持たないためlangは無視する。
func (p *SpecialReportProvider) Fetch(ctx context.Context, _ string, limit int) ([]Item, error) {
	reports, err := p.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("特集レポートの取得に失敗しました: %w", err)
	}

	items := make([]Item, 0, len(reports))
	for _, report := range reports {
		label := "【特集】"
		if report.Category != "" {
			label = fmt.Sprintf("【特集: %s】", report.Category)
		}
		link := fmt.Sprintf("%s/specials/%s", p.baseURL, report.ID)
		items = append(items, Item{
			Title:       report.Title,
			Link:        link,
			Description: p.summarizer.Summarize(label, report.HTMLContent),
			PublishDate: report.CreatedAt,
			GUID:        link,
			Content:     report.HTMLContent,
		})
	}
	return items, nil
}

// --- 取り込み記事プロバイダ ---

// EntryProvider は取り込み済みの記事をアグリゲートフィードに供給する。
type EntryProvider struct {
	repo       repository.EntryRepository
	summarizer Summarizer
}

// NewEntryProvider はEntryProviderの新しいインスタンスを生成する。
func NewEntryProvider(repo repository.EntryRepository, summarizer Summarizer) *EntryProvider {
	return &EntryProvider{repo: repo, summarizer: summarizer}
}

// Name はプロバイダ名 "entries" を返す。
func (p *EntryProvider) Name() string { return "entries" }

// Fetch は直近の取り込み記事をアイテムに変換して返す。
// publish_dateがNULLの記事は取り込み日時(created_at)で順序づける。
func (p *EntryProvider) Fetch(ctx context.Context, _ string, limit int) ([]Item, error) {
	entries, err := p.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("取り込み記事の取得に失敗しました: %w", err)
	}

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		publishDate := entry.CreatedAt
		if entry.PublishDate != nil {
			publishDate = *entry.PublishDate
		}
		items = append(items, Item{
			Title:       entry.Title,
			Link:        entry.Link,
			Description: p.summarizer.Summarize("", entryBody(entry)),
			PublishDate: publishDate,
			GUID:        entry.Link,
			Content:     entry.Content,
		})
	}
	return items, nil
}

// entryBody は要約に使う記事本文を返す。descriptionを優先し、なければcontentで代用する。
func entryBody(entry *model.FeedEntry) string {
	if entry.Description != "" {
		return entry.Description
	}
	return entry.Content
}

var _ Provider = (*PeriodicReportProvider)(nil)
var _ Provider = (*SpecialReportProvider)(nil)
var _ Provider = (*EntryProvider)(nil)
