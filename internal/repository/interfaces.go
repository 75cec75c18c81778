// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/ainews/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
// Createの呼び出し元が重複登録をユーザー向けエラーに変換するために使用する。
var ErrDuplicate = errors.New("duplicate key")

// SourceRepository はフィードソースの永続化インターフェース。
type SourceRepository interface {
	// FindByID は指定IDのフィードソースを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.FeedSource, error)

	// FindByPollingURL はポーリングURLでフィードソースを検索する。見つからない場合はnilを返す。
	FindByPollingURL(ctx context.Context, pollingURL string) (*model.FeedSource, error)

	// List は全フィードソースを作成日時昇順で返す。
	List(ctx context.Context) ([]*model.FeedSource, error)

	// ListActive はアクティブなフィードソースのみを返す。
	ListActive(ctx context.Context) ([]*model.FeedSource, error)

	// Create はフィードソースを作成する。
	// polling_urlが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, source *model.FeedSource) error

	// SetActive はフィードソースのアクティブフラグを更新する。
	SetActive(ctx context.Context, id string, active bool) error

	// DeleteByID は指定IDのフィードソースを削除する。
	// 関連するfeed_entriesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// EntryRepository は取り込み記事の永続化インターフェース。
type EntryRepository interface {
	// InsertIgnore は(feed_id, guid)一意制約に基づく原子的なinsert-or-ignoreを行う。
	// 挿入された場合はtrue、既存行によりスキップされた場合はfalseを返す。
	// check-then-insertではなくON CONFLICT DO NOTHINGで実装すること。
	InsertIgnore(ctx context.Context, entry *model.FeedEntry) (bool, error)

	// CountByFeed は指定フィードの記事数を返す。
	CountByFeed(ctx context.Context, feedID string) (int, error)

	// ListRecent は記事をpublish_date降順（NULLは末尾、created_at降順）で最大limit件返す。
	ListRecent(ctx context.Context, limit int) ([]*model.FeedEntry, error)
}

// PeriodicReportRepository は定期レポートの永続化インターフェース。
type PeriodicReportRepository interface {
	// FindByID は指定IDのレポートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.PeriodicReport, error)

	// Create はレポートを作成する。
	// (period_start_date, period_end_date, language)が重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, report *model.PeriodicReport) error

	// Update はレポートを全フィールド置換で更新する。部分更新は行わない。
	Update(ctx context.Context, report *model.PeriodicReport) error

	// DeleteByID は指定IDのレポートを削除する。
	DeleteByID(ctx context.Context, id string) error

	// ListRecent はレポートをcreated_at降順で最大limit件返す。
	// languageが空でない場合はその言語のレポートのみを返す。
	ListRecent(ctx context.Context, language string, limit int) ([]*model.PeriodicReport, error)
}

// SpecialReportRepository は特集レポートの永続化インターフェース。
type SpecialReportRepository interface {
	// FindByID は指定IDのレポートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.SpecialReport, error)

	// Create はレポートを作成する。
	Create(ctx context.Context, report *model.SpecialReport) error

	// Update はレポートを全フィールド置換で更新する。部分更新は行わない。
	Update(ctx context.Context, report *model.SpecialReport) error

	// DeleteByID は指定IDのレポートを削除する。
	DeleteByID(ctx context.Context, id string) error

	// ListRecent はレポートをcreated_at降順で最大limit件返す。
	ListRecent(ctx context.Context, limit int) ([]*model.SpecialReport, error)
}
