package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/ainews/internal/model"
)

// PostgresEntryRepo はPostgreSQLを使用した取り込み記事リポジトリ。
type PostgresEntryRepo struct {
	db *sql.DB
}

// NewPostgresEntryRepo はPostgresEntryRepoを生成する。
func NewPostgresEntryRepo(db *sql.DB) *PostgresEntryRepo {
	return &PostgresEntryRepo{db: db}
}

// InsertIgnore は(feed_id, guid)一意制約に基づく原子的なinsert-or-ignoreを行う。
// 既存行がある場合は何も変更せずfalseを返す（refresh-on-conflictはしない）。
// 並行する取り込み実行同士の競合はこの1文で吸収される。
func (r *PostgresEntryRepo) InsertIgnore(ctx context.Context, entry *model.FeedEntry) (bool, error) {
	var publishDate sql.NullTime
	if entry.PublishDate != nil {
		publishDate = sql.NullTime{Time: *entry.PublishDate, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO feed_entries (id, feed_id, title, description, link, publish_date, guid, content, author, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (feed_id, guid) DO NOTHING`,
		entry.ID, entry.FeedID, entry.Title, nullString(entry.Description),
		entry.Link, publishDate, entry.GUID,
		nullString(entry.Content), nullString(entry.Author), entry.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("記事の挿入に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("挿入結果の取得に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// CountByFeed は指定フィードの記事数を返す。
func (r *PostgresEntryRepo) CountByFeed(ctx context.Context, feedID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feed_entries WHERE feed_id = $1`,
		feedID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("記事数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// ListRecent は記事をpublish_date降順（NULLは末尾）で最大limit件返す。
func (r *PostgresEntryRepo) ListRecent(ctx context.Context, limit int) ([]*model.FeedEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, feed_id, title, description, link, publish_date, guid, content, author, created_at
		 FROM feed_entries
		 ORDER BY publish_date DESC NULLS LAST, created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []*model.FeedEntry
	for rows.Next() {
		entry := &model.FeedEntry{}
		var description, content, author sql.NullString
		var publishDate sql.NullTime

		if err := rows.Scan(
			&entry.ID, &entry.FeedID, &entry.Title, &description,
			&entry.Link, &publishDate, &entry.GUID,
			&content, &author, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("記事の読み取りに失敗しました: %w", err)
		}

		entry.Description = nullStringValue(description)
		entry.Content = nullStringValue(content)
		entry.Author = nullStringValue(author)
		if publishDate.Valid {
			t := publishDate.Time
			entry.PublishDate = &t
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}

	return entries, nil
}

// compile-time interface check
var _ EntryRepository = (*PostgresEntryRepo)(nil)
