package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/ainews/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反エラーコード。
const uniqueViolation = "23505"

// isUniqueViolation はエラーが一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresSourceRepo はPostgreSQLを使用したフィードソースリポジトリ。
type PostgresSourceRepo struct {
	db *sql.DB
}

// NewPostgresSourceRepo はPostgresSourceRepoを生成する。
func NewPostgresSourceRepo(db *sql.DB) *PostgresSourceRepo {
	return &PostgresSourceRepo{db: db}
}

// FindByID は指定IDのフィードソースを取得する。見つからない場合はnilを返す。
func (r *PostgresSourceRepo) FindByID(ctx context.Context, id string) (*model.FeedSource, error) {
	source, err := r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, title, description, source_url, polling_url, active, created_at, updated_at
		 FROM feed_sources WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("フィードソースの取得に失敗しました: %w", err)
	}
	return source, nil
}

// FindByPollingURL はポーリングURLでフィードソースを検索する。見つからない場合はnilを返す。
func (r *PostgresSourceRepo) FindByPollingURL(ctx context.Context, pollingURL string) (*model.FeedSource, error) {
	source, err := r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, title, description, source_url, polling_url, active, created_at, updated_at
		 FROM feed_sources WHERE polling_url = $1`,
		pollingURL,
	))
	if err != nil {
		return nil, fmt.Errorf("ポーリングURLによるフィードソースの検索に失敗しました: %w", err)
	}
	return source, nil
}

// List は全フィードソースを作成日時昇順で返す。
func (r *PostgresSourceRepo) List(ctx context.Context) ([]*model.FeedSource, error) {
	return r.list(ctx,
		`SELECT id, title, description, source_url, polling_url, active, created_at, updated_at
		 FROM feed_sources ORDER BY created_at ASC`)
}

// ListActive はアクティブなフィードソースのみを返す。
func (r *PostgresSourceRepo) ListActive(ctx context.Context) ([]*model.FeedSource, error) {
	return r.list(ctx,
		`SELECT id, title, description, source_url, polling_url, active, created_at, updated_at
		 FROM feed_sources WHERE active = TRUE ORDER BY created_at ASC`)
}

// Create はフィードソースを作成する。polling_urlが重複する場合はErrDuplicateを返す。
func (r *PostgresSourceRepo) Create(ctx context.Context, source *model.FeedSource) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feed_sources (id, title, description, source_url, polling_url, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		source.ID, source.Title, nullString(source.Description),
		source.SourceURL, source.PollingURL, source.Active,
		source.CreatedAt, source.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("フィードソースの作成に失敗しました: %w", err)
	}
	return nil
}

// SetActive はフィードソースのアクティブフラグを更新する。
func (r *PostgresSourceRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE feed_sources SET active = $2, updated_at = now() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("アクティブフラグの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのフィードソースを削除する。関連記事はCASCADE削除される。
func (r *PostgresSourceRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM feed_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("フィードソースの削除に失敗しました: %w", err)
	}
	return nil
}

func (r *PostgresSourceRepo) list(ctx context.Context, query string) ([]*model.FeedSource, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("フィードソース一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sources []*model.FeedSource
	for rows.Next() {
		source := &model.FeedSource{}
		var description sql.NullString
		if err := rows.Scan(
			&source.ID, &source.Title, &description,
			&source.SourceURL, &source.PollingURL, &source.Active,
			&source.CreatedAt, &source.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("フィードソースの読み取りに失敗しました: %w", err)
		}
		source.Description = nullStringValue(description)
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フィードソース一覧の走査に失敗しました: %w", err)
	}

	return sources, nil
}

func (r *PostgresSourceRepo) scanOne(row *sql.Row) (*model.FeedSource, error) {
	source := &model.FeedSource{}
	var description sql.NullString

	err := row.Scan(
		&source.ID, &source.Title, &description,
		&source.SourceURL, &source.PollingURL, &source.Active,
		&source.CreatedAt, &source.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	source.Description = nullStringValue(description)
	return source, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ SourceRepository = (*PostgresSourceRepo)(nil)
