package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/ainews/internal/model"
)

// PostgresSpecialReportRepo はPostgreSQLを使用した特集レポートリポジトリ。
// tagsカラムはtext[]で、pq.Arrayで読み書きする。
type PostgresSpecialReportRepo struct {
	db *sql.DB
}

// NewPostgresSpecialReportRepo はPostgresSpecialReportRepoを生成する。
func NewPostgresSpecialReportRepo(db *sql.DB) *PostgresSpecialReportRepo {
	return &PostgresSpecialReportRepo{db: db}
}

// FindByID は指定IDのレポートを取得する。見つからない場合はnilを返す。
func (r *PostgresSpecialReportRepo) FindByID(ctx context.Context, id string) (*model.SpecialReport, error) {
	report := &model.SpecialReport{}
	var category sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, html_content, category, tags, created_at, updated_at
		 FROM special_reports WHERE id = $1`,
		id,
	).Scan(
		&report.ID, &report.Title, &report.HTMLContent,
		&category, pq.Array(&report.Tags),
		&report.CreatedAt, &report.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("特集レポートの取得に失敗しました: %w", err)
	}

	report.Category = nullStringValue(category)
	return report, nil
}

// Create はレポートを作成する。
func (r *PostgresSpecialReportRepo) Create(ctx context.Context, report *model.SpecialReport) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO special_reports (id, title, html_content, category, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.ID, report.Title, report.HTMLContent,
		nullString(report.Category), pq.Array(report.Tags),
		report.CreatedAt, report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("特集レポートの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はレポートを全フィールド置換で更新する。部分更新は行わない。
func (r *PostgresSpecialReportRepo) Update(ctx context.Context, report *model.SpecialReport) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE special_reports SET
		    title = $2, html_content = $3, category = $4, tags = $5, updated_at = $6
		 WHERE id = $1`,
		report.ID, report.Title, report.HTMLContent,
		nullString(report.Category), pq.Array(report.Tags),
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("特集レポートの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのレポートを削除する。
func (r *PostgresSpecialReportRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM special_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("特集レポートの削除に失敗しました: %w", err)
	}
	return nil
}

// ListRecent はレポートをcreated_at降順で最大limit件返す。
func (r *PostgresSpecialReportRepo) ListRecent(ctx context.Context, limit int) ([]*model.SpecialReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, html_content, category, tags, created_at, updated_at
		 FROM special_reports ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("特集レポート一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reports []*model.SpecialReport
	for rows.Next() {
		report := &model.SpecialReport{}
		var category sql.NullString
		if err := rows.Scan(
			&report.ID, &report.Title, &report.HTMLContent,
			&category, pq.Array(&report.Tags),
			&report.CreatedAt, &report.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("特集レポートの読み取りに失敗しました: %w", err)
		}
		report.Category = nullStringValue(category)
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("特集レポート一覧の走査に失敗しました: %w", err)
	}

	return reports, nil
}

// compile-time interface check
var _ SpecialReportRepository = (*PostgresSpecialReportRepo)(nil)
