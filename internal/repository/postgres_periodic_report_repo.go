package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/ainews/internal/model"
)

// PostgresPeriodicReportRepo はPostgreSQLを使用した定期レポートリポジトリ。
type PostgresPeriodicReportRepo struct {
	db *sql.DB
}

// NewPostgresPeriodicReportRepo はPostgresPeriodicReportRepoを生成する。
func NewPostgresPeriodicReportRepo(db *sql.DB) *PostgresPeriodicReportRepo {
	return &PostgresPeriodicReportRepo{db: db}
}

// FindByID は指定IDのレポートを取得する。見つからない場合はnilを返す。
func (r *PostgresPeriodicReportRepo) FindByID(ctx context.Context, id string) (*model.PeriodicReport, error) {
	report := &model.PeriodicReport{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, html_content, period_start_date, period_end_date, language, created_at, updated_at
		 FROM periodic_reports WHERE id = $1`,
		id,
	).Scan(
		&report.ID, &report.Title, &report.HTMLContent,
		&report.PeriodStartDate, &report.PeriodEndDate, &report.Language,
		&report.CreatedAt, &report.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("定期レポートの取得に失敗しました: %w", err)
	}

	return report, nil
}

// Create はレポートを作成する。
// 同一期間・同一言語のレポートが既に存在する場合はErrDuplicateを返す。
func (r *PostgresPeriodicReportRepo) Create(ctx context.Context, report *model.PeriodicReport) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO periodic_reports (id, title, html_content, period_start_date, period_end_date, language, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.ID, report.Title, report.HTMLContent,
		report.PeriodStartDate, report.PeriodEndDate, report.Language,
		report.CreatedAt, report.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("定期レポートの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はレポートを全フィールド置換で更新する。部分更新は行わない。
func (r *PostgresPeriodicReportRepo) Update(ctx context.Context, report *model.PeriodicReport) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE periodic_reports SET
		    title = $2, html_content = $3,
		    period_start_date = $4, period_end_date = $5, language = $6,
		    updated_at = $7
		 WHERE id = $1`,
		report.ID, report.Title, report.HTMLContent,
		report.PeriodStartDate, report.PeriodEndDate, report.Language,
		report.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("定期レポートの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのレポートを削除する。
func (r *PostgresPeriodicReportRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM periodic_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("定期レポートの削除に失敗しました: %w", err)
	}
	return nil
}

// ListRecent はレポートをcreated_at降順で最大limit件返す。
// languageが空でない場合はその言語のレポートのみを返す。
func (r *PostgresPeriodicReportRepo) ListRecent(ctx context.Context, language string, limit int) ([]*model.PeriodicReport, error) {
	query := `SELECT id, title, html_content, period_start_date, period_end_date, language, created_at, updated_at
	          FROM periodic_reports`
	args := []any{}
	if language != "" {
		query += ` WHERE language = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, language, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("定期レポート一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reports []*model.PeriodicReport
	for rows.Next() {
		report := &model.PeriodicReport{}
		if err := rows.Scan(
			&report.ID, &report.Title, &report.HTMLContent,
			&report.PeriodStartDate, &report.PeriodEndDate, &report.Language,
			&report.CreatedAt, &report.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("定期レポートの読み取りに失敗しました: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("定期レポート一覧の走査に失敗しました: %w", err)
	}

	return reports, nil
}

// compile-time interface check
var _ PeriodicReportRepository = (*PostgresPeriodicReportRepo)(nil)
