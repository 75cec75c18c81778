// Package model はドメインモデルを定義する。
package model

import "time"

// PeriodicReport は期間に紐づく自作のダイジェストレポートを表す。
// (PeriodStartDate, PeriodEndDate, Language) の組み合わせで一意。
// 1期間・1言語につき1レポートのみ存在する。
type PeriodicReport struct {
	ID              string
	Title           string
	HTMLContent     string
	PeriodStartDate time.Time // 日付のみ使用
	PeriodEndDate   time.Time // 日付のみ使用
	Language        string    // "en" / "zh" など
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SpecialReport は期間を持たない特集レポートを表す。
// カテゴリは自由記述で、タグを複数付与できる。
type SpecialReport struct {
	ID          string
	Title       string
	HTMLContent string
	Category    string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
