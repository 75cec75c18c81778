// Package model はドメインモデルを定義する。
package model

import "time"

// FeedSource は取り込み対象として登録された外部RSS/Atomフィードを表す。
// SourceURLは配信元サイトのURL、PollingURLは実際に取得するフィードのURL。
// PollingURLはシステム全体で一意。
type FeedSource struct {
	ID          string
	Title       string
	Description string
	SourceURL   string
	PollingURL  string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
