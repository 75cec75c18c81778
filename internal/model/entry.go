// Package model はドメインモデルを定義する。
package model

import "time"

// FeedEntry はフィードソースから取り込んだ1記事を表す。
// (FeedID, GUID) の組み合わせで一意。所有元のFeedSourceが削除されると
// CASCADE削除される。
type FeedEntry struct {
	ID          string
	FeedID      string
	Title       string
	Description string
	Link        string
	PublishDate *time.Time
	GUID        string
	Content     string // サニタイズ済みHTML
	Author      string
	CreatedAt   time.Time
}

// ParsedEntry はフィードパーサーが抽出した未保存の記事データを表す。
// GUIDはguid→id→linkの順のフォールバックで解決済み。
// PublishDateは日時としてパースできない場合はnil。
type ParsedEntry struct {
	Title       string
	Description string
	Link        string
	PublishDate *time.Time
	GUID        string
	Content     string // 未サニタイズのHTML
	Author      string
}
