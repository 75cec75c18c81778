// Package ingest はフィードソースからの記事取り込みパイプラインを提供する。
// フェッチ、パース、重複排除つき保存と、ソース単位の失敗分離を含む。
package ingest

// SourceResult は1ソースの取り込み結果を表す。
// 失敗したソースはSuccess=falseとエラー内容を記録し、バッチ全体は継続する。
type SourceResult struct {
	FeedID     string `json:"feedId"`
	FeedTitle  string `json:"feedTitle"`
	ItemsCount int    `json:"itemsCount,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Report はバッチ取り込み全体の結果を表す。
// 個々のソースの失敗ではSuccessはfalseにならない。
// レジストリ自体が読めない場合のみRunがエラーを返す。
type Report struct {
	Success    bool           `json:"success"`
	Results    []SourceResult `json:"results"`
	TotalFeeds int            `json:"totalFeeds"`
}
