package ingest

import (
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/ainews/internal/model"
)

// convertFeedItems はgofeedの記事をmodel.ParsedEntryに変換する。
// RSS 2.0とAtomの差異はgofeedが吸収するため、ここでは
// フィールドごとの順序つきフォールバックのみを適用する:
//   - description: description → summary（gofeedが正規化済み）
//   - publish_date: pubDate/published → updated。日時として解釈できない場合はnil
//   - guid: guid → id → link
//   - content: content:encoded → content → description
//   - author: author → dc:creator
//
// titleまたはlinkを持たない記事は黙って捨てる（永続化層に到達させない）。
func convertFeedItems(items []*gofeed.Item) []model.ParsedEntry {
	entries := make([]model.ParsedEntry, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		entry := model.ParsedEntry{
			Title:       strings.TrimSpace(item.Title),
			Description: item.Description,
			Link:        strings.TrimSpace(item.Link),
			Content:     item.Content,
		}

		// linkがなくguid/idがURL形式の場合はそれをlinkとして使用
		if entry.Link == "" && isHTTPURL(item.GUID) {
			entry.Link = item.GUID
		}

		// title・linkは必須。欠ける記事は破棄する
		if entry.Title == "" || entry.Link == "" {
			continue
		}

		// guid: guid → id（gofeedはどちらもGUIDに格納）→ linkフォールバック
		entry.GUID = item.GUID
		if entry.GUID == "" {
			entry.GUID = entry.Link
		}

		// content: content:encoded → content はgofeedがContentに正規化。
		// どちらもない場合はdescriptionで代用する
		if entry.Content == "" {
			entry.Content = item.Description
		}

		// publish_date: pubDate → published → updated。
		// パース不能な日付はgofeedがnilにするため、そのままnullとして保存される
		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			entry.PublishDate = &t
		} else if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			entry.PublishDate = &t
		}

		// author: author → dc:creator（gofeedはdc:creatorもAuthorsに正規化）
		if item.Author != nil && item.Author.Name != "" {
			entry.Author = item.Author.Name
		}
		if entry.Author == "" && len(item.Authors) > 0 && item.Authors[0] != nil {
			entry.Author = item.Authors[0].Name
		}
		if entry.Author == "" {
			entry.Author = firstDCCreator(item)
		}

		entries = append(entries, entry)
	}

	return entries
}

// firstDCCreator はDublin Core拡張からdc:creatorを取得する。
func firstDCCreator(item *gofeed.Item) string {
	if item.DublinCoreExt == nil || len(item.DublinCoreExt.Creator) == 0 {
		return ""
	}
	return item.DublinCoreExt.Creator[0]
}

// isHTTPURL は文字列がhttp/httpsのURLかどうかを判定する。
func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
