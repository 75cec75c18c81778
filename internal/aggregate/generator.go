package aggregate

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
)

// Channel はアグリゲートフィードのチャンネルメタデータを表す。
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
	SelfURL     string // atom:link rel="self" のURL
	TTLMinutes  int
}

// Generator はアイテム列からRSS 2.0文書を組み立てる。
// encoding/xmlの構造体マーシャリングではCDATAと名前空間の制御が
// 効かないため、バッファへの直接書き込みで構築する。
type Generator struct{}

// NewGenerator はGeneratorの新しいインスタンスを生成する。
func NewGenerator() *Generator {
	return &Generator{}
}

// Render はチャンネルメタデータとアイテム列からRSS 2.0文書を生成する。
// CDATA以外の要素本文はxml.EscapeTextでエスケープし、
// CDATA内は終端シーケンス "]]>" の分割ガードのみを適用する。
func (g *Generator) Render(channel Channel, items []Item, now time.Time) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	g.writeElement(&buf, "description", channel.Description, 4)
	g.writeElement(&buf, "language", channel.Language, 4)

	if channel.SelfURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfURL)))
	}

	lastBuildDate := now
	if len(items) > 0 {
		lastBuildDate = items[0].PublishDate
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)

	if channel.TTLMinutes > 0 {
		g.writeElement(&buf, "ttl", strconv.Itoa(channel.TTLMinutes), 4)
	}

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

// writeItem は1アイテムを<item>要素として書き出す。
func (g *Generator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	g.writeElement(buf, "title", item.Title, 6)
	g.writeElement(buf, "link", item.Link, 6)
	g.writeElement(buf, "description", item.Description, 6)

	if item.Content != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(escapeCDATA(item.Content))
		buf.WriteString("]]></content:encoded>\n")
	}

	g.writeElement(buf, "pubDate", item.PublishDate.Format(time.RFC1123Z), 6)

	// guidはアイテムのパーマリンクURL
	if item.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", isURL(item.GUID)))
		xml.EscapeText(buf, []byte(item.GUID))
		buf.WriteString("</guid>\n")
	}

	buf.WriteString("    </item>\n")
}

// writeElement は本文をエスケープして1要素を書き出す。空の本文は出力しない。
func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// escapeCDATA はCDATAセクション内に埋め込むテキストから終端シーケンスを無害化する。
// "]]>" を含むコンテンツがセクションを破って不正なXMLになるのを防ぐため、
// シーケンスをCDATAの閉じ・再開で分割する。
func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}

// isURL は文字列がhttp/httpsのURLかどうかを判定する。
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
