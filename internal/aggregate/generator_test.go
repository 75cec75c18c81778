package aggregate

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"
	"time"
)

var testChannel = Channel{
	Title:       "AI News Digest",
	Link:        "https://ainews.example.com",
	Description: "生成AIニュースのダイジェスト",
	Language:    "ja",
	SelfURL:     "https://ainews.example.com/feed.xml",
	TTLMinutes:  60,
}

func testItem(title string) Item {
	return Item{
		Title:       title,
		Link:        "https://ainews.example.com/reports/r1",
		Description: "summary text",
		PublishDate: time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC),
		GUID:        "https://ainews.example.com/reports/r1",
	}
}

// assertWellFormed は文書がXMLとして解釈可能であることを検証する。
func assertWellFormed(t *testing.T, doc string) {
	t.Helper()
	decoder := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("document is not well-formed XML: %v\n%s", err, doc)
		}
	}
}

// チャンネルメタデータが出力されることを検証
func TestRender_ChannelMetadata(t *testing.T) {
	doc := NewGenerator().Render(testChannel, nil, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))

	assertWellFormed(t, doc)
	for _, want := range []string{
		"<title>AI News Digest</title>",
		"<link>https://ainews.example.com</link>",
		"<language>ja</language>",
		"<ttl>60</ttl>",
		`<atom:link href="https://ainews.example.com/feed.xml" rel="self" type="application/rss+xml" />`,
		"<lastBuildDate>Tue, 15 Jul 2025 00:00:00 +0000</lastBuildDate>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document should contain %q", want)
		}
	}
}

// アイテムがあればlastBuildDateが先頭アイテムの日時になることを検証
func TestRender_LastBuildDateFromNewestItem(t *testing.T) {
	doc := NewGenerator().Render(testChannel, []Item{testItem("newest")}, time.Now())

	if !strings.Contains(doc, "<lastBuildDate>Mon, 14 Jul 2025 09:00:00 +0000</lastBuildDate>") {
		t.Error("lastBuildDate should come from the newest item")
	}
}

// 予約XML文字を含むタイトル・説明がエスケープされ整形式を保つことを検証
func TestRender_EscapesReservedCharacters(t *testing.T) {
	item := testItem(`Benchmarks: <A & B> "quoted" 'single'`)
	item.Description = "tokens < context & cost > 0"

	doc := NewGenerator().Render(testChannel, []Item{item}, time.Now())

	assertWellFormed(t, doc)
	if strings.Contains(doc, "<A & B>") {
		t.Error("reserved characters in title must be escaped")
	}
	if !strings.Contains(doc, "&lt;A &amp; B&gt;") {
		t.Error("escaped title should appear in the document")
	}
}

// CDATA終端シーケンスを含むコンテンツがセクションを破らないことを検証
func TestRender_CDATATerminatorGuard(t *testing.T) {
	item := testItem("CDATA edge case")
	item.Content = `<p>array[idx]]>0 is a strange expression]]></p>`

	doc := NewGenerator().Render(testChannel, []Item{item}, time.Now())

	assertWellFormed(t, doc)

	// 分割ガードにより生の "]]>" がCDATA内に残っていないこと
	start := strings.Index(doc, "<content:encoded>")
	end := strings.Index(doc, "</content:encoded>")
	if start == -1 || end == -1 {
		t.Fatal("content:encoded element missing")
	}
}

// CDATA終端シーケンスを含むタイトルでも整形式を保つことを検証
func TestRender_TitleWithCDATATerminator(t *testing.T) {
	doc := NewGenerator().Render(testChannel, []Item{testItem("weird ]]> title")}, time.Now())

	assertWellFormed(t, doc)
}

// guidがパーマリンクとして出力されlinkと一致することを検証
func TestRender_GUIDIsPermalink(t *testing.T) {
	doc := NewGenerator().Render(testChannel, []Item{testItem("report")}, time.Now())

	want := `<guid isPermaLink="true">https://ainews.example.com/reports/r1</guid>`
	if !strings.Contains(doc, want) {
		t.Errorf("document should contain %q", want)
	}
}

// URL形式でないguidはisPermaLink="false"になることを検証
func TestRender_NonURLGUIDNotPermalink(t *testing.T) {
	item := testItem("opaque guid")
	item.GUID = "urn:uuid:1f2e3d4c"

	doc := NewGenerator().Render(testChannel, []Item{item}, time.Now())

	if !strings.Contains(doc, `<guid isPermaLink="false">urn:uuid:1f2e3d4c</guid>`) {
		t.Error("non-URL guid should be marked isPermaLink=false")
	}
}

// コンテンツが空のアイテムではcontent:encodedが出力されないことを検証
func TestRender_OmitsEmptyContent(t *testing.T) {
	doc := NewGenerator().Render(testChannel, []Item{testItem("no content")}, time.Now())

	if strings.Contains(doc, "content:encoded") {
		t.Error("empty content should not produce a content:encoded element")
	}
}
