package aggregate

import (
	"html"
	"strings"
)

// TagStripper はHTMLからタグを除去する機能のインターフェース。
type TagStripper interface {
	StripTags(rawHTML string) string
}

// TextSummarizer はHTML本文からフィードのdescription用のプレーンテキスト要約を生成する。
// タグ除去→空白の正規化→文字数上限での切り詰めの順で処理し、
// 切り詰めた場合は省略記号を付加する。
type TextSummarizer struct {
	stripper TagStripper
	maxChars int
}

// NewTextSummarizer はTextSummarizerの新しいインスタンスを生成する。
// maxCharsが0以下の場合はデフォルト値300を使用する。
func NewTextSummarizer(stripper TagStripper, maxChars int) *TextSummarizer {
	if maxChars <= 0 {
		maxChars = 300
	}
	return &TextSummarizer{stripper: stripper, maxChars: maxChars}
}

// Summarize はHTML本文を要約テキストに変換する。
// labelが空でない場合は要約の先頭に前置する（期間やカテゴリの表示用）。
// 切り詰めはラベルを除いた本文部分に対して行う。
func (s *TextSummarizer) Summarize(label, htmlContent string) string {
	text := s.stripper.StripTags(htmlContent)

	// StripTagsの出力はHTML実体参照のままなので、プレーンテキストに戻す。
	// XMLエスケープは出力時にジェネレータが行う
	text = html.UnescapeString(text)

	// 改行・連続空白を単一スペースに正規化する
	text = strings.Join(strings.Fields(text), " ")

	if runes := []rune(text); len(runes) > s.maxChars {
		text = strings.TrimSpace(string(runes[:s.maxChars])) + "…"
	}

	if label == "" {
		return text
	}
	if text == "" {
		return label
	}
	return label + " " + text
}

var _ Summarizer = (*TextSummarizer)(nil)
