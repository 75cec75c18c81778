package security

import (
	"strings"
	"testing"
)

// 許可タグが保持されることを検証
func TestSanitize_AllowedTagsPreserved(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{
			name:         "段落と強調",
			input:        "<p>GPT-5が<strong>発表</strong>されました</p>",
			wantContains: []string{"<p>", "<strong>", "発表", "</strong>", "</p>"},
		},
		{
			name:         "見出しとリスト",
			input:        "<h2>HIGHLIGHTS</h2><ul><li>新モデル</li></ul>",
			wantContains: []string{"<h2>", "HIGHLIGHTS", "<ul>", "<li>", "新モデル"},
		},
		{
			name:         "コードブロック",
			input:        "<pre><code>func main() {}</code></pre>",
			wantContains: []string{"<pre>", "<code>", "func main() {}", "</code>", "</pre>"},
		},
		{
			name:         "テーブル",
			input:        "<table><tr><th>モデル</th><td>性能</td></tr></table>",
			wantContains: []string{"<table>", "<th>", "モデル", "<td>", "性能"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, should contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// 危険なタグと属性が除去されることを検証
func TestSanitize_DangerousContentRemoved(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name        string
		input       string
		wantAbsent  []string
	}{
		{
			name:       "scriptタグ",
			input:      `<p>text</p><script>alert("xss")</script>`,
			wantAbsent: []string{"<script>", "alert"},
		},
		{
			name:       "iframeタグ",
			input:      `<iframe src="https://evil.example.com"></iframe>`,
			wantAbsent: []string{"<iframe"},
		},
		{
			name:       "onclickイベント属性",
			input:      `<p onclick="alert(1)">text</p>`,
			wantAbsent: []string{"onclick"},
		},
		{
			name:       "javascriptスキームのリンク",
			input:      `<a href="javascript:alert(1)">link</a>`,
			wantAbsent: []string{"javascript:"},
		},
		{
			name:       "httpスキームの画像",
			input:      `<img src="http://example.com/a.png">`,
			wantAbsent: []string{"src="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

// リンクにtarget属性とrel属性が付与されることを検証
func TestSanitize_LinkAttributesEnforced(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<a href="https://example.com/article">記事</a>`)

	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("Sanitize output %q should contain target=\"_blank\"", got)
	}
	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("Sanitize output %q should contain rel noopener noreferrer", got)
	}
}

// 空入力に空文字列を返すことと冪等性を検証
func TestSanitize_EmptyAndIdempotent(t *testing.T) {
	s := NewContentSanitizer()

	if got := s.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}

	input := `<p>週次ダイジェスト<strong>第3号</strong></p>`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("Sanitize is not idempotent: %q != %q", once, twice)
	}
}

// StripTagsがタグを全除去してテキストのみ返すことを検証
func TestStripTags_RemovesAllTags(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "段落",
			input: "<p>OpenAIが新モデルを発表</p>",
			want:  "OpenAIが新モデルを発表",
		},
		{
			name:  "入れ子のタグ",
			input: "<div><h2>見出し</h2><p>本文<strong>強調</strong></p></div>",
			want:  "見出し本文強調",
		},
		{
			name:  "スクリプトの中身も除去",
			input: "<p>text</p><script>alert(1)</script>",
			want:  "text",
		},
		{
			name:  "タグなし",
			input: "plain text",
			want:  "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.StripTags(tt.input); got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
