package app

import (
	"bytes"
	"strings"
	"testing"
)

// 必須環境変数が未設定の場合に終了コード1を返すことを検証
func TestRun_MissingConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BASE_URL", "")

	var buf bytes.Buffer
	if code := Run(&buf, []string{"serve"}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

// 未知のサブコマンドで使い方を出力し終了コード2を返すことを検証
func TestRun_UnknownCommand(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ainews?sslmode=disable")
	t.Setenv("BASE_URL", "https://ainews.example.com")

	var buf bytes.Buffer
	if code := Run(&buf, []string{"bogus"}); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(buf.String(), "Usage:") {
		t.Error("usage should be printed for unknown command")
	}
}
