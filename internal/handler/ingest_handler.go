package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ainews/internal/ingest"
)

// IngestRunner は取り込みバッチ実行のインターフェース。
type IngestRunner interface {
	// Run は取り込みバッチを実行する。feedIDが空の場合は全アクティブソースを対象にする。
	Run(ctx context.Context, feedID string) (*ingest.Report, error)
}

// IngestHandler は取り込みトリガーのHTTPハンドラー。
// 外部スケジューラまたはダッシュボードの手動リフレッシュから呼び出される。
type IngestHandler struct {
	runner IngestRunner
}

// NewIngestHandler はIngestHandlerを生成する。
func NewIngestHandler(runner IngestRunner) *IngestHandler {
	return &IngestHandler{runner: runner}
}

// TriggerAll は全アクティブソースの取り込みを実行する。
// POST /api/ingest
func (h *IngestHandler) TriggerAll(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, "")
}

// TriggerOne は指定ソースのみの取り込みを実行する。
// POST /api/ingest/{id}
func (h *IngestHandler) TriggerOne(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, chi.URLParam(r, "id"))
}

// trigger は取り込みを実行し、ソース別の結果レポートをJSONで返す。
// ソース単位の失敗はレポート内に記録されるため200で返し、
// レジストリ自体が読めない場合のみエラーレスポンスになる。
func (h *IngestHandler) trigger(w http.ResponseWriter, r *http.Request, feedID string) {
	report, err := h.runner.Run(r.Context(), feedID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
