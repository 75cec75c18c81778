package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/ainews/internal/model"
	"github.com/hitoshi/ainews/internal/repository"
	"github.com/hitoshi/ainews/internal/security"
)

// dateLayout はレポート期間の日付フォーマット。
const dateLayout = "2006-01-02"

// defaultReportListLimit はレポート一覧のデフォルト取得件数。
const defaultReportListLimit = 20

// ReportHandler は定期レポート・特集レポート管理のHTTPハンドラー。
// HTMLコンテンツは保存前にサニタイズする。更新は全フィールド置換で行う。
type ReportHandler struct {
	periodicRepo repository.PeriodicReportRepository
	specialRepo  repository.SpecialReportRepository
	sanitizer    security.ContentSanitizerService
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(
	periodicRepo repository.PeriodicReportRepository,
	specialRepo repository.SpecialReportRepository,
	sanitizer security.ContentSanitizerService,
) *ReportHandler {
	return &ReportHandler{
		periodicRepo: periodicRepo,
		specialRepo:  specialRepo,
		sanitizer:    sanitizer,
	}
}

// --- 定期レポート ---

// periodicReportRequest は定期レポートの作成・更新リクエストのボディ。
type periodicReportRequest struct {
	Title           string `json:"title"`
	HTMLContent     string `json:"html_content"`
	PeriodStartDate string `json:"period_start_date"`
	PeriodEndDate   string `json:"period_end_date"`
	Language        string `json:"language"`
}

// periodicReportResponse は定期レポートのAPIレスポンス。
type periodicReportResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	HTMLContent     string `json:"html_content"`
	PeriodStartDate string `json:"period_start_date"`
	PeriodEndDate   string `json:"period_end_date"`
	Language        string `json:"language"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// validatePeriodicRequest はリクエストを検証し、期間の日付をパースする。
func validatePeriodicRequest(req *periodicReportRequest) (start, end time.Time, apiErr *model.APIError) {
	if strings.TrimSpace(req.Title) == "" || req.HTMLContent == "" || req.Language == "" {
		return start, end, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "title, html_content, language は必須です。",
			Category: "validation",
			Action:   "必須フィールドを指定してください。",
		}
	}

	start, err := time.Parse(dateLayout, req.PeriodStartDate)
	if err != nil {
		return start, end, invalidDateError("period_start_date", req.PeriodStartDate)
	}
	end, err = time.Parse(dateLayout, req.PeriodEndDate)
	if err != nil {
		return start, end, invalidDateError("period_end_date", req.PeriodEndDate)
	}
	if end.Before(start) {
		return start, end, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "period_end_date は period_start_date 以降の日付を指定してください。",
			Category: "validation",
			Action:   "期間の開始日と終了日を確認してください。",
		}
	}
	return start, end, nil
}

// CreatePeriodicReport は定期レポートを作成する。
// 同一期間・同一言語のレポートが既に存在する場合は409を返す。
// POST /api/reports/periodic
func (h *ReportHandler) CreatePeriodicReport(w http.ResponseWriter, r *http.Request) {
	var req periodicReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	start, end, apiErr := validatePeriodicRequest(&req)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	now := time.Now()
	report := &model.PeriodicReport{
		ID:              uuid.New().String(),
		Title:           req.Title,
		HTMLContent:     h.sanitizer.Sanitize(req.HTMLContent),
		PeriodStartDate: start,
		PeriodEndDate:   end,
		Language:        req.Language,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.periodicRepo.Create(r.Context(), report); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeAPIErrorResponse(w, http.StatusConflict,
				model.NewDuplicatePeriodError(req.PeriodStartDate, req.PeriodEndDate, req.Language))
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPeriodicResponse(report))
}

// ListPeriodicReports は定期レポート一覧を新しい順で返す。
// GET /api/reports/periodic?lang=&limit=
func (h *ReportHandler) ListPeriodicReports(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	limit := queryLimit(r, defaultReportListLimit)

	reports, err := h.periodicRepo.ListRecent(r.Context(), lang, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]periodicReportResponse, 0, len(reports))
	for _, report := range reports {
		responses = append(responses, toPeriodicResponse(report))
	}

	writeJSON(w, http.StatusOK, responses)
}

// GetPeriodicReport は定期レポート詳細を返す。
// GET /api/reports/periodic/{id}
func (h *ReportHandler) GetPeriodicReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.periodicRepo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if report == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewReportNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, toPeriodicResponse(report))
}

// UpdatePeriodicReport は定期レポートを全フィールド置換で更新する。
// 部分更新は行わない。
// PUT /api/reports/periodic/{id}
func (h *ReportHandler) UpdatePeriodicReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req periodicReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	start, end, apiErr := validatePeriodicRequest(&req)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	existing, err := h.periodicRepo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if existing == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewReportNotFoundError(id))
		return
	}

	report := &model.PeriodicReport{
		ID:              id,
		Title:           req.Title,
		HTMLContent:     h.sanitizer.Sanitize(req.HTMLContent),
		PeriodStartDate: start,
		PeriodEndDate:   end,
		Language:        req.Language,
		CreatedAt:       existing.CreatedAt,
		UpdatedAt:       time.Now(),
	}

	if err := h.periodicRepo.Update(r.Context(), report); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeAPIErrorResponse(w, http.StatusConflict,
				model.NewDuplicatePeriodError(req.PeriodStartDate, req.PeriodEndDate, req.Language))
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodicResponse(report))
}

// DeletePeriodicReport は定期レポートを削除する。
// DELETE /api/reports/periodic/{id}
func (h *ReportHandler) DeletePeriodicReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.periodicRepo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if report == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewReportNotFoundError(id))
		return
	}

	if err := h.periodicRepo.DeleteByID(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- 特集レポート ---

// specialReportRequest は特集レポートの作成・更新リクエストのボディ。
type specialReportRequest struct {
	Title       string   `json:"title"`
	HTMLContent string   `json:"html_content"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// specialReportResponse は特集レポートのAPIレスポンス。
type specialReportResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	HTMLContent string   `json:"html_content"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// validateSpecialRequest はリクエストの必須フィールドを検証する。
func validateSpecialRequest(req *specialReportRequest) *model.APIError {
	if strings.TrimSpace(req.Title) == "" || req.HTMLContent == "" {
		return &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "title, html_content は必須です。",
			Category: "validation",
			Action:   "必須フィールドを指定してください。",
		}
	}
	return nil
}

// CreateSpecialReport は特集レポートを作成する。
// POST /api/reports/special
func (h *ReportHandler) CreateSpecialReport(w http.ResponseWriter, r *http.Request) {
	var req specialReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if apiErr := validateSpecialRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	now := time.Now()
	report := &model.SpecialReport{
		ID:          uuid.New().String(),
		Title:       req.Title,
		HTMLContent: h.sanitizer.Sanitize(req.HTMLContent),
		Category:    req.Category,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.specialRepo.Create(r.Context(), report); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSpecialResponse(report))
}

// ListSpecialReports は特集レポート一覧を新しい順で返す。
// GET /api/reports/special?limit=
func (h *ReportHandler) ListSpecialReports(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, defaultReportListLimit)

	reports, err := h.specialRepo.ListRecent(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]specialReportResponse, 0, len(reports))
	for _, report := range reports {
		responses = append(responses, toSpecialResponse(report))
	}

	writeJSON(w, http.StatusOK, responses)
}

// GetSpecialReport は特集レポート詳細を返す。
// GET /api/reports/special/{id}
func (h *ReportHandler) GetSpecialReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.specialRepo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if report == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewReportNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, toSpecialResponse(report))
}

// UpdateSpecialReport は特集レポートを全フィールド置換で更新する。
// PUT /api/reports/special/{id}
func (h *ReportHandler) UpdateSpecialReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req specialReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if apiErr := validateSpecialRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	existing, err := h.specialRepo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if existing == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewReportNotFoundError(id))
		return
	}

	report := &model.SpecialReport{
		ID:          id,
		Title:       req.Title,
		HTMLContent: h.sanitizer.Sanitize(req.HTMLContent),
		Category:    req.Category,
		Tags:        req.Tags,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   time.Now(),
	}

	if err := h.specialRepo.Update(r.Context(), report); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSpecialResponse(report))
}

// DeleteSpecialReport は特集レポートを削除する。
// DELETE /api/reports/special/{id}
func (h *ReportHandler) DeleteSpecialReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.specialRepo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if report == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewReportNotFoundError(id))
		return
	}

	if err := h.specialRepo.DeleteByID(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toPeriodicResponse はmodel.PeriodicReportからAPIレスポンスに変換する。
func toPeriodicResponse(report *model.PeriodicReport) periodicReportResponse {
	return periodicReportResponse{
		ID:              report.ID,
		Title:           report.Title,
		HTMLContent:     report.HTMLContent,
		PeriodStartDate: report.PeriodStartDate.Format(dateLayout),
		PeriodEndDate:   report.PeriodEndDate.Format(dateLayout),
		Language:        report.Language,
		CreatedAt:       report.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       report.UpdatedAt.Format(time.RFC3339),
	}
}

// toSpecialResponse はmodel.SpecialReportからAPIレスポンスに変換する。
func toSpecialResponse(report *model.SpecialReport) specialReportResponse {
	tags := report.Tags
	if tags == nil {
		tags = []string{}
	}
	return specialReportResponse{
		ID:          report.ID,
		Title:       report.Title,
		HTMLContent: report.HTMLContent,
		Category:    report.Category,
		Tags:        tags,
		CreatedAt:   report.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   report.UpdatedAt.Format(time.RFC3339),
	}
}

// invalidDateError は日付パース失敗の400エラーを生成する。
func invalidDateError(field, value string) *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  field + " の日付形式が不正です: " + value,
		Category: "validation",
		Action:   "YYYY-MM-DD形式で指定してください。",
	}
}

// queryLimit はクエリパラメータlimitを解釈する。不正値はデフォルトにフォールバックする。
func queryLimit(r *http.Request, defaultVal int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultVal
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 100 {
		return defaultVal
	}
	return limit
}
