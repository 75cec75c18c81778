package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/ainews/internal/model"
	"github.com/hitoshi/ainews/internal/repository"
)

// FeedURLDetector はサイトURLからフィードURLを検出するインターフェース。
type FeedURLDetector interface {
	// DetectFeedURL は入力URLからRSS/AtomフィードのURLを検出する。
	DetectFeedURL(ctx context.Context, inputURL string) (string, error)
}

// SourceHandler はフィードソース管理のHTTPハンドラー。
type SourceHandler struct {
	detector FeedURLDetector
	repo     repository.SourceRepository
}

// NewSourceHandler はSourceHandlerを生成する。
func NewSourceHandler(detector FeedURLDetector, repo repository.SourceRepository) *SourceHandler {
	return &SourceHandler{
		detector: detector,
		repo:     repo,
	}
}

// registerSourceRequest はフィードソース登録リクエストのボディ。
type registerSourceRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// setActiveRequest はアクティブフラグ更新リクエストのボディ。
type setActiveRequest struct {
	Active *bool `json:"active"`
}

// sourceResponse はフィードソースのAPIレスポンス。
type sourceResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url"`
	PollingURL  string `json:"polling_url"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
}

// RegisterSource はフィードソースを登録する。
// 入力URLがHTMLページの場合は自動検出でフィードURLを解決する。
// POST /api/sources
func (h *SourceHandler) RegisterSource(w http.ResponseWriter, r *http.Request) {
	var req registerSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.URL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("URLが空です"))
		return
	}

	pollingURL, err := h.detector.DetectFeedURL(r.Context(), req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	existing, err := h.repo.FindByPollingURL(r.Context(), pollingURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if existing != nil {
		writeAPIErrorResponse(w, http.StatusConflict, model.NewDuplicateSourceError(pollingURL))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = hostOf(req.URL)
	}

	now := time.Now()
	source := &model.FeedSource{
		ID:          uuid.New().String(),
		Title:       title,
		Description: req.Description,
		SourceURL:   req.URL,
		PollingURL:  pollingURL,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.Create(r.Context(), source); err != nil {
		// 検出と登録の間の競合で一意制約に当たった場合
		if errors.Is(err, repository.ErrDuplicate) {
			writeAPIErrorResponse(w, http.StatusConflict, model.NewDuplicateSourceError(pollingURL))
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSourceResponse(source))
}

// ListSources はフィードソース一覧を返す。
// GET /api/sources
func (h *SourceHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]sourceResponse, 0, len(sources))
	for _, source := range sources {
		responses = append(responses, toSourceResponse(source))
	}

	writeJSON(w, http.StatusOK, responses)
}

// GetSource はフィードソース詳細を返す。
// GET /api/sources/{id}
func (h *SourceHandler) GetSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	source, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if source == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewSourceNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, toSourceResponse(source))
}

// SetActive はフィードソースのアクティブフラグを更新する。
// PATCH /api/sources/{id}
func (h *SourceHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		writeInvalidRequestBody(w)
		return
	}

	source, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if source == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewSourceNotFoundError(id))
		return
	}

	if err := h.repo.SetActive(r.Context(), id, *req.Active); err != nil {
		handleServiceError(w, err)
		return
	}

	source.Active = *req.Active
	writeJSON(w, http.StatusOK, toSourceResponse(source))
}

// DeleteSource はフィードソースを削除する。関連する記事もCASCADE削除される。
// DELETE /api/sources/{id}
func (h *SourceHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	source, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if source == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewSourceNotFoundError(id))
		return
	}

	if err := h.repo.DeleteByID(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toSourceResponse はmodel.FeedSourceからAPIレスポンスに変換する。
func toSourceResponse(source *model.FeedSource) sourceResponse {
	return sourceResponse{
		ID:          source.ID,
		Title:       source.Title,
		Description: source.Description,
		SourceURL:   source.SourceURL,
		PollingURL:  source.PollingURL,
		Active:      source.Active,
		CreatedAt:   source.CreatedAt.Format(time.RFC3339),
	}
}

// hostOf はタイトル未指定時の代替としてURLのホスト名を返す。
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
