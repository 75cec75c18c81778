package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ainews/internal/model"
	"github.com/hitoshi/ainews/internal/repository"
)

// --- テスト用モック ---

type mockDetector struct {
	pollingURL string
	err        error
	calledWith string
}

func (m *mockDetector) DetectFeedURL(_ context.Context, inputURL string) (string, error) {
	m.calledWith = inputURL
	if m.err != nil {
		return "", m.err
	}
	return m.pollingURL, nil
}

type mockSourceRepo struct {
	sources    map[string]*model.FeedSource
	byPolling  map[string]*model.FeedSource
	createErr  error
	findErr    error
	deletedIDs []string
}

func newMockSourceRepo() *mockSourceRepo {
	return &mockSourceRepo{
		sources:   make(map[string]*model.FeedSource),
		byPolling: make(map[string]*model.FeedSource),
	}
}

func (m *mockSourceRepo) FindByID(_ context.Context, id string) (*model.FeedSource, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.sources[id], nil
}

func (m *mockSourceRepo) FindByPollingURL(_ context.Context, pollingURL string) (*model.FeedSource, error) {
	return m.byPolling[pollingURL], nil
}

func (m *mockSourceRepo) List(_ context.Context) ([]*model.FeedSource, error) {
	var out []*model.FeedSource
	for _, s := range m.sources {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSourceRepo) ListActive(_ context.Context) ([]*model.FeedSource, error) {
	return m.List(context.Background())
}

func (m *mockSourceRepo) Create(_ context.Context, source *model.FeedSource) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.sources[source.ID] = source
	m.byPolling[source.PollingURL] = source
	return nil
}

func (m *mockSourceRepo) SetActive(_ context.Context, id string, active bool) error {
	if s, ok := m.sources[id]; ok {
		s.Active = active
	}
	return nil
}

func (m *mockSourceRepo) DeleteByID(_ context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	delete(m.sources, id)
	return nil
}

func newSourceRouter(h *SourceHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/sources", func(r chi.Router) {
		r.Post("/", h.RegisterSource)
		r.Get("/", h.ListSources)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSource)
			r.Patch("/", h.SetActive)
			r.Delete("/", h.DeleteSource)
		})
	})
	return r
}

func seedSource(repo *mockSourceRepo, id string) *model.FeedSource {
	source := &model.FeedSource{
		ID:         id,
		Title:      "AI Weekly",
		SourceURL:  "https://aiweekly.example.com",
		PollingURL: "https://aiweekly.example.com/feed.xml",
		Active:     true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	repo.sources[id] = source
	repo.byPolling[source.PollingURL] = source
	return source
}

// フィードソース登録が成功し201を返すことを検証
func TestRegisterSource_Success(t *testing.T) {
	detector := &mockDetector{pollingURL: "https://blog.example.com/feed.xml"}
	repo := newMockSourceRepo()
	router := newSourceRouter(NewSourceHandler(detector, repo))

	body := `{"url": "https://blog.example.com", "title": "Example AI Blog"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Result().StatusCode, http.StatusCreated, w.Body.String())
	}
	if detector.calledWith != "https://blog.example.com" {
		t.Errorf("detector called with %q", detector.calledWith)
	}

	var resp sourceResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("response decode failed: %v", err)
	}
	if resp.Title != "Example AI Blog" {
		t.Errorf("title = %q", resp.Title)
	}
	if resp.PollingURL != "https://blog.example.com/feed.xml" {
		t.Errorf("polling_url = %q", resp.PollingURL)
	}
	if !resp.Active {
		t.Error("newly registered source should be active")
	}
	if resp.ID == "" {
		t.Error("id should be assigned")
	}
}

// タイトル未指定時にホスト名が補われることを検証
func TestRegisterSource_DefaultTitleFromHost(t *testing.T) {
	detector := &mockDetector{pollingURL: "https://blog.example.com/feed.xml"}
	router := newSourceRouter(NewSourceHandler(detector, newMockSourceRepo()))

	body := `{"url": "https://blog.example.com/news"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp sourceResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Title != "blog.example.com" {
		t.Errorf("title = %q, want host fallback", resp.Title)
	}
}

// 空URLで400を返すことを検証
func TestRegisterSource_EmptyURL(t *testing.T) {
	router := newSourceRouter(NewSourceHandler(&mockDetector{}, newMockSourceRepo()))

	req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(`{"url": ""}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
}

// 登録済みポーリングURLの再登録で409を返すことを検証
func TestRegisterSource_Duplicate(t *testing.T) {
	repo := newMockSourceRepo()
	seedSource(repo, "feed-1")
	detector := &mockDetector{pollingURL: "https://aiweekly.example.com/feed.xml"}
	router := newSourceRouter(NewSourceHandler(detector, repo))

	body := `{"url": "https://aiweekly.example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Result().StatusCode)
	}

	var resp apiErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Code != "DUPLICATE_SOURCE" {
		t.Errorf("code = %q, want DUPLICATE_SOURCE", resp.Code)
	}
}

// フィード未検出エラーが422にマッピングされることを検証
func TestRegisterSource_FeedNotDetected(t *testing.T) {
	detector := &mockDetector{err: model.NewFeedNotDetectedError("https://example.com")}
	router := newSourceRouter(NewSourceHandler(detector, newMockSourceRepo()))

	req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(`{"url": "https://example.com"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Result().StatusCode)
	}
}

// SSRFブロックが403にマッピングされることを検証
func TestRegisterSource_SSRFBlocked(t *testing.T) {
	detector := &mockDetector{err: model.NewSSRFBlockedError()}
	router := newSourceRouter(NewSourceHandler(detector, newMockSourceRepo()))

	req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(`{"url": "http://169.254.169.254/"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Result().StatusCode)
	}
}

// 検出と登録の間の競合による一意制約違反が409になることを検証
func TestRegisterSource_RaceDuplicate(t *testing.T) {
	repo := newMockSourceRepo()
	repo.createErr = repository.ErrDuplicate
	detector := &mockDetector{pollingURL: "https://blog.example.com/feed.xml"}
	router := newSourceRouter(NewSourceHandler(detector, repo))

	req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(`{"url": "https://blog.example.com"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Result().StatusCode)
	}
}

// ソース詳細の取得と404を検証
func TestGetSource(t *testing.T) {
	repo := newMockSourceRepo()
	seedSource(repo, "feed-1")
	router := newSourceRouter(NewSourceHandler(&mockDetector{}, repo))

	req := httptest.NewRequest(http.MethodGet, "/api/sources/feed-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("existing source: status = %d, want 200", w.Result().StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sources/no-such", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("missing source: status = %d, want 404", w.Result().StatusCode)
	}
}

// アクティブフラグの更新を検証
func TestSetActive(t *testing.T) {
	repo := newMockSourceRepo()
	seedSource(repo, "feed-1")
	router := newSourceRouter(NewSourceHandler(&mockDetector{}, repo))

	req := httptest.NewRequest(http.MethodPatch, "/api/sources/feed-1", strings.NewReader(`{"active": false}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if repo.sources["feed-1"].Active {
		t.Error("source should be deactivated")
	}

	var resp sourceResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Active {
		t.Error("response should reflect the new active flag")
	}
}

// activeフィールド欠落で400を返すことを検証
func TestSetActive_MissingField(t *testing.T) {
	repo := newMockSourceRepo()
	seedSource(repo, "feed-1")
	router := newSourceRouter(NewSourceHandler(&mockDetector{}, repo))

	req := httptest.NewRequest(http.MethodPatch, "/api/sources/feed-1", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
}

// ソース削除で204、再削除で404を返すことを検証
func TestDeleteSource(t *testing.T) {
	repo := newMockSourceRepo()
	seedSource(repo, "feed-1")
	router := newSourceRouter(NewSourceHandler(&mockDetector{}, repo))

	req := httptest.NewRequest(http.MethodDelete, "/api/sources/feed-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Result().StatusCode)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/sources/feed-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", w.Result().StatusCode)
	}
}
