package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// FeedRenderer はアグリゲートフィードのRSS文書生成のインターフェース。
type FeedRenderer interface {
	// Render はRSS 2.0文書を生成する。langが空でない場合は言語でレポートを絞る。
	Render(ctx context.Context, lang string) (string, error)
}

// FeedRenderMetrics はフィード生成のレイテンシ記録のインターフェース。
type FeedRenderMetrics interface {
	RecordFeedRenderDuration(duration time.Duration)
}

// FeedHandler はアグリゲートフィード配信のHTTPハンドラー。
// RSSリーダー・ブラウザから直接アクセスされる公開エンドポイント。
type FeedHandler struct {
	renderer    FeedRenderer
	metrics     FeedRenderMetrics
	logger      *slog.Logger
	cacheMaxAge int
}

// NewFeedHandler はFeedHandlerを生成する。
// cacheMaxAgeSecは中間キャッシュに許可するキャッシュ秒数。
func NewFeedHandler(renderer FeedRenderer, metrics FeedRenderMetrics, logger *slog.Logger, cacheMaxAgeSec int) *FeedHandler {
	if cacheMaxAgeSec <= 0 {
		cacheMaxAgeSec = 3600
	}
	return &FeedHandler{
		renderer:    renderer,
		metrics:     metrics,
		logger:      logger,
		cacheMaxAge: cacheMaxAgeSec,
	}
}

// ServeFeed はアグリゲートフィードを配信する。
// 文書の生成が完了してからレスポンスを書き込む。生成に失敗した場合は
// 部分的なXMLを返さず、500のプレーンテキストを返す。
// GET /feed.xml?lang=
func (h *FeedHandler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")

	start := time.Now()
	doc, err := h.renderer.Render(r.Context(), lang)
	if h.metrics != nil {
		h.metrics.RecordFeedRenderDuration(time.Since(start))
	}
	if err != nil {
		h.logger.Error("アグリゲートフィードの生成に失敗しました",
			slog.String("lang", lang),
			slog.String("error", err.Error()),
		)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("failed to generate feed"))
		return
	}

	// フィードはどのリーダーからも読めるようにCORSを全許可する
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(h.cacheMaxAge))
	w.Write([]byte(doc))
}
