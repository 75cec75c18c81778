package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ainews/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	LoggingMiddleware func(next http.Handler) http.Handler

	// ハンドラー
	SourceHandler  *SourceHandler
	IngestHandler  *IngestHandler
	ReportHandler  *ReportHandler
	FeedHandler    *FeedHandler
	HealthHandler  *HealthHandler
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → (APIルートのみ) CORS → RateLimit(General)
//
// フィード配信（/feed.xml）とヘルスチェック（/health）、メトリクス（/metrics）は
// APIミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.LoggingMiddleware != nil {
		r.Use(deps.LoggingMiddleware)
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())

	// --- 公開ルート（レート制限・CORS制限の外） ---

	// アグリゲートフィード。CORSヘッダーはハンドラー内で全許可を設定する
	r.Get("/feed.xml", deps.FeedHandler.ServeFeed)

	// ヘルスチェック
	r.Get("/health", deps.HealthHandler.Health)

	// Prometheusスクレイプ
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: CORS → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// フィードソース管理
		r.Route("/api/sources", func(r chi.Router) {
			r.Post("/", deps.SourceHandler.RegisterSource)
			r.Get("/", deps.SourceHandler.ListSources)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.SourceHandler.GetSource)
				r.Patch("/", deps.SourceHandler.SetActive)
				r.Delete("/", deps.SourceHandler.DeleteSource)
			})
		})

		// 取り込みトリガー（専用レート制限を追加）
		r.Route("/api/ingest", func(r chi.Router) {
			r.Use(deps.RateLimiter.IngestMiddleware())
			r.Post("/", deps.IngestHandler.TriggerAll)
			r.Post("/{id}", deps.IngestHandler.TriggerOne)
		})

		// 定期レポート管理
		r.Route("/api/reports/periodic", func(r chi.Router) {
			r.Post("/", deps.ReportHandler.CreatePeriodicReport)
			r.Get("/", deps.ReportHandler.ListPeriodicReports)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.ReportHandler.GetPeriodicReport)
				r.Put("/", deps.ReportHandler.UpdatePeriodicReport)
				r.Delete("/", deps.ReportHandler.DeletePeriodicReport)
			})
		})

		// 特集レポート管理
		r.Route("/api/reports/special", func(r chi.Router) {
			r.Post("/", deps.ReportHandler.CreateSpecialReport)
			r.Get("/", deps.ReportHandler.ListSpecialReports)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.ReportHandler.GetSpecialReport)
				r.Put("/", deps.ReportHandler.UpdateSpecialReport)
				r.Delete("/", deps.ReportHandler.DeleteSpecialReport)
			})
		})
	})

	return r
}
