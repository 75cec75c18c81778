// Package app はアプリケーションの起動と依存関係の組み立てを行う。
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/ainews/internal/aggregate"
	"github.com/hitoshi/ainews/internal/config"
	"github.com/hitoshi/ainews/internal/database"
	"github.com/hitoshi/ainews/internal/feed"
	"github.com/hitoshi/ainews/internal/handler"
	"github.com/hitoshi/ainews/internal/ingest"
	"github.com/hitoshi/ainews/internal/logger"
	"github.com/hitoshi/ainews/internal/metrics"
	"github.com/hitoshi/ainews/internal/middleware"
	"github.com/hitoshi/ainews/internal/repository"
	"github.com/hitoshi/ainews/internal/security"
)

// usage はサブコマンドの使い方を出力する。
const usage = `Usage: ainews <command>

Commands:
  serve        HTTPサーバーを起動する（デフォルト）
  ingest [id]  取り込みバッチを1回実行する。idを省略すると全アクティブソースが対象
  migrate      データベースマイグレーションを適用する
  healthcheck  データベース疎通を確認して終了コードで結果を返す
`

// Run はコマンドライン引数に応じてアプリケーションを実行し、終了コードを返す。
func Run(w io.Writer, args []string) int {
	logger.SetupDefault(w)
	log := slog.Default()

	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("設定の読み込みに失敗しました", slog.String("error", err.Error()))
		return 1
	}

	switch command {
	case "serve":
		return runServe(cfg, log)
	case "ingest":
		feedID := ""
		if len(args) > 1 {
			feedID = args[1]
		}
		return runIngest(w, cfg, log, feedID)
	case "migrate":
		return runMigrate(cfg, log)
	case "healthcheck":
		return runHealthcheck(cfg, log)
	default:
		fmt.Fprint(w, usage)
		return 2
	}
}

// deps はアプリケーションの組み立て済み依存関係を保持する。
type deps struct {
	db        *sql.DB
	runner    *ingest.Runner
	feedSvc   *aggregate.Service
	collector *metrics.Collector
	router    http.Handler
	limiter   *middleware.RateLimiter
}

// build は設定から全コンポーネントを組み立てる。
func build(cfg *config.Config, log *slog.Logger) (*deps, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベース接続のオープンに失敗しました: %w", err)
	}

	sourceRepo := repository.NewPostgresSourceRepo(db)
	entryRepo := repository.NewPostgresEntryRepo(db)
	periodicRepo := repository.NewPostgresPeriodicReportRepo(db)
	specialRepo := repository.NewPostgresSpecialReportRepo(db)

	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	fetcher := ingest.NewFetcher(ssrfGuard, log, cfg.FetchUserAgent, cfg.FetchTimeout, cfg.FetchMaxSize)
	runner := ingest.NewRunner(sourceRepo, entryRepo, fetcher, sanitizer, collector, log, cfg.FetchMaxConcurrent)

	summarizer := aggregate.NewTextSummarizer(sanitizer, cfg.SummaryMaxChars)
	channel := aggregate.Channel{
		Title:       cfg.FeedTitle,
		Link:        cfg.BaseURL,
		Description: cfg.FeedDescription,
		Language:    cfg.FeedLanguage,
		SelfURL:     cfg.BaseURL + "/feed.xml",
		TTLMinutes:  cfg.FeedTTLMinutes,
	}
	feedSvc, err := aggregate.NewService(
		[]aggregate.Provider{
			aggregate.NewPeriodicReportProvider(periodicRepo, summarizer, cfg.BaseURL),
			aggregate.NewSpecialReportProvider(specialRepo, summarizer, cfg.BaseURL),
			aggregate.NewEntryProvider(entryRepo, summarizer),
		},
		cfg.AggregateProviders,
		aggregate.NewGenerator(),
		channel,
		cfg.AggregateProviderLimit,
		cfg.AggregateMaxItems,
		log,
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	detector := feed.NewFeedDetector(ssrfGuard)
	limiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitIngest))

	router := handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		LoggingMiddleware: middleware.NewLoggingMiddleware(log),
		SourceHandler:     handler.NewSourceHandler(detector, sourceRepo),
		IngestHandler:     handler.NewIngestHandler(runner),
		ReportHandler:     handler.NewReportHandler(periodicRepo, specialRepo, sanitizer),
		FeedHandler:       handler.NewFeedHandler(feedSvc, collector, log, 3600),
		HealthHandler:     handler.NewHealthHandler(db),
		MetricsHandler:    metrics.Handler(prometheus.DefaultGatherer),
	})

	return &deps{
		db:        db,
		runner:    runner,
		feedSvc:   feedSvc,
		collector: collector,
		router:    router,
		limiter:   limiter,
	}, nil
}

// runServe はHTTPサーバーを起動し、シグナル受信時にグレースフルに停止する。
func runServe(cfg *config.Config, log *slog.Logger) int {
	d, err := build(cfg, log)
	if err != nil {
		log.Error("アプリケーションの組み立てに失敗しました", slog.String("error", err.Error()))
		return 1
	}
	defer d.db.Close()
	defer d.limiter.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           d.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTPサーバーを起動します", slog.String("port", cfg.ServerPort))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTPサーバーが異常終了しました", slog.String("error", err.Error()))
			return 1
		}
	case <-ctx.Done():
		log.Info("シャットダウンシグナルを受信しました")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("グレースフルシャットダウンに失敗しました", slog.String("error", err.Error()))
		return 1
	}

	log.Info("HTTPサーバーを停止しました")
	return 0
}

// runIngest は取り込みバッチを1回実行し、結果レポートをJSONで出力する。
// 外部スケジューラ（cron等）からの定期実行を想定している。
func runIngest(w io.Writer, cfg *config.Config, log *slog.Logger, feedID string) int {
	d, err := build(cfg, log)
	if err != nil {
		log.Error("アプリケーションの組み立てに失敗しました", slog.String("error", err.Error()))
		return 1
	}
	defer d.db.Close()
	defer d.limiter.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := d.runner.Run(ctx, feedID)
	if err != nil {
		log.Error("取り込みバッチの実行に失敗しました", slog.String("error", err.Error()))
		return 1
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		log.Error("結果レポートの出力に失敗しました", slog.String("error", err.Error()))
		return 1
	}

	return 0
}

// runMigrate はデータベースマイグレーションを適用する。
func runMigrate(cfg *config.Config, log *slog.Logger) int {
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Error("マイグレーションの適用に失敗しました", slog.String("error", err.Error()))
		return 1
	}
	log.Info("マイグレーションを適用しました")
	return 0
}

// runHealthcheck はデータベース疎通を確認する。コンテナのヘルスチェックを想定している。
func runHealthcheck(cfg *config.Config, log *slog.Logger) int {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("データベース接続のオープンに失敗しました", slog.String("error", err.Error()))
		return 1
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Error("データベース疎通の確認に失敗しました", slog.String("error", err.Error()))
		return 1
	}

	log.Info("ヘルスチェックに成功しました")
	return 0
}
