package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Fetch
	FetchTimeout       time.Duration
	FetchMaxSize       int64
	FetchMaxConcurrent int
	FetchUserAgent     string

	// Aggregate Feed
	FeedTitle              string
	FeedDescription        string
	FeedLanguage           string
	FeedTTLMinutes         int
	AggregateProviders     []string
	AggregateProviderLimit int
	AggregateMaxItems      int
	SummaryMaxChars        int

	// Rate Limit
	RateLimitGeneral int
	RateLimitIngest  int

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// knownProviders は設定で指定可能なアグリゲートプロバイダ名。
var knownProviders = map[string]bool{
	"periodic": true,
	"special":  true,
	"entries":  true,
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	// Optional fields with defaults
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 30*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.FetchMaxConcurrent = getEnvInt("FETCH_MAX_CONCURRENT", 4)
	cfg.FetchUserAgent = getEnvString("FETCH_USER_AGENT",
		fmt.Sprintf("AINews FeedBot/1.0 (+%s)", cfg.BaseURL))

	cfg.FeedTitle = getEnvString("FEED_TITLE", "AI News Digest")
	cfg.FeedDescription = getEnvString("FEED_DESCRIPTION", "生成AIニュースの週次ダイジェストと特集レポート")
	cfg.FeedLanguage = getEnvString("FEED_LANGUAGE", "ja")
	cfg.FeedTTLMinutes = getEnvInt("FEED_TTL_MINUTES", 60)

	providers, err := parseProviders(getEnvString("AGGREGATE_PROVIDERS", "periodic,special,entries"))
	if err != nil {
		return nil, err
	}
	cfg.AggregateProviders = providers
	cfg.AggregateProviderLimit = getEnvInt("AGGREGATE_PROVIDER_LIMIT", 20)
	cfg.AggregateMaxItems = getEnvInt("AGGREGATE_MAX_ITEMS", 50)
	cfg.SummaryMaxChars = getEnvInt("SUMMARY_MAX_CHARS", 300)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitIngest = getEnvInt("RATE_LIMIT_INGEST", 10)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// parseProviders はカンマ区切りのプロバイダ指定を検証つきで分解する。
func parseProviders(raw string) ([]string, error) {
	var providers []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !knownProviders[p] {
			return nil, fmt.Errorf("unknown aggregate provider in AGGREGATE_PROVIDERS: %q", p)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("AGGREGATE_PROVIDERS must name at least one provider")
	}
	return providers, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
