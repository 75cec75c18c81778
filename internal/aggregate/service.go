package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Service は設定されたプロバイダからアイテムを集め、アグリゲートフィードを描画する。
// リクエストごとにストアから読み直すステートレスな読み取りパスで、
// 取り込みパイプラインとは独立している。
type Service struct {
	providers     []Provider
	generator     *Generator
	channel       Channel
	providerLimit int
	maxItems      int
	logger        *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
// providerNamesの順にregistryからプロバイダを解決する。未知の名前はエラーを返す。
func NewService(
	registry []Provider,
	providerNames []string,
	generator *Generator,
	channel Channel,
	providerLimit int,
	maxItems int,
	logger *slog.Logger,
) (*Service, error) {
	byName := make(map[string]Provider, len(registry))
	for _, p := range registry {
		byName[p.Name()] = p
	}

	providers := make([]Provider, 0, len(providerNames))
	for _, name := range providerNames {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("未知のアグリゲートプロバイダです: %q", name)
		}
		providers = append(providers, p)
	}

	if providerLimit <= 0 {
		providerLimit = 20
	}
	if maxItems <= 0 {
		maxItems = 50
	}

	return &Service{
		providers:     providers,
		generator:     generator,
		channel:       channel,
		providerLimit: providerLimit,
		maxItems:      maxItems,
		logger:        logger,
	}, nil
}

// Render はアグリゲートフィードのRSS 2.0文書を生成する。
// いずれかのプロバイダでストア読み取りに失敗した場合はエラーを返す
// （部分的なフィードは返さない）。
func (s *Service) Render(ctx context.Context, lang string) (string, error) {
	items, err := s.collect(ctx, lang)
	if err != nil {
		return "", err
	}
	return s.generator.Render(s.channel, items, time.Now()), nil
}

// collect は有効な全プロバイダからアイテムを集め、
// 公開日時降順にソートして上限件数まで切り詰める。
func (s *Service) collect(ctx context.Context, lang string) ([]Item, error) {
	var items []Item

	for _, provider := range s.providers {
		fetched, err := provider.Fetch(ctx, lang, s.providerLimit)
		if err != nil {
			return nil, fmt.Errorf("プロバイダ %s のアイテム取得に失敗しました: %w", provider.Name(), err)
		}
		s.logger.Debug("アグリゲートプロバイダからアイテムを取得しました",
			slog.String("provider", provider.Name()),
			slog.Int("count", len(fetched)),
		)
		items = append(items, fetched...)
	}

	// マージ後に1回だけソートして上限を適用する
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishDate.After(items[j].PublishDate)
	})
	if len(items) > s.maxItems {
		items = items[:s.maxItems]
	}

	return items, nil
}
