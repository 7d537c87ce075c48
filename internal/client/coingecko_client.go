package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ctmes/CryptoTwin/internal/cache"
	"github.com/ctmes/CryptoTwin/internal/domain/entity"
	wire "github.com/ctmes/CryptoTwin/internal/entity"
	"github.com/ctmes/CryptoTwin/internal/fetcher"
	"github.com/ctmes/CryptoTwin/internal/pkg/utils"
	"github.com/ctmes/CryptoTwin/internal/scheduler"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CoinGeckoClient defines the typed accessors over the upstream market API.
// Every operation is cache-first and dispatches misses through the shared
// request scheduler, so callers may invoke them concurrently without
// breaching the upstream rate limit.
type CoinGeckoClient interface {
	// GetSimplePrice fetches the current snapshot for one coin in one
	// currency.
	GetSimplePrice(ctx context.Context, coinID, currency string) (*entity.MarketData, error)

	// GetSimplePrices fetches snapshots for several coins. Coins whose fetch
	// fails are omitted from the result map; absence means "data not
	// currently available", not an error.
	GetSimplePrices(ctx context.Context, coinIDs []string, currency string) (map[string]*entity.MarketData, error)

	// GetMarketChart fetches one coin's historical series over a window.
	GetMarketChart(ctx context.Context, coinID string, window entity.Window, currency string) (entity.HistorySeries, error)

	// GetMarketCharts fetches several coins' series, preserving input order
	// in the output. A coin whose fetch fails yields a series with no
	// points.
	GetMarketCharts(ctx context.Context, coinIDs []string, window entity.Window, currency string) ([]entity.HistorySeries, error)

	// SearchTokens queries the upstream free-text search, capped at the
	// configured result limit.
	SearchTokens(ctx context.Context, query string) ([]entity.Token, error)

	// ListCoins fetches the full listing of known coin ids with market-cap
	// rank.
	ListCoins(ctx context.Context) ([]entity.CoinListing, error)
}

// Options configures a coinGeckoClientImpl.
type Options struct {
	BaseURL           string
	CacheTTL          time.Duration
	CacheCleanup      time.Duration
	SnapshotBatchSize int
	HistoryBatchSize  int
	SearchResultLimit int
}

// coinGeckoClientImpl is the implementation of CoinGeckoClient.
type coinGeckoClientImpl struct {
	fetcher *fetcher.Fetcher
	queue   *scheduler.Queue
	opts    Options
	logger  *zap.Logger

	priceCache   *cache.Store[*entity.MarketData]
	historyCache *cache.Store[entity.HistorySeries]
	searchCache  *cache.Store[[]entity.Token]
}

// NewCoinGeckoClient creates a new instance of CoinGeckoClient.
func NewCoinGeckoClient(f *fetcher.Fetcher, queue *scheduler.Queue, opts Options, logger *zap.Logger) CoinGeckoClient {
	return &coinGeckoClientImpl{
		fetcher:      f,
		queue:        queue,
		opts:         opts,
		logger:       logger.Named("CoinGeckoClient"),
		priceCache:   cache.New[*entity.MarketData]("price", opts.CacheTTL, opts.CacheCleanup),
		historyCache: cache.New[entity.HistorySeries]("history", opts.CacheTTL, opts.CacheCleanup),
		searchCache:  cache.New[[]entity.Token]("search", opts.CacheTTL, opts.CacheCleanup),
	}
}

func priceCacheKey(coinID, currency string) string {
	return fmt.Sprintf("data:%s:%s", coinID, currency)
}

func historyCacheKey(coinID string, days int, currency string) string {
	return fmt.Sprintf("history:%s:%d:%s", coinID, days, currency)
}

// GetSimplePrice implements the CoinGeckoClient interface.
func (c *coinGeckoClientImpl) GetSimplePrice(ctx context.Context, coinID, currency string) (*entity.MarketData, error) {
	cacheKey := priceCacheKey(coinID, currency)
	if cached, ok := c.priceCache.Get(cacheKey); ok {
		return cached, nil
	}

	requestURL := fmt.Sprintf(
		"%s/simple/price?ids=%s&vs_currencies=%s&include_24hr_change=true&include_24hr_vol=true&include_market_cap=true&include_last_updated_at=true",
		strings.TrimRight(c.opts.BaseURL, "/"), url.QueryEscape(coinID), url.QueryEscape(currency))

	data, err := scheduler.Schedule(c.queue, func() (*entity.MarketData, error) {
		body, err := c.fetcher.Fetch(ctx, requestURL)
		if err != nil {
			return nil, err
		}
		var raw wire.SimplePriceResponse
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal simple price response for %s: %w", coinID, err)
		}
		fields, ok := raw[coinID]
		if !ok {
			return nil, fmt.Errorf("no market data returned for coin %q", coinID)
		}
		return entity.MarketDataFromSimplePrice(fields), nil
	})
	if err != nil {
		return nil, err
	}

	c.priceCache.Set(cacheKey, data)
	return data, nil
}

// GetSimplePrices implements the CoinGeckoClient interface. Cached coins are
// answered locally; the rest are fetched in parallel sub-batches, each batch
// awaited before the next is issued.
func (c *coinGeckoClientImpl) GetSimplePrices(ctx context.Context, coinIDs []string, currency string) (map[string]*entity.MarketData, error) {
	result := make(map[string]*entity.MarketData, len(coinIDs))
	var uncached []string

	for _, coinID := range coinIDs {
		if cached, ok := c.priceCache.Get(priceCacheKey(coinID, currency)); ok {
			result[coinID] = cached
		} else {
			uncached = append(uncached, coinID)
		}
	}

	var mu sync.Mutex
	for _, batch := range utils.BatchStrings(uncached, c.opts.SnapshotBatchSize) {
		eg, batchCtx := errgroup.WithContext(ctx)
		for _, coinID := range batch {
			eg.Go(func() error {
				data, err := c.GetSimplePrice(batchCtx, coinID, currency)
				if err != nil {
					// Partial success is valid; the failed coin is simply
					// absent from the result.
					c.logger.Warn("Failed to fetch market data for coin",
						zap.String("coinID", coinID),
						zap.String("currency", currency),
						zap.Error(err))
					return nil
				}
				mu.Lock()
				result[coinID] = data
				mu.Unlock()
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return result, err
		}
	}

	return result, nil
}

// GetMarketChart implements the CoinGeckoClient interface.
func (c *coinGeckoClientImpl) GetMarketChart(ctx context.Context, coinID string, window entity.Window, currency string) (entity.HistorySeries, error) {
	days := window.Days()
	cacheKey := historyCacheKey(coinID, days, currency)
	if cached, ok := c.historyCache.Get(cacheKey); ok {
		return cached, nil
	}

	requestURL := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d&interval=%s",
		strings.TrimRight(c.opts.BaseURL, "/"), url.PathEscape(coinID),
		url.QueryEscape(currency), days, window.Interval())

	series, err := scheduler.Schedule(c.queue, func() (entity.HistorySeries, error) {
		var series entity.HistorySeries
		body, err := c.fetcher.Fetch(ctx, requestURL)
		if err != nil {
			return series, err
		}
		if err := json.Unmarshal(body, &series); err != nil {
			return series, fmt.Errorf("failed to unmarshal market chart for %s: %w", coinID, err)
		}
		series.CoinID = coinID
		return series, nil
	})
	if err != nil {
		return entity.HistorySeries{CoinID: coinID}, err
	}

	c.historyCache.Set(cacheKey, series)
	return series, nil
}

// GetMarketCharts implements the CoinGeckoClient interface.
func (c *coinGeckoClientImpl) GetMarketCharts(ctx context.Context, coinIDs []string, window entity.Window, currency string) ([]entity.HistorySeries, error) {
	results := make([]entity.HistorySeries, len(coinIDs))

	base := 0
	for _, batch := range utils.BatchStrings(coinIDs, c.opts.HistoryBatchSize) {
		eg, batchCtx := errgroup.WithContext(ctx)
		for offset, coinID := range batch {
			index := base + offset
			eg.Go(func() error {
				series, err := c.GetMarketChart(batchCtx, coinID, window, currency)
				if err != nil {
					c.logger.Warn("Failed to fetch history for coin",
						zap.String("coinID", coinID),
						zap.String("window", string(window)),
						zap.Error(err))
					results[index] = entity.HistorySeries{CoinID: coinID}
					return nil
				}
				results[index] = series
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return results, err
		}
		base += len(batch)
	}

	return results, nil
}

// SearchTokens implements the CoinGeckoClient interface.
func (c *coinGeckoClientImpl) SearchTokens(ctx context.Context, query string) ([]entity.Token, error) {
	if query == "" {
		return nil, nil
	}
	cacheKey := "search:" + query
	if cached, ok := c.searchCache.Get(cacheKey); ok {
		return cached, nil
	}

	requestURL := fmt.Sprintf("%s/search?query=%s",
		strings.TrimRight(c.opts.BaseURL, "/"), url.QueryEscape(query))

	tokens, err := scheduler.Schedule(c.queue, func() ([]entity.Token, error) {
		body, err := c.fetcher.Fetch(ctx, requestURL)
		if err != nil {
			return nil, err
		}
		var raw wire.SearchResponse
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal search response for %q: %w", query, err)
		}
		limit := c.opts.SearchResultLimit
		tokens := make([]entity.Token, 0, limit)
		for _, coin := range raw.Coins {
			if len(tokens) >= limit {
				break
			}
			tokens = append(tokens, entity.Token{
				ID:     coin.ID,
				Symbol: strings.ToUpper(coin.Symbol),
				Name:   coin.Name,
			})
		}
		return tokens, nil
	})
	if err != nil {
		return nil, err
	}

	c.searchCache.Set(cacheKey, tokens)
	return tokens, nil
}

// ListCoins implements the CoinGeckoClient interface. The listing is a
// bootstrap call made once per directory cycle, so it bypasses the scheduler
// queue and relies on the fetcher's retry policy alone.
func (c *coinGeckoClientImpl) ListCoins(ctx context.Context) ([]entity.CoinListing, error) {
	requestURL := strings.TrimRight(c.opts.BaseURL, "/") + "/coins/list"

	body, err := c.fetcher.Fetch(ctx, requestURL)
	if err != nil {
		return nil, err
	}
	var raw []wire.CoinListEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coin listing: %w", err)
	}

	listings := make([]entity.CoinListing, 0, len(raw))
	for _, entry := range raw {
		listings = append(listings, entity.CoinListing{
			Token: entity.Token{
				ID:     entry.ID,
				Symbol: strings.ToUpper(entry.Symbol),
				Name:   entry.Name,
			},
			MarketCapRank: entry.MarketCapRank,
		})
	}
	return listings, nil
}
