// Package directory maintains a continuously self-refreshing snapshot of the
// token universe. A background loop pages through the full coin listing in
// fixed-size batches, keeping a broad set of per-token market snapshots warm
// for fuzzy search and similarity ranking without any caller traffic.
package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ctmes/CryptoTwin/internal/client"
	"github.com/ctmes/CryptoTwin/internal/domain/entity"
	"github.com/ctmes/CryptoTwin/internal/pkg/metrics"
)

const (
	similarityPriceWeight     = 0.3
	similarityVolumeWeight    = 0.3
	similarityMarketCapWeight = 0.4
)

// Config holds the refresh loop parameters.
type Config struct {
	// BatchSize is the number of token ids refreshed per loop iteration.
	BatchSize int
	// BatchDelay is the pause between refresh batches, on top of the request
	// scheduler's own pacing.
	BatchDelay time.Duration
	// CycleTTL is both the snapshot freshness window and the pause after a
	// full pass over the token list, bounding sustained request volume to
	// one full pass per TTL window.
	CycleTTL time.Duration
	// RestartDelay is the pause before the loop resumes after a failed
	// iteration.
	RestartDelay time.Duration
	// Currency is the quote currency for all directory snapshots.
	Currency string
	// SeedTokens keeps the directory usable when the initial full listing
	// fetch fails.
	SeedTokens []string
	// LocalSearchMinHits is the local match count below which Search
	// supplements results with a live upstream query.
	LocalSearchMinHits int
	// SearchResultLimit caps combined search results.
	SearchResultLimit int
}

// Directory is the token directory cache. One instance per process; the
// owning composition constructs it and drives its lifecycle via Start and
// Stop. All internal state is guarded by mu and never handed out by
// reference.
type Directory struct {
	client client.CoinGeckoClient
	cfg    Config
	logger *zap.Logger

	mu        sync.RWMutex
	snapshots map[string]*entity.TokenSnapshot
	order     []string // insertion order of snapshot ids
	tokenIDs  []string // full scan list, descending market-cap rank
	cursor    int
	lastErr   error

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a stopped Directory.
func New(c client.CoinGeckoClient, cfg Config, logger *zap.Logger) *Directory {
	return &Directory{
		client:    c,
		cfg:       cfg,
		logger:    logger.Named("TokenDirectory"),
		snapshots: make(map[string]*entity.TokenSnapshot),
	}
}

// Start launches the background refresh loop. Calling Start on a running
// directory is a no-op.
func (d *Directory) Start(ctx context.Context) {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.mu.Unlock()

	go d.run(loopCtx)
}

// Stop cancels the refresh loop and waits for it to exit. Accumulated
// snapshots remain queryable after Stop.
func (d *Directory) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// LastError returns the most recent refresh loop error, if any.
func (d *Directory) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

// run is the supervised refresh loop. Iteration failures are recorded and
// the loop resumes after RestartDelay; it only exits on context cancellation.
func (d *Directory) run(ctx context.Context) {
	defer close(d.done)

	d.initTokenList(ctx)

	for {
		if ctx.Err() != nil {
			return
		}

		wrapped, err := d.refreshNextBatch(ctx)
		switch {
		case err != nil:
			d.mu.Lock()
			d.lastErr = err
			d.mu.Unlock()
			d.logger.Error("Directory refresh iteration failed", zap.Error(err))
			if !sleepCtx(ctx, d.cfg.RestartDelay) {
				return
			}
		case wrapped:
			d.logger.Info("Completed full pass over token list, pausing for one TTL window",
				zap.Int("tokens", len(d.tokenIDs)))
			if !sleepCtx(ctx, d.cfg.CycleTTL) {
				return
			}
		default:
			if !sleepCtx(ctx, d.cfg.BatchDelay) {
				return
			}
		}
	}
}

// initTokenList fetches the full coin listing sorted by descending
// market-cap rank, falling back to the seed list so the directory stays
// usable degraded.
func (d *Directory) initTokenList(ctx context.Context) {
	listings, err := d.client.ListCoins(ctx)
	if err != nil || len(listings) == 0 {
		d.logger.Warn("Failed to initialize token list, falling back to seed tokens",
			zap.Int("seedCount", len(d.cfg.SeedTokens)),
			zap.Error(err))
		d.mu.Lock()
		d.tokenIDs = append([]string(nil), d.cfg.SeedTokens...)
		d.lastErr = err
		d.mu.Unlock()
		return
	}

	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].MarketCapRank > listings[j].MarketCapRank
	})
	ids := make([]string, 0, len(listings))
	for _, listing := range listings {
		ids = append(ids, listing.ID)
	}

	d.mu.Lock()
	d.tokenIDs = ids
	d.mu.Unlock()
	d.logger.Info("Initialized token list", zap.Int("tokens", len(ids)))
}

// refreshNextBatch refreshes the batch at the current cursor and advances it.
// The returned flag reports a wraparound: the cursor passed the end of the
// list and reset to zero.
func (d *Directory) refreshNextBatch(ctx context.Context) (bool, error) {
	d.mu.RLock()
	total := len(d.tokenIDs)
	start := d.cursor
	d.mu.RUnlock()

	if total == 0 {
		// Listing and seed both empty; nothing to refresh this cycle.
		return true, nil
	}

	end := start + d.cfg.BatchSize
	if end > total {
		end = total
	}
	batch := make([]string, end-start)
	d.mu.RLock()
	copy(batch, d.tokenIDs[start:end])
	d.mu.RUnlock()

	data, err := d.client.GetSimplePrices(ctx, batch, d.cfg.Currency)
	if err != nil {
		return false, err
	}

	now := time.Now()
	d.mu.Lock()
	for _, id := range batch {
		snap, exists := d.snapshots[id]
		if !exists {
			snap = &entity.TokenSnapshot{Token: entity.TokenFromID(id)}
			d.snapshots[id] = snap
			d.order = append(d.order, id)
		}
		if md, ok := data[id]; ok {
			snap.MarketData = md
		}
		snap.LastUpdated = now
	}

	wrapped := false
	d.cursor += d.cfg.BatchSize
	if d.cursor >= total {
		d.cursor = 0
		wrapped = true
	}
	metrics.DirectorySize.Set(float64(len(d.snapshots)))
	d.mu.Unlock()

	metrics.DirectoryBatches.Inc()
	d.logger.Debug("Refreshed directory batch",
		zap.Int("batchSize", len(batch)),
		zap.Int("cursor", start),
		zap.Bool("wrapped", wrapped))
	return wrapped, nil
}

// GetToken returns a fresh snapshot for tokenID, fetching on demand when the
// directory copy is missing or older than the TTL window.
func (d *Directory) GetToken(ctx context.Context, tokenID string) (entity.TokenSnapshot, error) {
	d.mu.RLock()
	snap, exists := d.snapshots[tokenID]
	if exists && time.Since(snap.LastUpdated) < d.cfg.CycleTTL {
		fresh := *snap
		d.mu.RUnlock()
		return fresh, nil
	}
	d.mu.RUnlock()

	data, err := d.client.GetSimplePrices(ctx, []string{tokenID}, d.cfg.Currency)
	if err != nil {
		return entity.TokenSnapshot{}, err
	}

	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	snap, exists = d.snapshots[tokenID]
	if !exists {
		snap = &entity.TokenSnapshot{Token: entity.TokenFromID(tokenID)}
		d.snapshots[tokenID] = snap
		d.order = append(d.order, tokenID)
	}
	if md, ok := data[tokenID]; ok {
		snap.MarketData = md
	}
	snap.LastUpdated = now
	return *snap, nil
}

// PopularTokens returns every directory entry with populated market data, in
// insertion order. Callers typically re-sort by market cap descending.
func (d *Directory) PopularTokens() []entity.TokenSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tokens := make([]entity.TokenSnapshot, 0, len(d.order))
	for _, id := range d.order {
		if snap := d.snapshots[id]; snap.MarketData != nil {
			tokens = append(tokens, *snap)
		}
	}
	return tokens
}

// Search matches query case-insensitively against the cached names and
// symbols; when fewer than LocalSearchMinHits local matches exist, live
// upstream results are appended, deduplicated by id, up to the result limit.
func (d *Directory) Search(ctx context.Context, query string) ([]entity.Token, error) {
	needle := strings.ToLower(query)

	d.mu.RLock()
	local := make([]entity.Token, 0, d.cfg.LocalSearchMinHits)
	for _, id := range d.order {
		if len(local) >= d.cfg.LocalSearchMinHits {
			break
		}
		snap := d.snapshots[id]
		if strings.Contains(strings.ToLower(snap.Name), needle) ||
			strings.Contains(strings.ToLower(snap.Symbol), needle) {
			local = append(local, snap.Token)
		}
	}
	d.mu.RUnlock()

	if len(local) >= d.cfg.LocalSearchMinHits {
		return local, nil
	}

	remote, err := d.client.SearchTokens(ctx, query)
	if err != nil {
		// Degraded but usable: local matches still stand.
		d.logger.Warn("Live search failed, returning local matches only",
			zap.String("query", query), zap.Error(err))
		return local, nil
	}

	combined := local
	seen := make(map[string]struct{}, len(local))
	for _, token := range local {
		seen[token.ID] = struct{}{}
	}
	for _, token := range remote {
		if len(combined) >= d.cfg.SearchResultLimit {
			break
		}
		if _, dup := seen[token.ID]; dup {
			continue
		}
		seen[token.ID] = struct{}{}
		combined = append(combined, token)
	}
	return combined, nil
}

// SimilarTokens ranks every other entry with populated market data by
// weighted magnitude similarity to the reference token and returns the top
// limit entries. An unknown reference or one without market data yields nil.
func (d *Directory) SimilarTokens(tokenID string, limit int) []entity.Token {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ref, exists := d.snapshots[tokenID]
	if !exists || ref.MarketData == nil {
		return nil
	}
	currency := d.cfg.Currency

	type scored struct {
		token entity.Token
		score float64
	}
	candidates := make([]scored, 0, len(d.order))
	for _, id := range d.order {
		if id == tokenID {
			continue
		}
		snap := d.snapshots[id]
		if snap.MarketData == nil {
			continue
		}
		candidates = append(candidates, scored{
			token: snap.Token,
			score: Similarity(ref.MarketData, snap.MarketData, currency),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	tokens := make([]entity.Token, 0, len(candidates))
	for _, c := range candidates {
		tokens = append(tokens, c.token)
	}
	return tokens
}

// Similarity scores how close two market snapshots are in magnitude: the
// min/max ratios of price, 24h volume and market cap in the given currency,
// weighted 0.3/0.3/0.4. 1.0 means identical magnitudes; the score approaches
// zero as they diverge. The measure is symmetric in its arguments.
func Similarity(a, b *entity.MarketData, currency string) float64 {
	return magnitudeRatio(a.Price(currency), b.Price(currency))*similarityPriceWeight +
		magnitudeRatio(a.Volume24h(currency), b.Volume24h(currency))*similarityVolumeWeight +
		magnitudeRatio(a.MarketCap(currency), b.MarketCap(currency))*similarityMarketCapWeight
}

// magnitudeRatio is min(a,b)/max(a,b), with non-positive inputs scoring 0.
func magnitudeRatio(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return a / b
}

// sleepCtx sleeps for d or until ctx is cancelled, reporting whether the full
// sleep completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
