package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ctmes/CryptoTwin/internal/domain/entity"
)

// fakePool scripts the candidate sets.
type fakePool struct {
	similar []entity.Token
	popular []entity.TokenSnapshot
}

func (f *fakePool) SimilarTokens(tokenID string, limit int) []entity.Token { return f.similar }
func (f *fakePool) PopularTokens() []entity.TokenSnapshot                  { return f.popular }

// fakeHistoryClient returns a scripted price series per coin id.
type fakeHistoryClient struct {
	series map[string][]float64
}

func (f *fakeHistoryClient) GetSimplePrice(ctx context.Context, coinID, currency string) (*entity.MarketData, error) {
	return nil, nil
}

func (f *fakeHistoryClient) GetSimplePrices(ctx context.Context, coinIDs []string, currency string) (map[string]*entity.MarketData, error) {
	return nil, nil
}

func (f *fakeHistoryClient) GetMarketChart(ctx context.Context, coinID string, window entity.Window, currency string) (entity.HistorySeries, error) {
	return f.seriesFor(coinID), nil
}

func (f *fakeHistoryClient) GetMarketCharts(ctx context.Context, coinIDs []string, window entity.Window, currency string) ([]entity.HistorySeries, error) {
	out := make([]entity.HistorySeries, len(coinIDs))
	for i, id := range coinIDs {
		out[i] = f.seriesFor(id)
	}
	return out, nil
}

func (f *fakeHistoryClient) SearchTokens(ctx context.Context, query string) ([]entity.Token, error) {
	return nil, nil
}

func (f *fakeHistoryClient) ListCoins(ctx context.Context) ([]entity.CoinListing, error) {
	return nil, nil
}

func (f *fakeHistoryClient) seriesFor(coinID string) entity.HistorySeries {
	prices, ok := f.series[coinID]
	if !ok {
		return entity.HistorySeries{CoinID: coinID}
	}
	points := make([]entity.PricePoint, len(prices))
	for i, price := range prices {
		points[i] = entity.PricePoint{Timestamp: int64(i) * 60000, Value: price}
	}
	return entity.HistorySeries{CoinID: coinID, Prices: points}
}

func TestFindCorrelatedTokensRanksByReturnCorrelation(t *testing.T) {
	pool := &fakePool{similar: []entity.Token{
		entity.TokenFromID("mirror"),
		entity.TokenFromID("noise"),
		entity.TokenFromID("inverse"),
	}}
	c := &fakeHistoryClient{series: map[string][]float64{
		"bitcoin": {100, 110, 105, 120, 118},
		"mirror":  {10, 11, 10.5, 12, 11.8}, // same return profile as bitcoin
		"noise":   {50, 50.2, 49, 52, 48},
		"inverse": {100, 90, 95, 80, 82}, // anti-correlated, still |r| = 1
	}}

	svc := NewCorrelationService(c, pool, 15, zap.NewNop())
	results, err := svc.FindCorrelatedTokens(context.Background(), "bitcoin", entity.Window30d, "usd", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "mirror", results[0].Token.ID)
	assert.InDelta(t, 1.0, results[0].Correlation, 1e-9)
	assert.GreaterOrEqual(t, results[0].Correlation, results[1].Correlation)
}

func TestFindCorrelatedTokensSkipsMissingHistories(t *testing.T) {
	pool := &fakePool{similar: []entity.Token{
		entity.TokenFromID("mirror"),
		entity.TokenFromID("no-history"),
	}}
	c := &fakeHistoryClient{series: map[string][]float64{
		"bitcoin": {100, 110, 105},
		"mirror":  {10, 11, 10.5},
	}}

	svc := NewCorrelationService(c, pool, 15, zap.NewNop())
	results, err := svc.FindCorrelatedTokens(context.Background(), "bitcoin", entity.Window7d, "usd", 5)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "mirror", results[0].Token.ID)
}

func TestFindCorrelatedTokensFallsBackToPopular(t *testing.T) {
	pool := &fakePool{popular: []entity.TokenSnapshot{
		{Token: entity.TokenFromID("bitcoin")}, // reference itself is excluded
		{Token: entity.TokenFromID("mirror")},
	}}
	c := &fakeHistoryClient{series: map[string][]float64{
		"bitcoin": {100, 110, 105},
		"mirror":  {10, 11, 10.5},
	}}

	svc := NewCorrelationService(c, pool, 15, zap.NewNop())
	results, err := svc.FindCorrelatedTokens(context.Background(), "bitcoin", entity.Window30d, "usd", 5)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "mirror", results[0].Token.ID)
}

func TestFindCorrelatedTokensNoCandidates(t *testing.T) {
	svc := NewCorrelationService(&fakeHistoryClient{}, &fakePool{}, 15, zap.NewNop())
	_, err := svc.FindCorrelatedTokens(context.Background(), "bitcoin", entity.Window30d, "usd", 5)
	assert.Error(t, err)
}

func TestFindCorrelatedTokensNoMainHistory(t *testing.T) {
	pool := &fakePool{similar: []entity.Token{entity.TokenFromID("mirror")}}
	c := &fakeHistoryClient{series: map[string][]float64{
		"mirror": {10, 11, 10.5},
	}}

	svc := NewCorrelationService(c, pool, 15, zap.NewNop())
	_, err := svc.FindCorrelatedTokens(context.Background(), "bitcoin", entity.Window30d, "usd", 5)
	assert.Error(t, err)
}
