package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ctmes/CryptoTwin/internal/directory"
	"github.com/ctmes/CryptoTwin/internal/domain/entity"
	"github.com/ctmes/CryptoTwin/internal/service"
)

// stubClient is a minimal CoinGeckoClient for handler tests.
type stubClient struct {
	failCoins map[string]bool
}

func (s *stubClient) GetSimplePrice(ctx context.Context, coinID, currency string) (*entity.MarketData, error) {
	if s.failCoins[coinID] {
		return nil, fmt.Errorf("upstream failure for %s", coinID)
	}
	return &entity.MarketData{
		PriceByCurrency:     map[string]float64{currency: 100},
		Change24hByCurrency: map[string]float64{currency: 1},
		Volume24hByCurrency: map[string]float64{currency: 1000},
		MarketCapByCurrency: map[string]float64{currency: 10000},
	}, nil
}

func (s *stubClient) GetSimplePrices(ctx context.Context, coinIDs []string, currency string) (map[string]*entity.MarketData, error) {
	result := make(map[string]*entity.MarketData)
	for _, id := range coinIDs {
		if md, err := s.GetSimplePrice(ctx, id, currency); err == nil {
			result[id] = md
		}
	}
	return result, nil
}

func (s *stubClient) GetMarketChart(ctx context.Context, coinID string, window entity.Window, currency string) (entity.HistorySeries, error) {
	return entity.HistorySeries{
		CoinID: coinID,
		Prices: []entity.PricePoint{{Timestamp: 1, Value: 10}, {Timestamp: 2, Value: 11}},
	}, nil
}

func (s *stubClient) GetMarketCharts(ctx context.Context, coinIDs []string, window entity.Window, currency string) ([]entity.HistorySeries, error) {
	out := make([]entity.HistorySeries, len(coinIDs))
	for i, id := range coinIDs {
		out[i], _ = s.GetMarketChart(ctx, id, window, currency)
	}
	return out, nil
}

func (s *stubClient) SearchTokens(ctx context.Context, query string) ([]entity.Token, error) {
	return []entity.Token{{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"}}, nil
}

func (s *stubClient) ListCoins(ctx context.Context) ([]entity.CoinListing, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stub := &stubClient{failCoins: map[string]bool{"broken": true}}
	dir := directory.New(stub, directory.Config{
		BatchSize:          10,
		BatchDelay:         time.Millisecond,
		CycleTTL:           time.Minute,
		RestartDelay:       time.Millisecond,
		Currency:           "usd",
		SeedTokens:         []string{"bitcoin"},
		LocalSearchMinHits: 5,
		SearchResultLimit:  10,
	}, zap.NewNop())
	corr := service.NewCorrelationService(stub, dir, 15, zap.NewNop())
	handler := NewMarketHandler(stub, dir, corr, zap.NewNop())
	return SetupRouter(handler, zap.NewNop())
}

func doRequest(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestGetPricesHandler(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/prices?ids=bitcoin,broken&currency=eur")
	require.Equal(t, http.StatusOK, w.Code)

	data := body["data"].(map[string]any)
	assert.Contains(t, data, "bitcoin")
	assert.NotContains(t, data, "broken", "failed coins are omitted from the response")
	assert.Equal(t, "eur", body["currency"])
}

func TestGetPricesHandlerRequiresIDs(t *testing.T) {
	router := newTestRouter(t)
	w, _ := doRequest(t, router, "/api/v1/prices")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHistoryHandler(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/history?ids=bitcoin&window=7d")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7d", body["window"])

	w, _ = doRequest(t, router, "/api/v1/history?ids=bitcoin&window=90d")
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown windows are rejected")
}

func TestSearchHandlerEmptyQuery(t *testing.T) {
	router := newTestRouter(t)
	w, body := doRequest(t, router, "/api/v1/search")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["data"])
}

func TestGetTokenHandler(t *testing.T) {
	router := newTestRouter(t)
	w, body := doRequest(t, router, "/api/v1/tokens/shiba-inu")
	require.Equal(t, http.StatusOK, w.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, "shiba-inu", data["id"])
	assert.Equal(t, "Shiba Inu", data["name"])
}

func TestGetCurrenciesHandler(t *testing.T) {
	router := newTestRouter(t)
	w, body := doRequest(t, router, "/api/v1/currencies")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], len(entity.SupportedCurrencies))
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(t)
	w, body := doRequest(t, router, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}
