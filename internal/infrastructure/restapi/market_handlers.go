package restapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ctmes/CryptoTwin/internal/client"
	"github.com/ctmes/CryptoTwin/internal/directory"
	"github.com/ctmes/CryptoTwin/internal/domain/entity"
	"github.com/ctmes/CryptoTwin/internal/service"
)

const defaultCurrency = "usd"

// MarketHandler handles HTTP requests over the market-data core.
type MarketHandler struct {
	client         client.CoinGeckoClient
	directory      *directory.Directory
	correlationSvc service.CorrelationService
	logger         *zap.Logger
}

// NewMarketHandler creates a new instance of MarketHandler.
func NewMarketHandler(c client.CoinGeckoClient, dir *directory.Directory, corr service.CorrelationService, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{
		client:         c,
		directory:      dir,
		correlationSvc: corr,
		logger:         logger.Named("MarketHandler"),
	}
}

// GetPricesHandler returns current snapshots for ?ids=a,b,c in ?currency=.
// Coins whose upstream fetch failed are absent from the map.
func (h *MarketHandler) GetPricesHandler(c *gin.Context) {
	ids := splitIDs(c.Query("ids"))
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'ids' is required"})
		return
	}
	currency := currencyParam(c)

	prices, err := h.client.GetSimplePrices(c.Request.Context(), ids, currency)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": prices, "currency": currency})
}

// GetHistoryHandler returns historical series for ?ids= over ?window=.
func (h *MarketHandler) GetHistoryHandler(c *gin.Context) {
	ids := splitIDs(c.Query("ids"))
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'ids' is required"})
		return
	}
	window, err := entity.ParseWindow(c.DefaultQuery("window", string(entity.Window24h)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency := currencyParam(c)

	histories, err := h.client.GetMarketCharts(c.Request.Context(), ids, window, currency)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": histories, "window": window, "currency": currency})
}

// SearchHandler performs a fuzzy token search over the directory,
// supplemented by the live upstream search when local coverage is thin.
func (h *MarketHandler) SearchHandler(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"data": []entity.Token{}})
		return
	}

	tokens, err := h.directory.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tokens})
}

// GetPopularTokensHandler returns every directory entry with market data.
func (h *MarketHandler) GetPopularTokensHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.directory.PopularTokens()})
}

// GetTokenHandler returns a fresh snapshot for one token.
func (h *MarketHandler) GetTokenHandler(c *gin.Context) {
	snapshot, err := h.directory.GetToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

// GetSimilarTokensHandler ranks directory entries by magnitude similarity to
// the path token.
func (h *MarketHandler) GetSimilarTokensHandler(c *gin.Context) {
	limit := intParam(c, "limit", 5)
	tokens := h.directory.SimilarTokens(c.Param("id"), limit)
	c.JSON(http.StatusOK, gin.H{"data": tokens})
}

// GetCorrelatedTokensHandler ranks tokens by price-history correlation with
// the path token.
func (h *MarketHandler) GetCorrelatedTokensHandler(c *gin.Context) {
	window, err := entity.ParseWindow(c.DefaultQuery("window", string(entity.Window30d)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency := currencyParam(c)
	limit := intParam(c, "limit", 5)

	results, err := h.correlationSvc.FindCorrelatedTokens(c.Request.Context(), c.Param("id"), window, currency, limit)
	if err != nil {
		h.logger.Warn("Correlation query failed", zap.String("token", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results, "window": window, "currency": currency})
}

// GetCurrenciesHandler returns the fixed display currency set.
func (h *MarketHandler) GetCurrenciesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": entity.SupportedCurrencies})
}

// HealthHandler reports liveness and the directory's last refresh error.
func (h *MarketHandler) HealthHandler(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if err := h.directory.LastError(); err != nil {
		status["directory_error"] = err.Error()
	}
	c.JSON(http.StatusOK, status)
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// currencyParam reads ?currency=, defaulting to usd. Codes outside the
// supported display set are passed through to the upstream unchanged.
func currencyParam(c *gin.Context) string {
	return strings.ToLower(c.DefaultQuery("currency", defaultCurrency))
}

func intParam(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
