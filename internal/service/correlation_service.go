package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ctmes/CryptoTwin/internal/analytics"
	"github.com/ctmes/CryptoTwin/internal/client"
	"github.com/ctmes/CryptoTwin/internal/domain/entity"
)

// TokenPool supplies candidate tokens for correlation ranking. The token
// directory satisfies it.
type TokenPool interface {
	SimilarTokens(tokenID string, limit int) []entity.Token
	PopularTokens() []entity.TokenSnapshot
}

// TokenCorrelation is one ranked result of a correlation query.
type TokenCorrelation struct {
	Token       entity.Token `json:"token"`
	Correlation float64      `json:"correlation"`
}

// CorrelationService ranks tokens by how closely their price history moves
// with a reference token's over a lookback window.
type CorrelationService interface {
	// FindCorrelatedTokens returns up to limit tokens ordered by descending
	// Pearson correlation of per-interval returns against mainToken.
	FindCorrelatedTokens(ctx context.Context, mainToken string, window entity.Window, currency string, limit int) ([]TokenCorrelation, error)
}

// correlationServiceImpl is the implementation of CorrelationService.
type correlationServiceImpl struct {
	client            client.CoinGeckoClient
	pool              TokenPool
	candidatePoolSize int
	logger            *zap.Logger
}

// NewCorrelationService creates a new instance of CorrelationService.
func NewCorrelationService(c client.CoinGeckoClient, pool TokenPool, candidatePoolSize int, logger *zap.Logger) CorrelationService {
	return &correlationServiceImpl{
		client:            c,
		pool:              pool,
		candidatePoolSize: candidatePoolSize,
		logger:            logger.Named("CorrelationService"),
	}
}

// FindCorrelatedTokens implements the CorrelationService interface. The
// candidate set comes from the directory, preferring magnitude-similar
// tokens and falling back to the popular set while the directory warms up.
func (s *correlationServiceImpl) FindCorrelatedTokens(ctx context.Context, mainToken string, window entity.Window, currency string, limit int) ([]TokenCorrelation, error) {
	candidates := s.candidateTokens(mainToken)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidate tokens available for %q", mainToken)
	}

	coinIDs := make([]string, 0, len(candidates)+1)
	coinIDs = append(coinIDs, mainToken)
	for _, token := range candidates {
		coinIDs = append(coinIDs, token.ID)
	}

	histories, err := s.client.GetMarketCharts(ctx, coinIDs, window, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch histories for correlation: %w", err)
	}

	mainReturns := analytics.Returns(histories[0].PriceValues())
	if len(mainReturns) == 0 {
		return nil, fmt.Errorf("no usable price history for %q over %s", mainToken, window)
	}

	results := make([]TokenCorrelation, 0, len(candidates))
	for i, token := range candidates {
		candidateReturns := analytics.Returns(histories[i+1].PriceValues())
		if len(candidateReturns) == 0 {
			s.logger.Debug("Skipping candidate without history",
				zap.String("coinID", token.ID),
				zap.String("window", string(window)))
			continue
		}
		x, y := alignSeries(mainReturns, candidateReturns)
		results = append(results, TokenCorrelation{
			Token:       token,
			Correlation: analytics.Correlation(x, y),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Correlation > results[j].Correlation
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// candidateTokens picks the comparison pool from the directory.
func (s *correlationServiceImpl) candidateTokens(mainToken string) []entity.Token {
	candidates := s.pool.SimilarTokens(mainToken, s.candidatePoolSize)
	if len(candidates) > 0 {
		return candidates
	}

	popular := s.pool.PopularTokens()
	tokens := make([]entity.Token, 0, s.candidatePoolSize)
	for _, snap := range popular {
		if snap.ID == mainToken {
			continue
		}
		tokens = append(tokens, snap.Token)
		if len(tokens) >= s.candidatePoolSize {
			break
		}
	}
	return tokens
}

// alignSeries truncates both series to their common tail length so the
// correlation compares the same number of most-recent intervals.
func alignSeries(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	return x[len(x)-n:], y[len(y)-n:]
}
