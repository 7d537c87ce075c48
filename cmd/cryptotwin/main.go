package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"github.com/ctmes/CryptoTwin/internal/client"
	"github.com/ctmes/CryptoTwin/internal/config"
	"github.com/ctmes/CryptoTwin/internal/directory"
	"github.com/ctmes/CryptoTwin/internal/fetcher"
	"github.com/ctmes/CryptoTwin/internal/infrastructure/restapi"
	"github.com/ctmes/CryptoTwin/internal/pkg/logger"
	"github.com/ctmes/CryptoTwin/internal/pkg/metrics"
	"github.com/ctmes/CryptoTwin/internal/pkg/utils"
	"github.com/ctmes/CryptoTwin/internal/scheduler"
	"github.com/ctmes/CryptoTwin/internal/service"
)

func main() {
	// logrus covers bootstrap logging until the configured zap logger is up.
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Warnf("Failed to load configuration from %s, using defaults: %v", cfgPath, err)
		cfg = config.Default()
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		logrus.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// Route slog users through the same zap core.
	slogHandler := zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})
	slog.SetDefault(slog.New(slogHandler))

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	requestFetcher := fetcher.New(fetcher.Config{
		MaxRetries:     cfg.Fetcher.MaxRetries,
		InitialBackoff: time.Duration(cfg.Fetcher.InitialBackoffMillis) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.Fetcher.MaxBackoffMillis) * time.Millisecond,
		RequestTimeout: time.Duration(cfg.CoinGecko.RequestTimeoutMillis) * time.Millisecond,
	}, zapLogger)

	requestQueue := scheduler.NewQueue(
		time.Duration(cfg.Scheduler.MinRequestIntervalMillis)*time.Millisecond, zapLogger)

	marketClient := client.NewCoinGeckoClient(requestFetcher, requestQueue, client.Options{
		BaseURL:           cfg.CoinGecko.BaseURL,
		CacheTTL:          time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		CacheCleanup:      time.Duration(cfg.Cache.CleanupIntervalMinutes) * time.Minute,
		SnapshotBatchSize: cfg.MarketData.SnapshotBatchSize,
		HistoryBatchSize:  cfg.MarketData.HistoryBatchSize,
		SearchResultLimit: cfg.MarketData.SearchResultLimit,
	}, zapLogger)
	zapLogger.Info("CoinGecko client initialized", zap.String("baseURL", cfg.CoinGecko.BaseURL))

	tokenDirectory := directory.New(marketClient, directory.Config{
		BatchSize:          cfg.Directory.BatchSize,
		BatchDelay:         time.Duration(cfg.Directory.BatchDelayMillis) * time.Millisecond,
		CycleTTL:           time.Duration(cfg.Directory.CycleTTLMinutes) * time.Minute,
		RestartDelay:       time.Duration(cfg.Directory.RestartDelayMillis) * time.Millisecond,
		Currency:           cfg.Directory.DefaultCurrency,
		SeedTokens:         cfg.Directory.SeedTokens,
		LocalSearchMinHits: cfg.Directory.LocalSearchMinHits,
		SearchResultLimit:  cfg.Directory.SearchResultLimit,
	}, zapLogger)

	directoryCtx, cancelDirectory := context.WithCancel(context.Background())
	defer cancelDirectory()
	tokenDirectory.Start(directoryCtx)
	zapLogger.Info("Token directory refresh loop started")

	correlationSvc := service.NewCorrelationService(
		marketClient, tokenDirectory, cfg.Correlation.CandidatePoolSize, zapLogger)

	handler := restapi.NewMarketHandler(marketClient, tokenDirectory, correlationSvc, zapLogger)
	router := restapi.SetupRouter(handler, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	tokenDirectory.Stop()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
