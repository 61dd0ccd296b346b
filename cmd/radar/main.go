package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"earnradar/internal/cache"
	"earnradar/internal/config"
	cronrunner "earnradar/internal/cron"
	"earnradar/internal/db"
	"earnradar/internal/feed"
	"earnradar/internal/handler"
	"earnradar/internal/ingest"
	"earnradar/internal/logger"
	gormrepository "earnradar/internal/repository/gorm"
	"earnradar/internal/source"
	"earnradar/internal/wallet"
)

func main() {
	cfgPath := os.Getenv("ER_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ER_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	var payloadCache cache.Store = cache.NewMemory()
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedis(cfg.Redis.URL, cfg.Redis.Password)
		if err != nil {
			logger.Fatal("redis connect failed", zap.Error(err))
		}
		defer redisCache.Close()
		payloadCache = redisCache
	}

	chains := cfg.Sources.SupportedChains
	var adapters []source.Adapter
	if cfg.Sources.DeFiLlama.Enabled {
		a := source.NewDeFiLlamaAdapter(
			&http.Client{Timeout: cfg.Sources.DeFiLlama.Timeout},
			payloadCache,
			cfg.Sources.DeFiLlama.CacheTTL,
			cfg.Sources.DeFiLlama.RatePerSec,
		)
		a.Logger = logger
		a.BaseURL = cfg.Sources.DeFiLlama.BaseURL
		a.SupportedChains = chains
		a.MinTVLUSD = cfg.Ingest.MinTVLUSD
		adapters = append(adapters, a)
	}
	if cfg.Sources.Galxe.Enabled {
		a := source.NewGalxeAdapter(
			&http.Client{Timeout: cfg.Sources.Galxe.Timeout},
			payloadCache,
			cfg.Sources.Galxe.CacheTTL,
			cfg.Sources.Galxe.RatePerSec,
		)
		a.Logger = logger
		a.BaseURL = cfg.Sources.Galxe.BaseURL
		a.SupportedChains = chains
		adapters = append(adapters, a)
	}
	if cfg.Sources.Admin.Enabled {
		a := source.NewAdminAdapter(
			&http.Client{Timeout: cfg.Sources.Admin.Timeout},
			payloadCache,
			cfg.Sources.Admin.CacheTTL,
			cfg.Sources.Admin.RatePerSec,
		)
		a.Logger = logger
		a.BaseURL = cfg.Sources.Admin.BaseURL
		adapters = append(adapters, a)
	}

	syncer := &ingest.Syncer{
		Repo:     store,
		Logger:   logger,
		Adapters: adapters,
		Timeout:  cfg.Ingest.FetchTimeout,
	}

	var walletClient *wallet.Client
	if cfg.WalletSignals.BaseURL != "" {
		walletClient = &wallet.Client{
			HTTP:     &http.Client{Timeout: cfg.WalletSignals.Timeout},
			Logger:   logger,
			BaseURL:  cfg.WalletSignals.BaseURL,
			Cache:    payloadCache,
			CacheTTL: cfg.WalletSignals.CacheTTL,
		}
	}

	feedSvc := &feed.Service{
		Repo:        store,
		Wallet:      walletClient,
		Logger:      logger,
		PageSize:    cfg.Feed.PageSize,
		MaxPageSize: cfg.Feed.MaxPageSize,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(requestIDMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	feedHandler := &handler.FeedHandler{Feed: feedSvc}
	feedHandler.Register(engine)
	oppHandler := &handler.OpportunityHandler{Repo: store, Wallet: walletClient}
	oppHandler.Register(engine)
	syncHandler := &handler.SyncHandler{Repo: store, Syncer: syncer}
	syncHandler.Register(engine)
	strategyHandler := &handler.StrategyHandler{Repo: store}
	strategyHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.SourceSync, func(ctx context.Context) {
			results, err := syncer.Run(ctx)
			if err != nil {
				if !errors.Is(err, ingest.ErrSyncInProgress) {
					logger.Warn("cron source sync failed", zap.Error(err))
				}
				return
			}
			for _, res := range results {
				logger.Info("cron source sync ok",
					zap.String("source", res.Source),
					zap.Int("fetched", res.Fetched),
					zap.Int("upserted", res.Upserted),
					zap.Int("failed", res.Failed),
					zap.Int64("duration_ms", res.DurationMs),
				)
			}
		})
		if err != nil {
			logger.Warn("cron register source sync failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.ExpirySweep, func(ctx context.Context) {
			n, err := store.ExpireDueOpportunities(ctx, db.NowUTC())
			if err != nil {
				logger.Warn("expiry sweep failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("expired opportunities", zap.Int64("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register expiry sweep failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	// Seed the feed on boot so the first request after a cold start is not
	// empty until the first cron tick.
	go func() {
		if _, err := syncer.Run(ctx); err != nil && !errors.Is(err, ingest.ErrSyncInProgress) {
			logger.Warn("initial sync failed (continuing)", zap.Error(err))
		}
	}()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
