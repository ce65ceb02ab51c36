package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutor-match-api/api/swagger"
	"github.com/noah-isme/tutor-match-api/internal/handler"
	"github.com/noah-isme/tutor-match-api/internal/repository"
	"github.com/noah-isme/tutor-match-api/internal/service"
	"github.com/noah-isme/tutor-match-api/pkg/cache"
	"github.com/noah-isme/tutor-match-api/pkg/config"
	"github.com/noah-isme/tutor-match-api/pkg/database"
	"github.com/noah-isme/tutor-match-api/pkg/handoff"
	"github.com/noah-isme/tutor-match-api/pkg/jobs"
	"github.com/noah-isme/tutor-match-api/pkg/logger"
)

// @title Tutor Match API
// @version 1.0.0
// @description Tutor ranking, coordinator suggestion inbox and manual override workflow.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *sqlx.DB
	if cfg.Store.Driver == config.StoreDriverPostgres {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()
	}

	var redisClient *redis.Client
	if cfg.Matching.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, tutor pool cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Matching.PoolCacheTTL, logr, redisClient != nil)

	rankingCfg := service.RankingConfig{
		PoolCacheKey: cfg.Matching.PoolCacheKey,
		PoolCacheTTL: cfg.Matching.PoolCacheTTL,
		MaxPoolSize:  cfg.Matching.MaxPoolSize,
	}

	var (
		ranking     *service.RankingService
		suggestions *service.SuggestionService
		overrides   *service.OverrideService
	)
	contexts, err := service.NewContextHandoffService(handoff.NewSigner(cfg.Handoff.Secret, cfg.Handoff.TTL), logr)
	if err != nil {
		logr.Fatal("failed to init context handoff", zap.Error(err))
	}

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		ranking = service.NewRankingService(nil, cacheSvc, metrics, logr, rankingCfg)
		suggestions = service.NewSuggestionService(repository.NewMemorySuggestionStore(), ranking, nil, metrics, logr)
		overrides = service.NewOverrideService(repository.NewMemoryAssignmentStore(), suggestions, contexts, metrics, logr)
		logr.Warn("using in-memory stores; suggestions and overrides are lost on restart")
	default:
		ranking = service.NewRankingService(repository.NewTutorRepository(db), cacheSvc, metrics, logr, rankingCfg)
		suggestions = service.NewSuggestionService(repository.NewSuggestionRepository(db), ranking, repository.NewAuditRepository(db), metrics, logr)
		overrides = service.NewOverrideService(repository.NewManualAssignmentRepository(db), suggestions, contexts, metrics, logr)
	}

	var batch *service.BatchSuggestionService
	if batchEnabled(cfg) {
		batch = service.NewBatchSuggestionService(suggestions, metrics, logr, jobs.QueueConfig{
			Workers:    cfg.Batch.Workers,
			BufferSize: cfg.Batch.BufferSize,
			MaxRetries: cfg.Batch.MaxRetries,
			RetryDelay: cfg.Batch.RetryDelay,
			Logger:     logr,
		})
		batch.Start(ctx)
		defer batch.Stop()
	} else {
		logr.Warn("batch suggestion generation disabled without a tutor directory")
	}

	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	checks := map[string]handler.ReadinessCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = cacheRepo.Ping
	}

	r := newRouter(cfg, logr, routerDeps{
		tokens:      tokens,
		metrics:     metrics,
		matching:    handler.NewMatchingHandler(ranking),
		suggestions: newSuggestionHandler(suggestions, batch, contexts),
		overrides:   handler.NewOverrideHandler(overrides),
		ops:         handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
