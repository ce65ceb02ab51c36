package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/handler"
	"github.com/noah-isme/tutor-match-api/internal/middleware"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/service"
	"github.com/noah-isme/tutor-match-api/pkg/config"
	"github.com/noah-isme/tutor-match-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutor-match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-match-api/pkg/middleware/requestid"
)

type routerDeps struct {
	tokens      *service.TokenService
	metrics     *service.MetricsService
	matching    *handler.MatchingHandler
	suggestions *handler.SuggestionHandler
	overrides   *handler.OverrideHandler
	ops         *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.ops.Health)
	r.GET("/ready", deps.ops.Ready)
	r.GET("/metrics", deps.ops.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, middleware.JWT(deps.tokens))
	reviewers := middleware.RequireRoles(middleware.ReviewerRoles...)
	editors := middleware.RequireRoles(middleware.OverrideRoles...)

	matching := api.Group("/matching")
	matching.POST("/rank", middleware.RequireRoles(models.RoleStudent, models.RoleCoordinator, models.RoleDepartmentChair, models.RoleAdmin), deps.matching.Rank)
	matching.POST("/pool/refresh", editors, deps.matching.RefreshPool)

	suggestions := api.Group("/suggestions")
	suggestions.POST("", editors, deps.suggestions.Generate)
	suggestions.POST("/batch", editors, deps.suggestions.Batch)
	suggestions.GET("", reviewers, deps.suggestions.List)
	suggestions.GET("/:id", reviewers, deps.suggestions.Get)
	suggestions.POST("/:id/transition", editors, deps.suggestions.Transition)
	suggestions.POST("/:id/handoff", editors, deps.suggestions.Handoff)
	api.GET("/handoff/:token", editors, deps.suggestions.ResolveHandoff)

	overrides := api.Group("/overrides")
	overrides.POST("", editors, deps.overrides.Create)
	overrides.GET("", reviewers, deps.overrides.List)
	overrides.GET("/:id", reviewers, deps.overrides.Get)

	return r
}

// batchEnabled reports whether queued generation has a tutor directory to rank against.
// The memory store has none, so every queued request would fail.
func batchEnabled(cfg *config.Config) bool {
	return cfg.Store.Driver != config.StoreDriverMemory
}

func newSuggestionHandler(suggestions *service.SuggestionService, batch *service.BatchSuggestionService, contexts *service.ContextHandoffService) *handler.SuggestionHandler {
	if batch == nil {
		return handler.NewSuggestionHandler(suggestions, nil, contexts)
	}
	return handler.NewSuggestionHandler(suggestions, batch, contexts)
}
