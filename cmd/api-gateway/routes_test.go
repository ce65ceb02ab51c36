package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/handler"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/repository"
	"github.com/noah-isme/tutor-match-api/internal/service"
	"github.com/noah-isme/tutor-match-api/pkg/config"
	"github.com/noah-isme/tutor-match-api/pkg/handoff"
)

func newMemoryRouter(t *testing.T) (*gin.Engine, *service.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Store:     config.StoreConfig{Driver: config.StoreDriverMemory},
	}
	logr := zap.NewNop()
	metrics := service.NewMetricsService()
	tokens := service.NewTokenService(service.TokenConfig{Secret: "router-secret", Issuer: "portal", Expiry: time.Minute})

	ranking := service.NewRankingService(nil, nil, metrics, logr, service.RankingConfig{})
	suggestions := service.NewSuggestionService(repository.NewMemorySuggestionStore(), ranking, nil, metrics, logr)
	contexts, err := service.NewContextHandoffService(handoff.NewSigner("handoff-secret", time.Minute), logr)
	require.NoError(t, err)
	overrides := service.NewOverrideService(repository.NewMemoryAssignmentStore(), suggestions, contexts, metrics, logr)

	var batch *service.BatchSuggestionService
	require.False(t, batchEnabled(cfg))

	r := newRouter(cfg, logr, routerDeps{
		tokens:      tokens,
		metrics:     metrics,
		matching:    handler.NewMatchingHandler(ranking),
		suggestions: newSuggestionHandler(suggestions, batch, contexts),
		overrides:   handler.NewOverrideHandler(overrides),
		ops:         handler.NewMetricsHandler(metrics, nil),
	})
	return r, tokens
}

func TestBatchEnabledFollowsStoreDriver(t *testing.T) {
	require.False(t, batchEnabled(&config.Config{Store: config.StoreConfig{Driver: config.StoreDriverMemory}}))
	require.True(t, batchEnabled(&config.Config{Store: config.StoreConfig{Driver: config.StoreDriverPostgres}}))
}

func TestMemoryStoreBatchRouteIsDisabled(t *testing.T) {
	r, tokens := newMemoryRouter(t)
	token, _, err := tokens.IssueToken("coord-1", models.RoleCoordinator, "coord@example.edu", "Coordinator")
	require.NoError(t, err)

	body := `{"requests":[{"studentId":"stu-1","studentName":"Lan","course":"CO1001","note":"pointers"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suggestions/batch", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "SERVICE_DISABLED", env.Error.Code)
}
