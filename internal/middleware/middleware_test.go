package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokenService() *service.TokenService {
	return service.NewTokenService(service.TokenConfig{Secret: "middleware-secret", Issuer: "portal", Expiry: time.Minute})
}

func issue(t *testing.T, tokens *service.TokenService, role models.UserRole) string {
	t.Helper()
	token, _, err := tokens.IssueToken("user-1", role, "u@example.edu", "User One")
	require.NoError(t, err)
	return token
}

func protectedRouter(tokens *service.TokenService, roles ...models.UserRole) *gin.Engine {
	r := gin.New()
	r.GET("/inbox", JWT(tokens), RequireRoles(roles...), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.UserID)
	})
	r.GET("/public", OptionalJWT(tokens), func(c *gin.Context) {
		if _, ok := c.Get(ContextUserKey); ok {
			c.String(http.StatusOK, "known")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r
}

func serve(r *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAndRoles(t *testing.T) {
	tokens := newTokenService()
	r := protectedRouter(tokens, ReviewerRoles...)

	rec := serve(r, "/inbox", "Bearer "+issue(t, tokens, models.RoleCoordinator))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", rec.Body.String())

	rec = serve(r, "/inbox", "bearer "+issue(t, tokens, models.RoleStudentAffairs))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(r, "/inbox", "Bearer "+issue(t, tokens, models.RoleStudent))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "FORBIDDEN")

	rec = serve(r, "/inbox", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, "/inbox", "Token abc")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid authorization header")

	rec = serve(r, "/inbox", "Bearer not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOverrideRolesExcludeReviewOnlyRoles(t *testing.T) {
	tokens := newTokenService()
	r := protectedRouter(tokens, OverrideRoles...)

	require.Equal(t, http.StatusOK, serve(r, "/inbox", "Bearer "+issue(t, tokens, models.RoleAdmin)).Code)
	require.Equal(t, http.StatusForbidden, serve(r, "/inbox", "Bearer "+issue(t, tokens, models.RoleDepartmentChair)).Code)
}

func TestOptionalJWT(t *testing.T) {
	tokens := newTokenService()
	r := protectedRouter(tokens)

	require.Equal(t, "known", serve(r, "/public", "Bearer "+issue(t, tokens, models.RoleTutor)).Body.String())
	require.Equal(t, "anonymous", serve(r, "/public", "Bearer broken").Body.String())
	require.Equal(t, "anonymous", serve(r, "/public", "").Body.String())
}

func TestRequireRolesWithoutJWT(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	require.Equal(t, http.StatusUnauthorized, serve(r, "/x", "").Code)
}

type observedRequest struct {
	method string
	path   string
	status int
}

type observerStub struct {
	mu       sync.Mutex
	requests []observedRequest
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, observedRequest{method: method, path: path, status: status})
}

func TestMetricsUsesRouteTemplates(t *testing.T) {
	observer := &observerStub{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/suggestions/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(r, "/suggestions/abc", "")
	serve(r, "/nowhere/123", "")

	require.Equal(t, []observedRequest{
		{method: http.MethodGet, path: "/suggestions/:id", status: http.StatusNoContent},
		{method: http.MethodGet, path: "unmatched", status: http.StatusNotFound},
	}, observer.requests)
}

func TestResponseMeta(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/rank", func(c *gin.Context) {
		SetPoolCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	rec := serve(r, "/rank", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body[poolCacheKey])
	require.Contains(t, body, processingTimeKey)
	require.GreaterOrEqual(t, body[processingTimeKey].(float64), float64(0))

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Nil(t, ExtractMeta(c))
	SetPoolCacheHit(c, false)
	require.Equal(t, false, ExtractMeta(c)[poolCacheKey])
	require.NotContains(t, ExtractMeta(c), processingTimeKey)
}
