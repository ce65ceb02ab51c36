package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/response"
)

// Matching role groups used by the router.
var (
	// ReviewerRoles may read the suggestion inbox and decide suggestions.
	ReviewerRoles = []models.UserRole{models.RoleCoordinator, models.RoleDepartmentChair, models.RoleStudentAffairs, models.RoleAdmin}
	// OverrideRoles may record manual assignments.
	OverrideRoles = []models.UserRole{models.RoleCoordinator, models.RoleAdmin}
)

// RequireRoles rejects requests whose claims carry none of roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok || claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" cannot access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}
