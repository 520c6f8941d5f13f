package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
	"github.com/noah-isme/class-scheduler/pkg/response"
)

// CurrentClaims returns the claims stored by JWT, if any.
func CurrentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}

// RequireRoles admits callers holding one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return guard(func(c *gin.Context, claims *models.JWTClaims) bool {
		_, ok := allowed[claims.Role]
		return ok
	})
}

// ProfessorOwner guards /professors/:id routes: admins pass, and so does the professor whose
// token subject is :id. Students never pass, even with a matching id.
func ProfessorOwner() gin.HandlerFunc {
	return guard(func(c *gin.Context, claims *models.JWTClaims) bool {
		switch claims.Role {
		case models.RoleAdmin:
			return true
		case models.RoleProfessor:
			target := c.Param("id")
			return target != "" && target == claims.UserID
		default:
			return false
		}
	})
}

func guard(allow func(c *gin.Context, claims *models.JWTClaims) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !allow(c, claims) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
