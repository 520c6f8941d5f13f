package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-scheduler/internal/middleware"
	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
	"github.com/noah-isme/class-scheduler/pkg/response"
)

// requireClaims returns the caller's claims, or writes 401 when there are none and 403 when
// roles is non-empty and the caller holds none of them.
func requireClaims(c *gin.Context, roles ...models.UserRole) (*models.JWTClaims, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	if len(roles) == 0 {
		return claims, true
	}
	for _, role := range roles {
		if claims.Role == role {
			return claims, true
		}
	}
	response.Error(c, appErrors.ErrForbidden)
	return nil, false
}
