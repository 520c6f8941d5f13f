package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler/internal/models"
)

// AuditRecorder stores audit entries.
type AuditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

const (
	auditResourceIDKey = "auditResourceID"
	auditNewValuesKey  = "auditNewValues"
)

// SetAuditResource records the id and stored values of the resource a handler wrote, for the
// Audit middleware wrapping it.
func SetAuditResource(c *gin.Context, id string, values interface{}) {
	if id != "" {
		c.Set(auditResourceIDKey, id)
	}
	if values != nil {
		c.Set(auditNewValuesKey, values)
	}
}

// Audit creates a middleware that records audit logs after successful requests.
// The resource id and new values come from SetAuditResource; without it the :id route
// parameter and the request metadata are recorded instead.
func Audit(repo AuditRecorder, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if repo == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if claims, ok := CurrentClaims(c); ok {
			userID := claims.UserID
			entry.UserID = &userID
			entry.Role = claims.Role
		}
		if id := c.GetString(auditResourceIDKey); id != "" {
			entry.ResourceID = &id
		} else if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}

		values, ok := c.Get(auditNewValuesKey)
		if !ok {
			values = map[string]interface{}{
				"path":    c.FullPath(),
				"method":  c.Request.Method,
				"status":  c.Writer.Status(),
				"latency": time.Since(start).Milliseconds(),
			}
		}
		raw, err := json.Marshal(values)
		if err != nil {
			logger.Warn("audit values not encodable", zap.String("action", action), zap.Error(err))
		}
		entry.NewValues = raw

		if err := repo.Create(c.Request.Context(), entry); err != nil {
			logger.Warn("audit log not stored", zap.String("action", action), zap.Error(err))
		}
	}
}
