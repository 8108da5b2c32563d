package middleware

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/psychotest-app/psychotest-api/internal/models"
)

type auditRecorder interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// Audit records who read student test data. Only successful requests are
// recorded.
func Audit(repo auditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if claims, ok := c.Get(ContextUserKey); ok {
			user := claims.(*models.JWTClaims)
			userID = &user.UserID
		}

		detail, _ := json.Marshal(map[string]interface{}{
			"path":   c.FullPath(),
			"method": c.Request.Method,
			"status": c.Writer.Status(),
			"target": c.Param("userId"),
		})

		_ = repo.Create(c.Request.Context(), &models.AuditLog{
			UserID:   userID,
			Action:   action,
			Resource: resource,
			Detail:   detail,
		})
	}
}
