package middleware

import (
	"time"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records every completed mutating request. Reads and CORS
// preflights are skipped; failed requests are recorded too, the status
// column tells them apart.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		switch c.Request.Method {
		case "GET", "HEAD", "OPTIONS":
			return
		}

		auditSvc.Record(c.Request.Context(), domain.AuditEntry{
			ID:        uuid.New(),
			Method:    c.Request.Method,
			Path:      c.FullPath(),
			Status:    c.Writer.Status(),
			LatencyMS: time.Since(start).Milliseconds(),
			CreatedAt: time.Now().UTC(),
		})
	}
}
