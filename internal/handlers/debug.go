package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints for verifying the audit
// pipeline end to end.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}

		requestID := requestIDFromContext(c)
		userID := userIDFromContext(c)
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestID, userID)

		resp := gin.H{
			"status":    "ok",
			"requestId": requestID,
		}
		if userID != nil {
			resp["userId"] = *userID
		}
		c.JSON(http.StatusOK, resp)
	})
}
