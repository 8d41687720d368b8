package middleware

import (
	"encoding/json"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records successful write operations. It maps routes to audit
// actions; unmapped routes are not audited.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		var userID *uuid.UUID
		if id, ok := UserID(c); ok {
			userID = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		auditSvc.Record(c.Request.Context(), ports.AuditEntry{
			UserID:       userID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("id"),
			Details:      string(details),
			IPAddress:    c.ClientIP(),
		})
	}
}

func mapRouteToAction(route, method string) (domain.AuditAction, string) {
	switch {
	case route == "/api/v1/auth/signup" && method == "POST":
		return domain.AuditActionSignup, "user"
	case route == "/api/v1/auth/login" && method == "POST":
		return domain.AuditActionLogin, "session"
	case route == "/api/v1/plans" && method == "POST":
		return domain.AuditActionCreatePlan, "plan"
	case route == "/api/v1/subscriptions" && method == "POST":
		return domain.AuditActionCreateSubscription, "subscription"
	case route == "/api/v1/subscriptions/:id" && method == "DELETE":
		return domain.AuditActionCancelSubscription, "subscription"
	case route == "/api/v1/webhooks/payments" && method == "POST":
		return domain.AuditActionReceiveWebhook, "webhook"
	}
	return "", ""
}
