package middleware

import (
	gocontext "context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureAuditService captures entries on a channel for assertions.
type captureAuditService struct {
	entries chan ports.AuditEntry
}

func (s captureAuditService) Record(_ gocontext.Context, entry ports.AuditEntry) {
	s.entries <- entry
}

func captureAudit(entries chan ports.AuditEntry) ports.AuditService {
	return captureAuditService{entries: entries}
}

func TestAuditLog_RecordsMappedWrites(t *testing.T) {
	userID := uuid.New()
	entries := make(chan ports.AuditEntry, 1)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(CtxUserID, userID); c.Next() })
	r.Use(AuditLog(captureAudit(entries)))
	r.POST("/api/v1/subscriptions", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": "sub-1"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	select {
	case entry := <-entries:
		assert.Equal(t, domain.AuditActionCreateSubscription, entry.Action)
		assert.Equal(t, "subscription", entry.ResourceType)
		require.NotNil(t, entry.UserID)
		assert.Equal(t, userID, *entry.UserID)
	case <-time.After(time.Second):
		t.Fatal("no audit entry recorded")
	}
}

func TestAuditLog_SkipsFailedRequests(t *testing.T) {
	entries := make(chan ports.AuditEntry, 1)

	r := gin.New()
	r.Use(AuditLog(captureAudit(entries)))
	r.POST("/api/v1/subscriptions", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error_code": "PAY_002"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", nil)
	r.ServeHTTP(w, req)

	select {
	case <-entries:
		t.Fatal("failed request must not be audited")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAuditLog_SkipsUnmappedRoutes(t *testing.T) {
	entries := make(chan ports.AuditEntry, 1)

	r := gin.New()
	r.Use(AuditLog(captureAudit(entries)))
	r.POST("/api/v1/charges", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/charges", nil)
	r.ServeHTTP(w, req)

	select {
	case <-entries:
		t.Fatal("unmapped route must not be audited")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMapRouteToAction(t *testing.T) {
	cases := []struct {
		route  string
		method string
		action domain.AuditAction
	}{
		{"/api/v1/auth/signup", "POST", domain.AuditActionSignup},
		{"/api/v1/auth/login", "POST", domain.AuditActionLogin},
		{"/api/v1/plans", "POST", domain.AuditActionCreatePlan},
		{"/api/v1/subscriptions", "POST", domain.AuditActionCreateSubscription},
		{"/api/v1/subscriptions/:id", "DELETE", domain.AuditActionCancelSubscription},
		{"/api/v1/webhooks/payments", "POST", domain.AuditActionReceiveWebhook},
		{"/api/v1/plans", "GET", ""},
	}
	for _, tc := range cases {
		action, _ := mapRouteToAction(tc.route, tc.method)
		assert.Equal(t, tc.action, action, "%s %s", tc.method, tc.route)
	}
}
