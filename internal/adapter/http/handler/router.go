package handler

import (
	"time"

	"subpay/internal/adapter/http/middleware"
	redisStore "subpay/internal/adapter/storage/redis"
	"subpay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SubscriptionRouterDeps holds the dependencies of the subscription
// service's router.
type SubscriptionRouterDeps struct {
	AuthSvc          ports.AuthService
	PlanSvc          ports.PlanService
	SubscriptionSvc  ports.SubscriptionService
	WebhookProcessor ports.WebhookProcessor
	TokenSvc         ports.TokenService
	SigSvc           ports.SignatureService
	IdempotencyStore ports.IdempotencyStore
	IdempotencyTTL   time.Duration
	WebhookDedup     ports.WebhookDedupStore // nil = dedup disabled
	WebhookDedupTTL  time.Duration
	RateLimitStore   *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers   []ports.HealthChecker
	AuditSvc         ports.AuditService // nil = audit logging disabled
	Logger           zerolog.Logger
}

// PaymentRouterDeps holds the dependencies of the payment service's router.
type PaymentRouterDeps struct {
	PaymentSvc       ports.PaymentService
	APIKey           string
	IdempotencyStore ports.IdempotencyStore
	IdempotencyTTL   time.Duration
	HealthCheckers   []ports.HealthChecker
	Logger           zerolog.Logger
}

// SetupSubscriptionRouter initialises the subscription service's Gin engine.
func SetupSubscriptionRouter(deps SubscriptionRouterDeps) *gin.Engine {
	r := newEngine(deps.Logger, deps.AuditSvc)

	r.GET("/healthz", Liveness)
	r.GET("/readyz", Readiness(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return passthrough
		}
		rule, ok := rules[group]
		if !ok {
			return passthrough
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	idem := middleware.Idempotency(deps.IdempotencyStore, deps.IdempotencyTTL, deps.Logger)

	v1 := r.Group("/api/v1")

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", rl("auth_signup"), authHandler.Signup)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	planHandler := NewPlanHandler(deps.PlanSvc)
	v1.GET("/plans", planHandler.List)
	v1.GET("/plans/:id", planHandler.Get)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc)

	v1.POST("/plans", jwtAuth, idem, planHandler.Create)

	subHandler := NewSubscriptionHandler(deps.SubscriptionSvc)
	subs := v1.Group("/subscriptions", jwtAuth)
	{
		subs.POST("", rl("subscriptions"), idem, subHandler.Subscribe)
		subs.GET("/:id", subHandler.Get)
		subs.DELETE("/:id", idem, subHandler.Cancel)
	}

	// --- Signed webhook receiver (service-to-service) ---
	webhookHandler := NewWebhookHandler(deps.WebhookProcessor, deps.WebhookDedup, deps.WebhookDedupTTL, deps.Logger)
	v1.POST("/webhooks/payments", middleware.VerifySignature(deps.SigSvc, deps.Logger), webhookHandler.Receive)

	return r
}

// SetupPaymentRouter initialises the payment service's Gin engine.
func SetupPaymentRouter(deps PaymentRouterDeps) *gin.Engine {
	r := newEngine(deps.Logger, nil)

	r.GET("/healthz", Liveness)
	r.GET("/readyz", Readiness(deps.HealthCheckers...))

	idem := middleware.Idempotency(deps.IdempotencyStore, deps.IdempotencyTTL, deps.Logger)

	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	charges := r.Group("/api/v1/charges", middleware.APIKeyAuth(deps.APIKey))
	{
		charges.POST("", idem, paymentHandler.Charge)
		charges.GET("/:id", paymentHandler.Get)
	}

	return r
}

// newEngine builds an engine with the middleware shared by both services.
func newEngine(log zerolog.Logger, auditSvc ports.AuditService) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if auditSvc != nil {
		r.Use(middleware.AuditLog(auditSvc))
	}

	return r
}

func passthrough(c *gin.Context) { c.Next() }
