package handler

import (
	"time"

	"subpay/internal/adapter/http/dto"
	"subpay/internal/adapter/http/middleware"
	"subpay/internal/core/ports"
	"subpay/pkg/apperror"
	"subpay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebhookHandler receives payment event webhooks on the subscription
// service. Signature verification happens in middleware before the handler
// runs.
type WebhookHandler struct {
	processor  ports.WebhookProcessor
	dedupStore ports.WebhookDedupStore // nil = dedup disabled
	dedupTTL   time.Duration
	log        zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(processor ports.WebhookProcessor, dedupStore ports.WebhookDedupStore, dedupTTL time.Duration, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor:  processor,
		dedupStore: dedupStore,
		dedupTTL:   dedupTTL,
		log:        log,
	}
}

// Receive handles POST /api/v1/webhooks/payments.
//
// Retried deliveries carry the same Idempotency-Key; a key already seen is
// acknowledged without reprocessing. A failing dedup store degrades to
// processing the event, which is safe because processing is idempotent at
// the state level.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var req dto.WebhookEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if key := c.GetHeader(middleware.HeaderIdempotencyKey); key != "" && h.dedupStore != nil {
		fresh, err := h.dedupStore.CheckAndSet(c.Request.Context(), key, h.dedupTTL)
		if err != nil {
			h.log.Warn().Err(err).Str("key", key).Msg("webhook dedup check failed, processing anyway")
		} else if !fresh {
			h.log.Debug().Str("key", key).Msg("duplicate webhook delivery acknowledged")
			response.Accepted(c, gin.H{"received": true, "duplicate": true})
			return
		}
	}

	if err := h.processor.ProcessPaymentEvent(c.Request.Context(), req.ToDomain()); err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, gin.H{"received": true})
}
