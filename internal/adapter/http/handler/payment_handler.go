package handler

import (
	"subpay/internal/adapter/http/dto"
	"subpay/internal/core/ports"
	"subpay/pkg/apperror"
	"subpay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles the payment service's charge endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// Charge handles POST /api/v1/charges. The charge is accepted with status
// processing; the simulated outcome arrives later over the webhook.
func (h *PaymentHandler) Charge(c *gin.Context) {
	var req dto.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	payment, err := h.paymentSvc.Charge(c.Request.Context(), ports.ChargeRequest{
		ExternalReference: req.ExternalReference,
		AmountCents:       req.AmountCents,
		Currency:          req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, dto.NewPaymentResponse(payment))
}

// Get handles GET /api/v1/charges/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payment id"))
		return
	}

	payment, err := h.paymentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewPaymentResponse(payment))
}
