package handler

import (
	"subpay/internal/adapter/http/dto"
	"subpay/internal/adapter/http/middleware"
	"subpay/internal/core/ports"
	"subpay/pkg/apperror"
	"subpay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SubscriptionHandler handles subscription lifecycle endpoints.
type SubscriptionHandler struct {
	subSvc ports.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subSvc ports.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subSvc: subSvc}
}

// Subscribe handles POST /api/v1/subscriptions.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid plan id"))
		return
	}

	sub, err := h.subSvc.Subscribe(c.Request.Context(), ports.SubscribeRequest{
		UserID: userID,
		PlanID: planID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewSubscriptionResponse(sub))
}

// Get handles GET /api/v1/subscriptions/:id.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid subscription id"))
		return
	}

	sub, err := h.subSvc.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewSubscriptionResponse(sub))
}

// Cancel handles DELETE /api/v1/subscriptions/:id.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid subscription id"))
		return
	}

	sub, err := h.subSvc.Cancel(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewSubscriptionResponse(sub))
}
