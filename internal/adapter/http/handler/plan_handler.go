package handler

import (
	"subpay/internal/adapter/http/dto"
	"subpay/internal/core/domain"
	"subpay/internal/core/ports"
	"subpay/pkg/apperror"
	"subpay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PlanHandler handles plan catalog endpoints.
type PlanHandler struct {
	planSvc ports.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planSvc ports.PlanService) *PlanHandler {
	return &PlanHandler{planSvc: planSvc}
}

// Create handles POST /api/v1/plans.
func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	plan, err := h.planSvc.Create(c.Request.Context(), ports.CreatePlanRequest{
		Code:       req.Code,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Currency:   req.Currency,
		Interval:   domain.BillingInterval(req.Interval),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewPlanResponse(plan))
}

// Get handles GET /api/v1/plans/:id.
func (h *PlanHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid plan id"))
		return
	}

	plan, err := h.planSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewPlanResponse(plan))
}

// List handles GET /api/v1/plans.
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.planSvc.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		items = append(items, dto.NewPlanResponse(&plans[i]))
	}
	response.OK(c, items)
}
