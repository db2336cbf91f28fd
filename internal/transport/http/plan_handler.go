package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
	"github.com/qwfeng/ai-trip-planner-backend/internal/service"
	"github.com/qwfeng/ai-trip-planner-backend/internal/util"
)

type PlanHandler struct {
	plans *service.PlanService
}

type generatePlanRequest struct {
	TripRequest *domain.TripRequest `json:"tripRequest"`
}

type extractExpenseRequest struct {
	Text string `json:"text"`
}

// RegisterPlans wires the completion proxy endpoints. They are consumed by
// the browser client only, not a public API.
func RegisterPlans(e *echo.Echo, plans *service.PlanService) {
	handler := &PlanHandler{plans: plans}
	e.POST("/api/generate-plan", handler.generatePlan)
	e.POST("/api/extract-expense", handler.extractExpense)
}

// generatePlan handles POST /api/generate-plan.
func (h *PlanHandler) generatePlan(c echo.Context) error {
	var req generatePlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("无效的请求参数"))
	}
	if req.TripRequest == nil || strings.TrimSpace(req.TripRequest.Destination) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("无效的请求参数"))
	}

	plan, err := h.plans.GeneratePlan(c.Request().Context(), *req.TripRequest)
	if err != nil {
		if errors.Is(err, service.ErrPlanValidation) {
			return c.JSON(http.StatusBadRequest, util.Error("无效的请求参数"))
		}
		// Config, upstream and parse failures all collapse into one generic
		// message; the cause is already in the server log.
		return c.JSON(http.StatusInternalServerError, util.Error("AI 服务调用失败，请检查服务器日志。"))
	}

	return c.JSON(http.StatusOK, util.Data("data", planResponse(plan)))
}

// extractExpense handles POST /api/extract-expense.
func (h *PlanHandler) extractExpense(c echo.Context) error {
	var req extractExpenseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("缺少文本参数"))
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("缺少文本参数"))
	}

	draft, err := h.plans.ExtractExpense(c.Request().Context(), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrPlanValidation) {
			return c.JSON(http.StatusBadRequest, util.Error("缺少文本参数"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("AI 服务调用失败"))
	}

	return c.JSON(http.StatusOK, util.Data("data", draft))
}

// planResponse shapes a plan for the wire: the local key rides along so the
// client can tell an unsaved plan apart from a persisted trip.
type PlanResponse struct {
	LocalKey  string             `json:"local_key,omitempty"`
	TripID    *int64             `json:"trip_id,omitempty"`
	DailyPlan []domain.DailyPlan `json:"daily_plan"`
	Title     string             `json:"title,omitempty"`
	Budget    float64            `json:"budget,omitempty"`
	Generated string             `json:"generatedFrom,omitempty"`
}

func planResponse(plan *domain.TripPlan) PlanResponse {
	resp := PlanResponse{
		DailyPlan: plan.DailyPlan,
		Title:     plan.Title,
		Budget:    plan.Budget,
		Generated: plan.GeneratedFrom,
	}
	if id, saved := plan.Ref.Saved(); saved {
		resp.TripID = &id
	} else if key, ok := plan.Ref.LocalKey(); ok {
		resp.LocalKey = key
	}
	return resp
}
