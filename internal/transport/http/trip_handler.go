package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
	"github.com/qwfeng/ai-trip-planner-backend/internal/repository/ports"
	"github.com/qwfeng/ai-trip-planner-backend/internal/service"
	"github.com/qwfeng/ai-trip-planner-backend/internal/util"
)

type TripHandler struct {
	trips    *service.TripService
	expenses *service.ExpenseService
}

type saveTripRequest struct {
	DailyPlan     []domain.DailyPlan `json:"daily_plan"`
	Title         string             `json:"title"`
	GeneratedFrom string             `json:"generatedFrom"`
}

func RegisterTrips(e *echo.Echo, auth *service.AuthService, trips *service.TripService, expenses *service.ExpenseService) {
	handler := &TripHandler{trips: trips, expenses: expenses}

	g := e.Group("/api/trips", RequireAuth(auth))
	g.POST("", handler.saveTrip)
	g.GET("", handler.listTrips)
	g.GET("/overview", handler.tripsOverview)
	g.GET("/:trip_id", handler.getTrip)
	g.POST("/:trip_id/expenses", handler.addExpense)
	g.GET("/:trip_id/expenses", handler.listExpenses)

	ex := e.Group("/api/expenses", RequireAuth(auth))
	ex.PUT("/:id", handler.updateExpense)
	ex.DELETE("/:id", handler.deleteExpense)
}

// saveTrip handles POST /api/trips.
func (h *TripHandler) saveTrip(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	var req saveTripRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid trip payload"))
	}

	plan := &domain.TripPlan{
		DailyPlan:     req.DailyPlan,
		Title:         strings.TrimSpace(req.Title),
		GeneratedFrom: strings.TrimSpace(req.GeneratedFrom),
	}

	trip, err := h.trips.SaveTrip(c.Request().Context(), user.ID, plan)
	if err != nil {
		if errors.Is(err, service.ErrTripValidation) {
			return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("unable to save trip"))
	}
	return c.JSON(http.StatusCreated, util.Data("trip", trip))
}

// listTrips handles GET /api/trips.
func (h *TripHandler) listTrips(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	summaries, err := h.trips.ListTrips(c.Request().Context(), user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("unable to list trips"))
	}
	return c.JSON(http.StatusOK, util.Data("trips", summaries))
}

// tripsOverview handles GET /api/trips/overview: every trip with its
// expenses, most recent trip first.
func (h *TripHandler) tripsOverview(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	overview, err := h.expenses.ListTripsWithExpenses(c.Request().Context(), user.ID, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("unable to load budget overview"))
	}
	return c.JSON(http.StatusOK, util.Data("trips", overview))
}

// getTrip handles GET /api/trips/{trip_id}.
func (h *TripHandler) getTrip(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	tripID, err := parseID(c.Param("trip_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid trip id"))
	}

	trip, err := h.trips.GetTrip(c.Request().Context(), user.ID, tripID)
	if err != nil {
		return tripErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("trip", trip))
}

// addExpense handles POST /api/trips/{trip_id}/expenses.
func (h *TripHandler) addExpense(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	tripID, err := parseID(c.Param("trip_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid trip id"))
	}

	var input service.ExpenseCreateInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid expense payload"))
	}

	expense, err := h.expenses.AddExpense(c.Request().Context(), user.ID, domain.SavedTripRef(tripID), input)
	if err != nil {
		if errors.Is(err, service.ErrExpenseValidation) {
			return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
		}
		return tripErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data("expense", expense))
}

// listExpenses handles GET /api/trips/{trip_id}/expenses. Rows come back
// ascending by creation time; category and trip_day narrow the listing.
func (h *TripHandler) listExpenses(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	tripID, err := parseID(c.Param("trip_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid trip id"))
	}

	filter, err := parseExpenseFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}

	rows, err := h.expenses.ListTripExpenses(c.Request().Context(), user.ID, tripID, filter)
	if err != nil {
		return tripErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("expenses", rows))
}

// updateExpense handles PUT /api/expenses/{id}.
func (h *TripHandler) updateExpense(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid expense id"))
	}

	var update domain.ExpenseUpdate
	if err := json.NewDecoder(c.Request().Body).Decode(&update); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid expense payload"))
	}

	expense, err := h.expenses.UpdateExpense(c.Request().Context(), user.ID, id, update)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExpenseValidation):
			return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
		case errors.Is(err, service.ErrExpenseNotFound), errors.Is(err, service.ErrTripNotFound):
			return c.JSON(http.StatusNotFound, util.Error(err.Error()))
		case errors.Is(err, service.ErrTripForbidden):
			return c.JSON(http.StatusForbidden, util.Error(err.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, util.Error("unable to update expense"))
		}
	}
	return c.JSON(http.StatusOK, util.Data("expense", expense))
}

// deleteExpense handles DELETE /api/expenses/{id}. The client confirms with
// the user before calling; the delete itself is final.
func (h *TripHandler) deleteExpense(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid expense id"))
	}

	if err := h.expenses.DeleteExpense(c.Request().Context(), user.ID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrExpenseNotFound), errors.Is(err, service.ErrTripNotFound):
			return c.JSON(http.StatusNotFound, util.Error(err.Error()))
		case errors.Is(err, service.ErrTripForbidden):
			return c.JSON(http.StatusForbidden, util.Error(err.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, util.Error("unable to delete expense"))
		}
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}

func parseExpenseFilter(c echo.Context) (ports.ExpenseListFilter, error) {
	filter := ports.ExpenseListFilter{}

	for _, raw := range append(c.QueryParams()["category"], c.QueryParam("categories")) {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				filter.Categories = append(filter.Categories, trimmed)
			}
		}
	}

	if dayStr := strings.TrimSpace(c.QueryParam("trip_day")); dayStr != "" {
		day, err := strconv.Atoi(dayStr)
		if err != nil || day <= 0 {
			return ports.ExpenseListFilter{}, errors.New("trip_day must be a positive integer")
		}
		filter.TripDay = &day
	}
	return filter, nil
}

func tripErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrTripNotFound):
		return c.JSON(http.StatusNotFound, util.Error(err.Error()))
	case errors.Is(err, service.ErrTripForbidden):
		return c.JSON(http.StatusForbidden, util.Error(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("unable to load trip"))
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
