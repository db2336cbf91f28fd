package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
	"github.com/qwfeng/ai-trip-planner-backend/internal/repository/ports"
)

var (
	ErrTripValidation = errors.New("trip validation failed")
	ErrTripNotFound   = errors.New("trip not found")
	ErrTripForbidden  = errors.New("not allowed to access this trip")
)

const defaultTripListLimit = 20

// TripService persists generated plans as trip rows. The plan itself is
// stored as an opaque document; only derived scalar columns sit beside it.
type TripService struct {
	trips ports.TripRepository
	limit int
	now   func() time.Time
}

func NewTripService(trips ports.TripRepository, listLimit int) *TripService {
	if listLimit <= 0 {
		listLimit = defaultTripListLimit
	}
	return &TripService{trips: trips, limit: listLimit, now: time.Now}
}

// SaveTrip inserts the plan document together with the derived destination,
// date range (starting today, one day per daily plan entry) and total budget.
func (s *TripService) SaveTrip(ctx context.Context, userID uuid.UUID, plan *domain.TripPlan) (*domain.Trip, error) {
	if plan == nil || len(plan.DailyPlan) == 0 {
		return nil, fmt.Errorf("%w: plan has no days", ErrTripValidation)
	}

	doc, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}

	start := s.now().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, len(plan.DailyPlan)-1)

	var prefs *string
	if plan.GeneratedFrom != "" {
		prefs = &plan.GeneratedFrom
	}

	trip := &domain.Trip{
		UserID:      userID,
		Plan:        doc,
		Destination: plan.Title,
		StartDate:   start,
		EndDate:     end,
		TotalBudget: plan.TotalEstimatedCost(),
		Preferences: prefs,
	}
	return s.trips.Create(ctx, trip)
}

// ListTrips returns the user's trips most-recent-first, capped at the
// configured page size.
func (s *TripService) ListTrips(ctx context.Context, userID uuid.UUID) ([]domain.TripSummary, error) {
	return s.trips.List(ctx, userID, s.limit)
}

// GetTrip loads one trip and checks ownership.
func (s *TripService) GetTrip(ctx context.Context, userID uuid.UUID, tripID int64) (*domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if trip.UserID != userID {
		return nil, ErrTripForbidden
	}
	return trip, nil
}
