package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
	"github.com/qwfeng/ai-trip-planner-backend/internal/planner"
	"github.com/qwfeng/ai-trip-planner-backend/internal/repository/ports"
)

var (
	ErrExpenseValidation = errors.New("expense validation failed")
	ErrExpenseNotFound   = errors.New("expense not found")
)

type ExpenseCreateInput struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	TripDay     int     `json:"trip_day"`
}

// ExpenseService manages expense rows attached to saved trips. An expense can
// only ever reference a trip that already has a server id; unsaved plans are
// rejected before any repository call.
type ExpenseService struct {
	expenses ports.ExpenseRepository
	trips    ports.TripRepository
}

func NewExpenseService(expenses ports.ExpenseRepository, trips ports.TripRepository) *ExpenseService {
	return &ExpenseService{expenses: expenses, trips: trips}
}

// AddExpense validates and inserts one row scoped to the trip. The returned
// row is the store's confirmed copy.
func (s *ExpenseService) AddExpense(ctx context.Context, userID uuid.UUID, ref domain.TripRef, input ExpenseCreateInput) (*domain.Expense, error) {
	tripID, saved := ref.Saved()
	if !saved {
		return nil, fmt.Errorf("%w: %v", ErrExpenseValidation, domain.ErrTripUnsaved)
	}
	if input.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrExpenseValidation)
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrExpenseValidation)
	}
	if input.TripDay <= 0 {
		return nil, fmt.Errorf("%w: trip_day must be positive", ErrExpenseValidation)
	}

	if err := s.ensureOwnedTrip(ctx, userID, tripID); err != nil {
		return nil, err
	}

	return s.expenses.Create(ctx, &domain.Expense{
		TripID:      tripID,
		Amount:      input.Amount,
		Category:    strings.TrimSpace(input.Category),
		Description: strings.TrimSpace(input.Description),
		TripDay:     input.TripDay,
	})
}

// ListTripExpenses returns the trip's rows ascending by creation time.
func (s *ExpenseService) ListTripExpenses(ctx context.Context, userID uuid.UUID, tripID int64, filter ports.ExpenseListFilter) ([]domain.Expense, error) {
	if err := s.ensureOwnedTrip(ctx, userID, tripID); err != nil {
		return nil, err
	}
	return s.expenses.ListByTrip(ctx, tripID, filter)
}

// UpdateExpense applies a partial edit and returns the confirmed row. The
// edit only goes through when the row's trip belongs to the caller.
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID uuid.UUID, id int64, update domain.ExpenseUpdate) (*domain.Expense, error) {
	if update.Amount != nil && *update.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrExpenseValidation)
	}
	if update.TripDay != nil && *update.TripDay <= 0 {
		return nil, fmt.Errorf("%w: trip_day must be positive", ErrExpenseValidation)
	}
	if update.Amount == nil && update.Category == nil && update.Description == nil && update.TripDay == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrExpenseValidation)
	}

	if err := s.ensureOwnedExpense(ctx, userID, id); err != nil {
		return nil, err
	}

	row, err := s.expenses.Update(ctx, id, update)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return row, nil
}

// DeleteExpense removes the caller's row by id. The handler collects the
// user's confirmation; once this call succeeds the row is gone for good.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.ensureOwnedExpense(ctx, userID, id); err != nil {
		return err
	}
	if err := s.expenses.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrExpenseNotFound
		}
		return err
	}
	return nil
}

// ListTripsWithExpenses builds the budget overview: every trip of the user,
// most-recent-first, with its expense rows and the trip-level spent total.
func (s *ExpenseService) ListTripsWithExpenses(ctx context.Context, userID uuid.UUID, limit int) ([]domain.TripExpenses, error) {
	if limit <= 0 {
		limit = defaultTripListLimit
	}
	summaries, err := s.trips.List(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TripExpenses, 0, len(summaries))
	for _, summary := range summaries {
		rows, err := s.expenses.ListByTrip(ctx, summary.ID, ports.ExpenseListFilter{})
		if err != nil {
			return nil, err
		}
		out = append(out, domain.TripExpenses{
			Trip:     summary,
			Expenses: rows,
			Spent:    planner.TotalSpent(rows),
		})
	}
	return out, nil
}

func (s *ExpenseService) ensureOwnedExpense(ctx context.Context, userID uuid.UUID, id int64) error {
	row, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrExpenseNotFound
		}
		return err
	}
	return s.ensureOwnedTrip(ctx, userID, row.TripID)
}

func (s *ExpenseService) ensureOwnedTrip(ctx context.Context, userID uuid.UUID, tripID int64) error {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if isNotFound(err) {
			return ErrTripNotFound
		}
		return err
	}
	if trip.UserID != userID {
		return ErrTripForbidden
	}
	return nil
}
