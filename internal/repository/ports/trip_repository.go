package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
)

type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error)
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	// List returns the user's trips most-recent-first with the bounded-column
	// projection, capped at limit.
	List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.TripSummary, error)
}
