package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
)

type TripRepository struct {
	db *sqlx.DB
}

func NewTripRepo(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	const query = `
		INSERT INTO trips (user_id, generated_plan, destination, start_date, end_date, total_budget, preferences)
		VALUES (:user_id, :generated_plan, :destination, :start_date, :end_date, :total_budget, :preferences)
		RETURNING id, user_id, generated_plan, destination, start_date, end_date, total_budget, preferences, created_at
	`
	args := map[string]any{
		"user_id":        trip.UserID,
		"generated_plan": []byte(trip.Plan),
		"destination":    trip.Destination,
		"start_date":     trip.StartDate,
		"end_date":       trip.EndDate,
		"total_budget":   trip.TotalBudget,
		"preferences":    trip.Preferences,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		var stored domain.Trip
		if err := rows.StructScan(&stored); err != nil {
			return nil, err
		}
		return &stored, nil
	}
	return nil, sql.ErrNoRows
}

func (r *TripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	const query = `
		SELECT id, user_id, generated_plan, destination, start_date, end_date, total_budget, preferences, created_at
		FROM trips
		WHERE id = $1
	`
	var trip domain.Trip
	if err := r.db.GetContext(ctx, &trip, query, id); err != nil {
		return nil, err
	}
	return &trip, nil
}

// List pulls only the columns the sidebar needs. The plan title lives inside
// the jsonb document, so it is projected out here rather than duplicated as a
// column.
func (r *TripRepository) List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.TripSummary, error) {
	const query = `
		SELECT
			id,
			COALESCE(generated_plan->>'title', destination) AS title,
			destination,
			total_budget,
			created_at
		FROM trips
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	summaries := []domain.TripSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, userID, limit); err != nil {
		return nil, err
	}
	return summaries, nil
}
