package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
	"github.com/qwfeng/ai-trip-planner-backend/internal/repository/ports"
)

type ExpenseRepository struct {
	db *sqlx.DB
}

func NewExpenseRepo(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	const query = `
		INSERT INTO expenses (trip_id, amount, category, description, trip_day)
		VALUES (:trip_id, :amount, :category, :description, :trip_day)
		RETURNING id, trip_id, amount, category, description, trip_day, created_at
	`
	args := map[string]any{
		"trip_id":     expense.TripID,
		"amount":      expense.Amount,
		"category":    expense.Category,
		"description": expense.Description,
		"trip_day":    expense.TripDay,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		var stored domain.Expense
		if err := rows.StructScan(&stored); err != nil {
			return nil, err
		}
		return &stored, nil
	}
	return nil, sql.ErrNoRows
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*domain.Expense, error) {
	const query = `
		SELECT id, trip_id, amount, category, description, trip_day, created_at
		FROM expenses
		WHERE id = $1
	`
	var expense domain.Expense
	if err := r.db.GetContext(ctx, &expense, query, id); err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *ExpenseRepository) ListByTrip(ctx context.Context, tripID int64, filter ports.ExpenseListFilter) ([]domain.Expense, error) {
	clauses := []string{"trip_id = $1"}
	params := []any{tripID}

	if len(filter.Categories) > 0 {
		clauses = append(clauses, fmt.Sprintf("category = ANY($%d)", len(params)+1))
		params = append(params, pq.StringArray(filter.Categories))
	}
	if filter.TripDay != nil {
		clauses = append(clauses, fmt.Sprintf("trip_day = $%d", len(params)+1))
		params = append(params, *filter.TripDay)
	}

	query := `
		SELECT id, trip_id, amount, category, description, trip_day, created_at
		FROM expenses
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY created_at ASC, id ASC
	`

	expenses := []domain.Expense{}
	if err := r.db.SelectContext(ctx, &expenses, query, params...); err != nil {
		return nil, err
	}
	return expenses, nil
}

// Update edits only the provided fields and returns the updated row.
func (r *ExpenseRepository) Update(ctx context.Context, id int64, update domain.ExpenseUpdate) (*domain.Expense, error) {
	sets := []string{}
	params := []any{}

	if update.Amount != nil {
		sets = append(sets, fmt.Sprintf("amount = $%d", len(params)+1))
		params = append(params, *update.Amount)
	}
	if update.Category != nil {
		sets = append(sets, fmt.Sprintf("category = $%d", len(params)+1))
		params = append(params, *update.Category)
	}
	if update.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", len(params)+1))
		params = append(params, *update.Description)
	}
	if update.TripDay != nil {
		sets = append(sets, fmt.Sprintf("trip_day = $%d", len(params)+1))
		params = append(params, *update.TripDay)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("expense update %d: no fields to update", id)
	}

	query := `
		UPDATE expenses
		SET ` + strings.Join(sets, ", ") + fmt.Sprintf(`
		WHERE id = $%d
		RETURNING id, trip_id, amount, category, description, trip_day, created_at
	`, len(params)+1)
	params = append(params, id)

	var stored domain.Expense
	if err := r.db.GetContext(ctx, &stored, query, params...); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM expenses WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
