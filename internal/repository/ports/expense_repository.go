package ports

import (
	"context"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
)

// ExpenseListFilter narrows an expense listing. Rows always come back
// ascending by creation time.
type ExpenseListFilter struct {
	Categories []string
	TripDay    *int
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error)
	GetByID(ctx context.Context, id int64) (*domain.Expense, error)
	ListByTrip(ctx context.Context, tripID int64, filter ExpenseListFilter) ([]domain.Expense, error)
	// Update applies a partial field edit by id and returns the updated row.
	Update(ctx context.Context, id int64, update domain.ExpenseUpdate) (*domain.Expense, error)
	Delete(ctx context.Context, id int64) error
}
