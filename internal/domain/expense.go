package domain

import "time"

// ExpenseCategories is the closed set offered by the expense form and named in
// the extraction prompt. Stored rows are not validated against it: manual entry
// allows free text, matching how the original form behaves.
var ExpenseCategories = []string{"餐饮", "交通", "购物", "门票", "住宿", "其他"}

func KnownExpenseCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Expense is a recorded real-world spend tied to a trip and a day index.
type Expense struct {
	ID          int64     `db:"id" json:"id"`
	TripID      int64     `db:"trip_id" json:"trip_id"`
	Amount      float64   `db:"amount" json:"amount"`
	Category    string    `db:"category" json:"category"`
	Description string    `db:"description" json:"description"`
	TripDay     int       `db:"trip_day" json:"trip_day"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ExpenseDraft is the extraction endpoint's output. Fields the model could not
// determine come back nil and stay nil through the API.
type ExpenseDraft struct {
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
}

// ExpenseUpdate is a partial in-place edit of an expense row.
type ExpenseUpdate struct {
	Amount      *float64 `json:"amount,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	TripDay     *int     `json:"trip_day,omitempty"`
}

// TripExpenses pairs a trip summary with all of its expense rows, as used by
// the budget overview listing.
type TripExpenses struct {
	Trip     TripSummary `json:"trip"`
	Expenses []Expense   `json:"expenses"`
	Spent    float64     `json:"spent"`
}
