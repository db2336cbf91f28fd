package planner

import (
	"sync"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
)

// DefaultHistoryLimit caps how many previously generated or saved plans the
// history list keeps when loading from persistence.
const DefaultHistoryLimit = 20

// ExpenseDirective tells the caller what a plan switch means for the expense
// list: reload from the backend for a saved trip, or clear locally for a plan
// that only has a client-generated key (no persisted association can exist).
type ExpenseDirective int

const (
	ExpensesUnchanged ExpenseDirective = iota
	ExpensesReload
	ExpensesClear
)

// Store holds the itinerary view state: the current plan, the day selection
// and the recency-ordered plan history, plus the expense rows for the current
// trip. All mutation goes through the owning store.
//
// Concurrent generate requests are serialized by a monotonically increasing
// sequence token: a response is applied only when its token is the latest one
// issued, so a stale response can never overwrite a newer plan.
type Store struct {
	mu sync.Mutex

	current     *domain.TripPlan
	selectedDay int // index into current.DailyPlan, not a day number
	history     []*domain.TripPlan
	historyCap  int
	expenses    []domain.Expense

	issuedSeq  uint64
	appliedSeq uint64
}

func NewStore() *Store {
	return &Store{historyCap: DefaultHistoryLimit}
}

// BeginGenerate issues a sequence token for an in-flight plan generation.
func (s *Store) BeginGenerate() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuedSeq++
	return s.issuedSeq
}

// ApplyPlan installs a freshly generated plan if seq is still the latest
// issued token. It reports whether the plan was applied; a stale response is
// dropped without touching state. Applying resets the day selection and
// prepends the plan to the history list.
func (s *Store) ApplyPlan(seq uint64, plan *domain.TripPlan) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.issuedSeq || seq <= s.appliedSeq {
		return false
	}
	s.appliedSeq = seq

	s.current = plan
	s.selectedDay = 0
	s.expenses = nil
	s.prependLocked(plan)
	return true
}

// LoadHistory replaces the history list with plans already ordered by creation
// time descending, capped at the history limit.
func (s *Store) LoadHistory(plans []*domain.TripPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(plans) > s.historyCap {
		plans = plans[:s.historyCap]
	}
	s.history = append([]*domain.TripPlan(nil), plans...)
}

// SelectPlan switches the current plan to one from history. The day selection
// resets to 0 and the returned directive says how to refresh expenses.
func (s *Store) SelectPlan(ref domain.TripRef) (*domain.TripPlan, ExpenseDirective) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.history {
		if !p.Ref.Equal(ref) {
			continue
		}
		s.current = p
		s.selectedDay = 0
		if _, saved := p.Ref.Saved(); saved {
			return p, ExpensesReload
		}
		s.expenses = nil
		return p, ExpensesClear
	}
	return nil, ExpensesUnchanged
}

// SelectDay changes which day's activities are shown. It never mutates the
// plan; out-of-range indexes are ignored.
func (s *Store) SelectDay(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || index < 0 || index >= len(s.current.DailyPlan) {
		return
	}
	s.selectedDay = index
}

// Current returns the current plan and the selected day index.
func (s *Store) Current() (*domain.TripPlan, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.selectedDay
}

// History returns a snapshot of the known plans, most recent first.
func (s *Store) History() []*domain.TripPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.TripPlan(nil), s.history...)
}

// SetExpenses replaces the expense rows, typically after a backend reload.
func (s *Store) SetExpenses(rows []domain.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append([]domain.Expense(nil), rows...)
}

// Expenses returns a snapshot of the expense rows.
func (s *Store) Expenses() []domain.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Expense(nil), s.expenses...)
}

// AddExpense appends a server-confirmed row. There is no optimistic
// pre-append; callers wait for the store's confirmation first.
func (s *Store) AddExpense(row domain.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, row)
}

// ReplaceExpense swaps the row matching by identifier with the updated copy,
// scanning across all days: the row carries its own day index. It reports
// whether a match was found.
func (s *Store) ReplaceExpense(row domain.Expense) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID == row.ID {
			s.expenses[i] = row
			return true
		}
	}
	return false
}

// RemoveExpense deletes the row by identifier. Deletion is immediate and has
// no undo; the caller is expected to have confirmed with the user already.
func (s *Store) RemoveExpense(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return true
		}
	}
	return false
}

// SelectedDaySummary reconciles the current expenses against the selected
// day's activities.
func (s *Store) SelectedDaySummary() DaySummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.selectedDay >= len(s.current.DailyPlan) {
		return DaySummary{}
	}
	return SummarizeDay(s.current.DailyPlan[s.selectedDay], s.expenses)
}

func (s *Store) prependLocked(plan *domain.TripPlan) {
	kept := make([]*domain.TripPlan, 0, len(s.history)+1)
	kept = append(kept, plan)
	for _, p := range s.history {
		if p.Ref.Equal(plan.Ref) {
			continue
		}
		kept = append(kept, p)
	}
	s.history = kept
}
