package planner

import "github.com/qwfeng/ai-trip-planner-backend/internal/domain"

// DaySummary is the reconciled spend picture for a single day of a plan.
type DaySummary struct {
	Day      int     `json:"day"`
	Spent    float64 `json:"spent"`
	Budgeted float64 `json:"budgeted"`
	Progress float64 `json:"progress"`
}

// SummarizeDay filters the expense set down to rows whose day index matches
// the day's number, sums their amounts into Spent, sums the day's estimated
// activity costs into Budgeted, and computes Progress as min(Spent/Budgeted, 1)
// when Budgeted > 0 and 0 otherwise.
func SummarizeDay(day domain.DailyPlan, expenses []domain.Expense) DaySummary {
	summary := DaySummary{Day: day.Day}

	for _, act := range day.Activities {
		if act.EstimatedCost != nil {
			summary.Budgeted += *act.EstimatedCost
		}
	}
	for _, exp := range expenses {
		if exp.TripDay == day.Day {
			summary.Spent += exp.Amount
		}
	}

	if summary.Budgeted > 0 {
		summary.Progress = summary.Spent / summary.Budgeted
		if summary.Progress > 1 {
			summary.Progress = 1
		}
	}
	return summary
}

// SummarizePlan reconciles every day of a plan in plan order.
func SummarizePlan(plan *domain.TripPlan, expenses []domain.Expense) []DaySummary {
	if plan == nil {
		return nil
	}
	summaries := make([]DaySummary, 0, len(plan.DailyPlan))
	for _, day := range plan.DailyPlan {
		summaries = append(summaries, SummarizeDay(day, expenses))
	}
	return summaries
}

// TotalSpent sums every expense amount regardless of day.
func TotalSpent(expenses []domain.Expense) float64 {
	var total float64
	for _, exp := range expenses {
		total += exp.Amount
	}
	return total
}
