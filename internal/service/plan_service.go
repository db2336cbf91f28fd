package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/qwfeng/ai-trip-planner-backend/internal/ai"
	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
)

var (
	ErrPlanValidation = errors.New("plan request validation failed")

	// ErrAIService is the one message callers ever see for a completion
	// failure; the underlying cause stays in server logs.
	ErrAIService = errors.New("AI 服务调用失败")
)

// CompletionClient is the slice of the gateway the planner needs.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const titleRuneLimit = 15

// PlanService turns free-form trip text into structured itineraries and
// expense drafts via the completion gateway.
type PlanService struct {
	completions CompletionClient
}

func NewPlanService(completions CompletionClient) *PlanService {
	return &PlanService{completions: completions}
}

// GeneratePlan builds the itinerary prompt, forwards it, parses the strict
// JSON completion and attaches client-side metadata: an unsaved ref, a title
// derived from the request text and the summed estimated budget.
func (s *PlanService) GeneratePlan(ctx context.Context, req domain.TripRequest) (*domain.TripPlan, error) {
	description := strings.TrimSpace(req.Destination)
	if description == "" {
		return nil, fmt.Errorf("%w: destination is required", ErrPlanValidation)
	}
	req.Destination = description

	raw, err := s.completions.Complete(ctx, ai.BuildPlanPrompt(req))
	if err != nil {
		log.Printf("generate-plan: completion failed: %v", err)
		return nil, ErrAIService
	}

	days, err := ai.ParsePlan(raw)
	if err != nil {
		log.Printf("generate-plan: parse failed: %v", err)
		return nil, ErrAIService
	}

	plan := &domain.TripPlan{
		Ref:           domain.UnsavedTripRef(),
		DailyPlan:     days,
		Title:         deriveTitle(description),
		GeneratedFrom: description,
	}
	plan.Budget = plan.TotalEstimatedCost()
	return plan, nil
}

// ExtractExpense pulls amount/category/description out of a free-form spend
// description. Fields the model cannot determine come back nil.
func (s *PlanService) ExtractExpense(ctx context.Context, text string) (*domain.ExpenseDraft, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: text is required", ErrPlanValidation)
	}

	raw, err := s.completions.Complete(ctx, ai.BuildExpensePrompt(trimmed))
	if err != nil {
		log.Printf("extract-expense: completion failed: %v", err)
		return nil, ErrAIService
	}

	draft, err := ai.ParseExpenseDraft(raw)
	if err != nil {
		log.Printf("extract-expense: parse failed: %v", err)
		return nil, ErrAIService
	}
	if draft.Category != nil && !domain.KnownExpenseCategory(*draft.Category) {
		// The prompt names a closed set; an off-list label is dropped rather
		// than stored, leaving the field for manual entry.
		draft.Category = nil
	}
	return draft, nil
}

func deriveTitle(description string) string {
	runes := []rune(description)
	if len(runes) <= titleRuneLimit {
		return description
	}
	return string(runes[:titleRuneLimit]) + "..."
}
