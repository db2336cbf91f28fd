package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
)

// ErrMalformedCompletion means the model emitted something other than strict
// JSON in the agreed shape. There is no repair or retry step; the error is
// terminal for the request.
var ErrMalformedCompletion = errors.New("completion was not valid itinerary JSON")

type planPayload struct {
	DailyPlan []domain.DailyPlan `json:"daily_plan"`
}

// ParsePlan decodes the raw completion text into an itinerary. Commentary,
// code fences or trailing text around the JSON fail the parse.
func ParsePlan(raw string) ([]domain.DailyPlan, error) {
	var payload planPayload
	if err := decodeStrict(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload.DailyPlan) == 0 {
		return nil, fmt.Errorf("%w: empty daily_plan", ErrMalformedCompletion)
	}

	seen := make(map[int]struct{}, len(payload.DailyPlan))
	for _, day := range payload.DailyPlan {
		if day.Day <= 0 {
			return nil, fmt.Errorf("%w: day index %d is not positive", ErrMalformedCompletion, day.Day)
		}
		if _, dup := seen[day.Day]; dup {
			return nil, fmt.Errorf("%w: duplicate day index %d", ErrMalformedCompletion, day.Day)
		}
		seen[day.Day] = struct{}{}

		for _, act := range day.Activities {
			if strings.TrimSpace(act.Location) == "" {
				return nil, fmt.Errorf("%w: activity without location on day %d", ErrMalformedCompletion, day.Day)
			}
			if act.EstimatedCost != nil && *act.EstimatedCost < 0 {
				return nil, fmt.Errorf("%w: negative estimated_cost on day %d", ErrMalformedCompletion, day.Day)
			}
		}
	}
	return payload.DailyPlan, nil
}

// ParseExpenseDraft decodes the extraction completion. Unknown fields come back
// nil, mirroring the prompt's null substitution rule.
func ParseExpenseDraft(raw string) (*domain.ExpenseDraft, error) {
	var draft domain.ExpenseDraft
	if err := decodeStrict(raw, &draft); err != nil {
		return nil, err
	}
	if draft.Amount != nil && *draft.Amount < 0 {
		return nil, fmt.Errorf("%w: negative amount", ErrMalformedCompletion)
	}
	return &draft, nil
}

// decodeStrict rejects anything that is not a single JSON document: a fence,
// a prose preamble or trailing text all fail.
func decodeStrict(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing content after JSON document", ErrMalformedCompletion)
	}
	return nil
}
