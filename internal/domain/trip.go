package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ActivityType is the closed label set the model is instructed to use for
// itinerary activities. Anything else is kept as-is and rendered generically.
type ActivityType string

const (
	ActivityScenicSpot ActivityType = "景点"
	ActivityRestaurant ActivityType = "餐厅"
	ActivityLodging    ActivityType = "住宿"
)

// TripRequest carries a free-form trip description. Days, budget, companion and
// preferences exist as fields but the dominant path folds everything into
// Destination before prompting.
type TripRequest struct {
	Destination string  `json:"destination"`
	Days        int     `json:"days,omitempty"`
	Budget      float64 `json:"budget,omitempty"`
	Companion   string  `json:"companion,omitempty"`
	Preferences string  `json:"preferences,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UnmarshalJSON enforces that latitude and longitude arrive as a pair. A plan
// may omit coordinates entirely, but a half-present pair is malformed.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var raw struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Latitude == nil || raw.Longitude == nil {
		return errors.New("coordinates require both latitude and longitude")
	}
	c.Latitude = *raw.Latitude
	c.Longitude = *raw.Longitude
	return nil
}

// Activity is a single scheduled item within a day. EstimatedCost and
// Coordinates are nullable because the model substitutes null for anything it
// cannot determine.
type Activity struct {
	Location      string       `json:"location"`
	Type          ActivityType `json:"type"`
	Description   string       `json:"description"`
	EstimatedCost *float64     `json:"estimated_cost"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
}

// DailyPlan groups a day's activities. Day is the join key expenses use; it is
// positive and unique within a plan but not required to be contiguous.
type DailyPlan struct {
	Day        int        `json:"day"`
	Activities []Activity `json:"activities"`
}

// TripPlan is a generated itinerary plus client-assigned metadata.
type TripPlan struct {
	Ref           TripRef     `json:"-"`
	DailyPlan     []DailyPlan `json:"daily_plan"`
	Title         string      `json:"title,omitempty"`
	Budget        float64     `json:"budget,omitempty"`
	GeneratedFrom string      `json:"generatedFrom,omitempty"`
}

// TotalEstimatedCost sums every activity's estimated cost across all days.
func (p *TripPlan) TotalEstimatedCost() float64 {
	var total float64
	for _, day := range p.DailyPlan {
		for _, act := range day.Activities {
			if act.EstimatedCost != nil {
				total += *act.EstimatedCost
			}
		}
	}
	return total
}

// FindDay returns the DailyPlan with the given day number.
func (p *TripPlan) FindDay(day int) (*DailyPlan, bool) {
	for i := range p.DailyPlan {
		if p.DailyPlan[i].Day == day {
			return &p.DailyPlan[i], true
		}
	}
	return nil, false
}

// TripRef identifies a plan as either persisted (server-assigned numeric id) or
// not yet saved (client-generated local key). The two id spaces are distinct
// types on purpose: every consumer has to handle the unsaved case explicitly
// instead of sniffing the shape of an id.
type TripRef struct {
	saved    bool
	id       int64
	localKey string
}

func SavedTripRef(id int64) TripRef {
	return TripRef{saved: true, id: id}
}

func UnsavedTripRef() TripRef {
	return TripRef{localKey: "plan_" + uuid.NewString()}
}

// Saved reports the server id when the trip has been persisted.
func (r TripRef) Saved() (int64, bool) {
	return r.id, r.saved
}

// LocalKey reports the client-local key for an unsaved plan.
func (r TripRef) LocalKey() (string, bool) {
	if r.saved {
		return "", false
	}
	return r.localKey, true
}

func (r TripRef) IsZero() bool {
	return !r.saved && r.localKey == ""
}

// Equal compares refs within their own id space.
func (r TripRef) Equal(other TripRef) bool {
	if r.saved != other.saved {
		return false
	}
	if r.saved {
		return r.id == other.id
	}
	return r.localKey == other.localKey
}

// Trip is the persisted form of a plan: the plan itself is an opaque jsonb
// document while expenses live as normalized rows keyed by trip id + day.
type Trip struct {
	ID          int64           `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	Plan        json.RawMessage `db:"generated_plan" json:"generated_plan,omitempty"`
	Destination string          `db:"destination" json:"destination"`
	StartDate   time.Time       `db:"start_date" json:"start_date"`
	EndDate     time.Time       `db:"end_date" json:"end_date"`
	TotalBudget float64         `db:"total_budget" json:"total_budget"`
	Preferences *string         `db:"preferences" json:"preferences,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// TripSummary is the bounded-column projection used by trip listings.
type TripSummary struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Destination string    `db:"destination" json:"destination"`
	TotalBudget float64   `db:"total_budget" json:"total_budget"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

var ErrTripUnsaved = errors.New("trip has not been saved yet")
