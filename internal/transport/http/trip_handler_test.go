package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
	"github.com/qwfeng/ai-trip-planner-backend/internal/repository/ports"
	"github.com/qwfeng/ai-trip-planner-backend/internal/service"
)

type memoryTripRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*domain.Trip
}

func (r *memoryTripRepo) Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *trip
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.rows = append(r.rows, &stored)
	return &stored, nil
}

func (r *memoryTripRepo) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryTripRepo) List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.TripSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TripSummary
	for i := len(r.rows) - 1; i >= 0; i-- {
		row := r.rows[i]
		if row.UserID != userID {
			continue
		}
		out = append(out, domain.TripSummary{
			ID:          row.ID,
			Title:       row.Destination,
			Destination: row.Destination,
			TotalBudget: row.TotalBudget,
			CreatedAt:   row.CreatedAt,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type memoryExpenseRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*domain.Expense
}

func (r *memoryExpenseRepo) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *expense
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.rows = append(r.rows, &stored)
	return &stored, nil
}

func (r *memoryExpenseRepo) GetByID(ctx context.Context, id int64) (*domain.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryExpenseRepo) ListByTrip(ctx context.Context, tripID int64, filter ports.ExpenseListFilter) ([]domain.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Expense
	for _, row := range r.rows {
		if row.TripID != tripID {
			continue
		}
		if filter.TripDay != nil && row.TripDay != *filter.TripDay {
			continue
		}
		if len(filter.Categories) > 0 {
			matched := false
			for _, cat := range filter.Categories {
				if row.Category == cat {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *row)
	}
	return out, nil
}

func (r *memoryExpenseRepo) Update(ctx context.Context, id int64, update domain.ExpenseUpdate) (*domain.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID != id {
			continue
		}
		if update.Amount != nil {
			row.Amount = *update.Amount
		}
		if update.Category != nil {
			row.Category = *update.Category
		}
		if update.Description != nil {
			row.Description = *update.Description
		}
		if update.TripDay != nil {
			row.TripDay = *update.TripDay
		}
		copied := *row
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *memoryExpenseRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type tripTestEnv struct {
	server *httptest.Server
	cookie *http.Cookie
}

func newTripTestServer(t *testing.T) *tripTestEnv {
	t.Helper()

	tripRepo := &memoryTripRepo{}
	expenseRepo := &memoryExpenseRepo{}
	auth := service.NewAuthService(newMemoryUserRepo(), newMemorySessionRepo(), "test-secret", time.Hour, "")
	trips := service.NewTripService(tripRepo, 20)
	expenses := service.NewExpenseService(expenseRepo, tripRepo)

	e := NewRouter([]string{"*"})
	RegisterAuth(e, auth, "/login")
	RegisterTrips(e, auth, trips, expenses)
	server := httptest.NewServer(e)

	resp, err := http.Post(server.URL+"/auth/sign-up", "application/json",
		strings.NewReader(`{"email": "traveler@example.com", "password": "long-enough-password"}`))
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	resp.Body.Close()
	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatalf("expected session cookie from sign-up")
	}
	return &tripTestEnv{server: server, cookie: cookie}
}

func (env *tripTestEnv) signUpAs(t *testing.T, email string) *http.Cookie {
	t.Helper()
	resp, err := http.Post(env.server.URL+"/auth/sign-up", "application/json",
		strings.NewReader(fmt.Sprintf(`{"email": %q, "password": "long-enough-password"}`, email)))
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	resp.Body.Close()
	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatalf("expected session cookie from sign-up")
	}
	return cookie
}

func (env *tripTestEnv) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	return env.doAs(t, env.cookie, method, path, body)
}

func (env *tripTestEnv) doAs(t *testing.T, cookie *http.Cookie, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, env.server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

const saveTripBody = `{
  "title": "北京两日游",
  "generatedFrom": "我想去北京玩两天",
  "daily_plan": [
    {"day": 1, "activities": [{"location": "故宫", "type": "景点", "description": "上午", "estimated_cost": 60}]},
    {"day": 2, "activities": [{"location": "颐和园", "type": "景点", "description": "全天", "estimated_cost": 40}]}
  ]
}`

func TestTripEndpointsRequireAuth(t *testing.T) {
	env := newTripTestServer(t)
	defer env.server.Close()

	resp, err := http.Get(env.server.URL + "/api/trips")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}
}

func TestSaveAndListTrips(t *testing.T) {
	env := newTripTestServer(t)
	defer env.server.Close()

	resp, body := env.do(t, http.MethodPost, "/api/trips", saveTripBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	trip, ok := body["trip"].(map[string]any)
	if !ok {
		t.Fatalf("expected trip envelope, got %v", body)
	}
	if trip["destination"] != "北京两日游" {
		t.Fatalf("expected destination from title, got %v", trip["destination"])
	}
	if trip["total_budget"] != float64(100) {
		t.Fatalf("expected budget summed to 100, got %v", trip["total_budget"])
	}

	resp, body = env.do(t, http.MethodGet, "/api/trips", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	trips, ok := body["trips"].([]any)
	if !ok || len(trips) != 1 {
		t.Fatalf("expected one trip listed, got %v", body)
	}
}

func TestSaveTripRejectsEmptyPlanPayload(t *testing.T) {
	env := newTripTestServer(t)
	defer env.server.Close()

	resp, _ := env.do(t, http.MethodPost, "/api/trips", `{"title": "空计划", "daily_plan": []}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty plan, got %d", resp.StatusCode)
	}
}

func TestGetTripNotFoundAndForeign(t *testing.T) {
	env := newTripTestServer(t)
	defer env.server.Close()

	resp, _ := env.do(t, http.MethodGet, "/api/trips/999", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown trip, got %d", resp.StatusCode)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	env := newTripTestServer(t)
	defer env.server.Close()

	resp, body := env.do(t, http.MethodPost, "/api/trips", saveTripBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save trip failed: %d", resp.StatusCode)
	}
	tripID := int64(body["trip"].(map[string]any)["id"].(float64))
	base := fmt.Sprintf("/api/trips/%d/expenses", tripID)

	resp, body = env.do(t, http.MethodPost, base, `{"amount": 88.5, "category": "餐饮", "description": "烤鸭", "trip_day": 1}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	expense := body["expense"].(map[string]any)
	expenseID := int64(expense["id"].(float64))

	resp, _ = env.do(t, http.MethodPost, base, `{"amount": 120, "category": "门票", "description": "颐和园", "trip_day": 2}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("second expense failed: %d", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodGet, base, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list failed: %d", resp.StatusCode)
	}
	if rows := body["expenses"].([]any); len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	resp, body = env.do(t, http.MethodGet, base+"?category=餐饮", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filtered list failed: %d", resp.StatusCode)
	}
	rows := body["expenses"].([]any)
	if len(rows) != 1 || rows[0].(map[string]any)["category"] != "餐饮" {
		t.Fatalf("expected category filter applied, got %v", rows)
	}

	resp, body = env.do(t, http.MethodGet, base+"?trip_day=2", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("day-filtered list failed: %d", resp.StatusCode)
	}
	if rows := body["expenses"].([]any); len(rows) != 1 {
		t.Fatalf("expected day filter applied, got %v", rows)
	}

	resp, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/expenses/%d", expenseID), `{"amount": 95}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update failed: %d (%v)", resp.StatusCode, body)
	}
	if body["expense"].(map[string]any)["amount"] != float64(95) {
		t.Fatalf("expected updated amount, got %v", body["expense"])
	}

	resp, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", expenseID), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete failed: %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", expenseID), "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 deleting a gone row, got %d", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodGet, base, "")
	if rows := body["expenses"].([]any); len(rows) != 1 {
		t.Fatalf("expected 1 row after delete, got %d", len(rows))
	}
}

func TestExpenseEditForeignUser(t *testing.T) {
	env := newTripTestServer(t)
	defer env.server.Close()

	resp, body := env.do(t, http.MethodPost, "/api/trips", saveTripBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save trip failed: %d", resp.StatusCode)
	}
	tripID := int64(body["trip"].(map[string]any)["id"].(float64))

	resp, body = env.do(t, http.MethodPost, fmt.Sprintf("/api/trips/%d/expenses", tripID),
		`{"amount": 88.5, "category": "餐饮", "description": "烤鸭", "trip_day": 1}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add expense failed: %d", resp.StatusCode)
	}
	expenseID := int64(body["expense"].(map[string]any)["id"].(float64))

	intruder := env.signUpAs(t, "other@example.com")

	resp, _ = env.doAs(t, intruder, http.MethodPut, fmt.Sprintf("/api/expenses/%d", expenseID), `{"amount": 999}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 updating another user's expense, got %d", resp.StatusCode)
	}
	resp, _ = env.doAs(t, intruder, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", expenseID), "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 deleting another user's expense, got %d", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodGet, fmt.Sprintf("/api/trips/%d/expenses", tripID), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list failed: %d", resp.StatusCode)
	}
	rows := body["expenses"].([]any)
	if len(rows) != 1 || rows[0].(map[string]any)["amount"] != float64(88.5) {
		t.Fatalf("expected the row untouched, got %v", rows)
	}
}

func TestBudgetOverview(t *testing.T) {
	env := newTripTestServer(t)
	defer env.server.Close()

	resp, body := env.do(t, http.MethodPost, "/api/trips", saveTripBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save trip failed: %d", resp.StatusCode)
	}
	tripID := int64(body["trip"].(map[string]any)["id"].(float64))

	base := fmt.Sprintf("/api/trips/%d/expenses", tripID)
	env.do(t, http.MethodPost, base, `{"amount": 60, "category": "门票", "description": "故宫", "trip_day": 1}`)
	env.do(t, http.MethodPost, base, `{"amount": 140, "category": "餐饮", "description": "晚饭", "trip_day": 1}`)

	resp, body = env.do(t, http.MethodGet, "/api/trips/overview", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overview failed: %d", resp.StatusCode)
	}
	trips := body["trips"].([]any)
	if len(trips) != 1 {
		t.Fatalf("expected one trip in overview, got %d", len(trips))
	}
	entry := trips[0].(map[string]any)
	if entry["spent"] != float64(200) {
		t.Fatalf("expected spent 200, got %v", entry["spent"])
	}
	if rows := entry["expenses"].([]any); len(rows) != 2 {
		t.Fatalf("expected 2 expense rows in overview, got %d", len(rows))
	}
}

func TestExpenseOnUnsavedTripID(t *testing.T) {
	env := newTripTestServer(t)
	defer env.server.Close()

	resp, _ := env.do(t, http.MethodPost, "/api/trips/0/expenses", `{"amount": 10, "category": "其他", "trip_day": 1}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-positive trip id, got %d", resp.StatusCode)
	}
}
