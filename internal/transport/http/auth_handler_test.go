package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
	"github.com/qwfeng/ai-trip-planner-backend/internal/service"
)

type memoryUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byEmail: make(map[string]*domain.User)}
}

func (r *memoryUserRepo) CreateEmailUser(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: append([]byte(nil), passwordHash...),
		PasswordSalt: append([]byte(nil), passwordSalt...),
		CreatedAt:    time.Now(),
	}
	r.byEmail[email] = user
	return user, nil
}

func (r *memoryUserRepo) UpsertGoogleUser(ctx context.Context, email string, fullName *string, imageURL *string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, exists := r.byEmail[email]; exists {
		return user, nil
	}
	user := &domain.User{ID: uuid.New(), Email: email, FullName: fullName, ImageURL: imageURL}
	r.byEmail[email] = user
	return user, nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, exists := r.byEmail[email]; exists {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

type memorySessionRepo struct {
	mu      sync.Mutex
	byToken map[string]*domain.Session
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{byToken: make(map[string]*domain.Session)}
}

func (r *memorySessionRepo) CreateSession(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session := &domain.Session{UserID: userID, Token: token, ExpiresAt: expiresAt, IsActive: true}
	r.byToken[token] = session
	return session, nil
}

func (r *memorySessionRepo) DeactivateSession(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, exists := r.byToken[token]
	if !exists || !session.IsActive {
		return sql.ErrNoRows
	}
	session.IsActive = false
	return nil
}

func (r *memorySessionRepo) FindActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, exists := r.byToken[token]
	if !exists || !session.IsActive || time.Now().After(session.ExpiresAt) {
		return nil, sql.ErrNoRows
	}
	return session, nil
}

func newAuthTestServer(t *testing.T) (*httptest.Server, *memorySessionRepo) {
	t.Helper()
	sessions := newMemorySessionRepo()
	auth := service.NewAuthService(newMemoryUserRepo(), sessions, "test-secret", time.Hour, "")
	e := NewRouter([]string{"*"})
	RegisterAuth(e, auth, "/login")
	return httptest.NewServer(e), sessions
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == SessionCookieName {
			return cookie
		}
	}
	return nil
}

func TestSignUpSetsSessionCookie(t *testing.T) {
	server, _ := newAuthTestServer(t)
	defer server.Close()

	resp, err := http.Post(server.URL+"/auth/sign-up", "application/json",
		strings.NewReader(`{"email": "user@example.com", "password": "long-enough-password"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	cookie := sessionCookie(resp)
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("expected session cookie on sign-up")
	}
	if !cookie.HttpOnly {
		t.Fatalf("expected http-only session cookie")
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	user, ok := body["user"].(map[string]any)
	if !ok || user["email"] != "user@example.com" {
		t.Fatalf("expected user envelope, got %v", body)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not appear on the wire")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	server, _ := newAuthTestServer(t)
	defer server.Close()

	payload := `{"email": "user@example.com", "password": "long-enough-password"}`
	first, err := http.Post(server.URL+"/auth/sign-up", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	first.Body.Close()

	second, err := http.Post(server.URL+"/auth/sign-up", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer second.Body.Close()
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", second.StatusCode)
	}
}

func TestSignInAndSignOutFlow(t *testing.T) {
	server, sessions := newAuthTestServer(t)
	defer server.Close()

	resp, err := http.Post(server.URL+"/auth/sign-up", "application/json",
		strings.NewReader(`{"email": "user@example.com", "password": "long-enough-password"}`))
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Post(server.URL+"/auth/sign-in", "application/json",
		strings.NewReader(`{"email": "user@example.com", "password": "long-enough-password"}`))
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on sign-in, got %d", resp.StatusCode)
	}
	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatalf("expected session cookie on sign-in")
	}

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/auth/sign-out", nil)
	req.AddCookie(cookie)
	out, err := noRedirectClient().Do(req)
	if err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	defer out.Body.Close()

	if out.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 on sign-out, got %d", out.StatusCode)
	}
	if loc := out.Header.Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
	cleared := sessionCookie(out)
	if cleared == nil || cleared.Value != "" || cleared.MaxAge != -1 {
		t.Fatalf("expected cleared session cookie, got %+v", cleared)
	}
	if _, err := sessions.FindActiveSession(context.Background(), cookie.Value); err == nil {
		t.Fatalf("expected session deactivated server-side")
	}

	// Signing out again without a live session still redirects.
	req, _ = http.NewRequest(http.MethodPost, server.URL+"/auth/sign-out", nil)
	req.AddCookie(cookie)
	again, err := noRedirectClient().Do(req)
	if err != nil {
		t.Fatalf("second sign-out failed: %v", err)
	}
	again.Body.Close()
	if again.StatusCode != http.StatusFound {
		t.Fatalf("expected idempotent sign-out, got %d", again.StatusCode)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	server, _ := newAuthTestServer(t)
	defer server.Close()

	resp, err := http.Post(server.URL+"/auth/sign-up", "application/json",
		strings.NewReader(`{"email": "user@example.com", "password": "long-enough-password"}`))
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Post(server.URL+"/auth/sign-in", "application/json",
		strings.NewReader(`{"email": "user@example.com", "password": "wrong-password"}`))
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if sessionCookie(resp) != nil {
		t.Fatalf("expected no session cookie on failed sign-in")
	}
}
