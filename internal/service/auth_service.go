package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
	"github.com/qwfeng/ai-trip-planner-backend/internal/repository/ports"
	"github.com/qwfeng/ai-trip-planner-backend/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrSessionInvalid     = errors.New("session is invalid or expired")
)

// AuthService issues and validates cookie sessions backed by JWT tokens and
// a session table.
type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	tokens   *util.JWTManager
	ttl      time.Duration
	aud      string
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionRepository, jwtSecret string, ttl time.Duration, googleAudience string) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   util.NewJWTManager(jwtSecret, ttl),
		ttl:      ttl,
		aud:      googleAudience,
	}
}

// Register creates an email/password account and opens a session.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", errors.New("a valid email is required")
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.CreateEmailUser(ctx, email, hash, salt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies the password and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// LoginWithGoogle validates the Google id token, upserts the account and
// opens a session.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idTok string) (*domain.User, string, error) {
	payload, err := idtoken.Validate(ctx, idTok, s.aud)
	if err != nil {
		return nil, "", errors.New("invalid google token")
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, "", errors.New("google token carried no email")
	}
	var fullName, picture *string
	if name, ok := payload.Claims["name"].(string); ok && name != "" {
		fullName = &name
	}
	if pic, ok := payload.Claims["picture"].(string); ok && pic != "" {
		picture = &pic
	}

	user, err := s.users.UpsertGoogleUser(ctx, strings.ToLower(email), fullName, picture)
	if err != nil {
		return nil, "", err
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a session token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	if _, err := s.sessions.FindActiveSession(ctx, token); err != nil {
		if isNotFound(err) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	return user, nil
}

// SignOut deactivates the session. Signing out an already-dead session is
// not an error.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if err := s.sessions.DeactivateSession(ctx, token); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (string, error) {
	token, expiresAt, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return "", err
	}
	if _, err := s.sessions.CreateSession(ctx, user.ID, token, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}
