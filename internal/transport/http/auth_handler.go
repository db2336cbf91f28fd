package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qwfeng/ai-trip-planner-backend/internal/service"
	"github.com/qwfeng/ai-trip-planner-backend/internal/util"
)

type AuthHandler struct {
	auth     *service.AuthService
	loginURL string
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, loginURL string) {
	if loginURL == "" {
		loginURL = "/login"
	}
	handler := &AuthHandler{auth: auth, loginURL: loginURL}

	e.POST("/auth/sign-up", handler.signUp)
	e.POST("/auth/sign-in", handler.signIn)
	e.POST("/auth/google", handler.signInWithGoogle)
	e.POST("/auth/sign-out", handler.signOut)
}

// signUp handles POST /auth/sign-up.
func (h *AuthHandler) signUp(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid credentials payload"))
	}

	user, token, err := h.auth.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, util.Error(err.Error()))
		}
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}

	setSessionCookie(c, token)
	return c.JSON(http.StatusCreated, util.Data("user", user))
}

// signIn handles POST /auth/sign-in.
func (h *AuthHandler) signIn(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid credentials payload"))
	}

	user, token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, util.Error(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("unable to sign in"))
	}

	setSessionCookie(c, token)
	return c.JSON(http.StatusOK, util.Data("user", user))
}

// signInWithGoogle handles POST /auth/google.
func (h *AuthHandler) signInWithGoogle(c echo.Context) error {
	var req googleLoginRequest
	if err := c.Bind(&req); err != nil || req.IDToken == "" {
		return c.JSON(http.StatusBadRequest, util.Error("id_token required"))
	}

	user, token, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, util.Error(err.Error()))
	}

	setSessionCookie(c, token)
	return c.JSON(http.StatusOK, util.Data("user", user))
}

// signOut handles POST /auth/sign-out: the session is deactivated, the
// cookie cleared, and the browser redirected to the login view.
func (h *AuthHandler) signOut(c echo.Context) error {
	token := sessionToken(c)
	if err := h.auth.SignOut(c.Request().Context(), token); err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("unable to sign out"))
	}

	clearSessionCookie(c)
	return c.Redirect(http.StatusFound, h.loginURL)
}

func setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
