// Package auth provides bearer-token authentication middleware.
package auth

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/inkwell-app/inkwell/internal/config"
	"github.com/inkwell-app/inkwell/pkg/apperror"
	"github.com/inkwell-app/inkwell/pkg/logger"
)

// AuthUser represents an authenticated user
type AuthUser struct {
	// Subject claim from the access token
	ID string `json:"id"`

	// User's email address, when present in the token
	Email string `json:"email,omitempty"`
}

// ContextKey for storing auth user in context
type contextKey string

const UserContextKey contextKey = "auth_user"

// GetUser retrieves the authenticated user from the Echo context
func GetUser(c echo.Context) *AuthUser {
	if user, ok := c.Get(string(UserContextKey)).(*AuthUser); ok {
		return user
	}
	return nil
}

// GetUserID returns the authenticated user's ID, or ErrUnauthorized
// when the request carries no user.
func GetUserID(c echo.Context) (string, error) {
	user := GetUser(c)
	if user == nil {
		return "", apperror.ErrUnauthorized
	}
	return user.ID, nil
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Middleware handles authentication for routes
type Middleware struct {
	cfg *config.Config
	log *slog.Logger
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(cfg *config.Config, log *slog.Logger) *Middleware {
	return &Middleware{
		cfg: cfg,
		log: log.With(logger.Scope("auth")),
	}
}

// RequireAuth returns middleware that requires a valid bearer token
func (m *Middleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := m.authenticate(c)
			if err != nil {
				m.log.Warn("authentication failed", logger.Error(err))
				return err
			}
			c.Set(string(UserContextKey), user)
			return next(c)
		}
	}
}

// RequireServiceToken returns middleware gating internal endpoints behind
// the shared service token. Intended for worker-to-server calls, not end users.
func (m *Middleware) RequireServiceToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.cfg.Auth.InternalToken == "" {
				return apperror.ErrForbidden.WithMessage("internal API disabled")
			}
			token, ok := bearerToken(c)
			if !ok {
				return apperror.ErrMissingToken
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.Auth.InternalToken)) != 1 {
				return apperror.ErrInvalidToken
			}
			return next(c)
		}
	}
}

func (m *Middleware) authenticate(c echo.Context) (*AuthUser, error) {
	raw, ok := bearerToken(c)
	if !ok {
		return nil, apperror.ErrMissingToken
	}

	cl := &claims{}
	token, err := jwt.ParseWithClaims(raw, cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperror.ErrInvalidToken
		}
		return []byte(m.cfg.Auth.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.ErrTokenExpired
		}
		return nil, apperror.ErrInvalidToken
	}
	if !token.Valid || cl.Subject == "" {
		return nil, apperror.ErrInvalidToken
	}

	return &AuthUser{ID: cl.Subject, Email: cl.Email}, nil
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
