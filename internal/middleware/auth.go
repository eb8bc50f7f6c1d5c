// Package middleware provides HTTP middleware for the service.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/habitloop/habitloop/internal/app/metrics"
	"github.com/habitloop/habitloop/internal/app/storage"
	"github.com/habitloop/habitloop/internal/auth"
	serrors "github.com/habitloop/habitloop/internal/errors"
	"github.com/habitloop/habitloop/internal/httputil"
	"github.com/habitloop/habitloop/pkg/logger"
)

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID stores the authenticated caller's id in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts the caller id from the context, or "".
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// AuthMiddleware resolves the caller from a bearer token: it verifies the
// token, extracts the subject, and confirms the user still exists. A valid
// token whose user has vanished is rejected like any other bad credential.
type AuthMiddleware struct {
	tokens    *auth.Manager
	users     storage.UserStore
	logger    *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates the middleware. Requests to skipPaths bypass
// authentication entirely.
func NewAuthMiddleware(tokens *auth.Manager, users storage.UserStore, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{tokens: tokens, users: users, logger: log, skipPaths: skip}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		// Absence of credentials is distinguished from an invalid
		// credential; everything past this point is generic.
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, serrors.Unauthenticated("missing authorization"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			m.respondError(w, r, serrors.Unauthenticated("missing authorization"))
			return
		}

		userID, err := m.resolveCaller(r.Context(), parts[1])
		if err != nil {
			metrics.RecordAuthFailure("token")
			m.respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// resolveCaller maps a presented token to a live user id.
func (m *AuthMiddleware) resolveCaller(ctx context.Context, token string) (string, error) {
	userID, err := m.tokens.Verify(token)
	if err != nil {
		return "", err
	}

	// A token can outlive its user record; treat that exactly like an
	// invalid token.
	if _, err := m.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", serrors.Unauthenticated("")
		}
		return "", serrors.Internal("resolve caller", err)
	}
	return userID, nil
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	se := serrors.GetServiceError(err)
	if se == nil {
		se = serrors.Internal("authentication failed", err)
	}

	m.logger.WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": se.HTTPStatus,
	}).Warn("authentication failed")

	if se.HTTPStatus == http.StatusUnauthorized {
		httputil.Unauthorized(w, se.Message)
		return
	}
	httputil.WriteErrorResponse(w, se.HTTPStatus, string(se.Code), se.Message)
}

// RequireUserID guards handlers that must run with a resolved caller.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			httputil.Unauthorized(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
