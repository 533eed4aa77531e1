package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/rapidfit/internal/auth"
	"github.com/2beens/rapidfit/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type sessionChecker interface {
	UserID(ctx context.Context, token string) (string, error)
}

type contextKey string

const (
	userIDContextKey contextKey = "rapidfit-user-id"
	tokenContextKey  contextKey = "rapidfit-session-token"
)

// UserIDFromContext returns the id of the authenticated user, set by AuthCheck.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// TokenFromContext returns the session token of the authenticated request.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok && token != ""
}

// ContextWithSession is used by AuthCheck, and by tests that call handlers directly.
func ContextWithSession(ctx context.Context, userID, token string) context.Context {
	ctx = context.WithValue(ctx, userIDContextKey, userID)
	return context.WithValue(ctx, tokenContextKey, token)
}

type AuthMiddlewareHandler struct {
	checker      sessionChecker
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(checker sessionChecker) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		checker: checker,
		allowedPaths: map[string]bool{
			"/":        true,
			"/version": true,
			"/myip":    true,

			"/api/auth/register":        true,
			"/api/auth/login":           true,
			"/api/auth/forgot-password": true,
			"/api/auth/reset-password":  true,
		},
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := bearerToken(r)
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "missing auth token", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			userID, err := h.checker.UserID(ctx, authToken)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrSessionNotFound),
				errors.Is(err, auth.ErrSessionExpired),
				errors.Is(err, auth.ErrInvalidSession):
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-session")
				return
			default:
				// session store failure, not a bad token
				log.Errorf("[failed session check] => %s: %s", r.URL.Path, err)
				span.RecordError(err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				span.SetStatus(codes.Error, "session-check-failed")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), userID, authToken)))
		})
	}
}
