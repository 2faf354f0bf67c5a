package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"college-service/internal/httputil"
)

type contextKey string

// UsernameKey is the context key for the authenticated username
const UsernameKey contextKey = "username"

// TokenValidator resolves a bearer token to an identity.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// RequireToken rejects requests without a valid bearer token before they reach a handler.
func RequireToken(tokens TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(r.Context(), "missing bearer token", "path", r.URL.Path)
				unauthorized(w, "Not authenticated")
				return
			}

			username, err := tokens.Validate(raw)
			if err != nil {
				if errors.Is(err, ErrMalformed) {
					logger.WarnContext(r.Context(), "malformed token", "path", r.URL.Path)
				} else {
					logger.WarnContext(r.Context(), "invalid token", "path", r.URL.Path, "error", err)
				}
				unauthorized(w, ErrUnauthenticated.Error())
				return
			}

			ctx := context.WithValue(r.Context(), UsernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUsername extracts the authenticated username from context
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httputil.RespondWithError(w, http.StatusUnauthorized, message)
}
