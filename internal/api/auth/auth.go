// Package auth exposes the authenticated identity attached by the upstream
// auth proxy. Authentication itself is out of scope for this service; the
// proxy forwards the verified user id as X-User-ID.
package auth

import (
	"context"
	"net/http"

	"github.com/physioline/physioline/internal/api/respond"
)

type contextKey string

const userIDKey contextKey = "userID"

// RequireIdentity rejects requests lacking the authenticated user header
// and exposes the id via UserID(ctx) downstream.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			respond.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing authenticated user identity")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// UserID returns the authenticated user id attached by RequireIdentity.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID attaches an identity directly; used by tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
