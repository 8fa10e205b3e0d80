// Package identity provides anonymous per-browser session tokens.
package identity

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieConfig controls the session cookie written by Middleware.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

type contextKey int

const sessionIDKey contextKey = iota

// SessionIDFromContext extracts the session token from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionID returns a copy of ctx carrying sessionID.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

func isValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Middleware resolves the session token from the cookie, issuing a new one
// when the cookie is missing or malformed. The cookie is written on every
// request so its lifetime slides with the server-side session TTL.
func Middleware(cfg CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := uuid.NewString()
			if c, err := r.Cookie(cfg.Name); err == nil && isValidSessionID(c.Value) {
				sessionID = c.Value
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cfg.Name,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(cfg.MaxAge.Seconds()),
				Expires:  time.Now().Add(cfg.MaxAge),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   cfg.Secure,
			})

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}

// IPFromRequest returns a normalized remote IP for optional request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
