package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
)

// VisitorCookie is the name of the signed visitor cookie.
const VisitorCookie = "visitor"

// contextKey is an unexported type so no other package can collide with
// our context values.
type contextKey string

const visitorIDKey contextKey = "visitorID"

// Visitor is a middleware that guarantees every request has a visitor ID.
//
// It reads the signed visitor cookie; when the cookie is missing, expired or
// tampered with, it mints a fresh xid, signs it and sets the cookie on the
// response. A fresh visitor has an empty storage slot, which is exactly the
// logged-out state, so a bad cookie never produces an error page.
func Visitor(tokens *VisitorTokens, secure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(VisitorCookie); err == nil && c.Value != "" {
				if id, err := tokens.Verify(c.Value); err == nil {
					next.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), id)))
					return
				}
			}

			id := xid.New().String()
			signed, err := tokens.Issue(id)
			if err != nil {
				logger.Error("issuing visitor token", slog.String("error", err.Error()))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     VisitorCookie,
				Value:    signed,
				Path:     "/",
				MaxAge:   int(VisitorLifetime.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), id)))
		})
	}
}

// WithVisitorID returns a copy of ctx carrying visitorID.
// Handlers get it from the Visitor middleware; tests set it directly.
func WithVisitorID(ctx context.Context, visitorID string) context.Context {
	return context.WithValue(ctx, visitorIDKey, visitorID)
}

// VisitorIDFromContext returns the visitor ID set by the Visitor middleware.
func VisitorIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(visitorIDKey).(string)
	return id, ok && id != ""
}
