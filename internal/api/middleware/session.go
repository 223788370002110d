package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	userIDKey
)

// Identity returns the raw session token carried by the request, if any.
func Identity(ctx context.Context) string {
	v, _ := ctx.Value(identityKey).(string)
	return v
}

// UserID returns the resolved caller set by RequireUser.
func UserID(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(userIDKey).(int64)
	return v, ok
}

// WithUserID stores a resolved caller in ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Resolver maps a session token to a user id.
type Resolver interface {
	ResolveCaller(ctx context.Context, identity string) (int64, bool)
}

// Session copies the caller's token into the request context. The token is
// read from "Authorization: Bearer" first and the session cookie second. It
// never rejects a request; RequireUser or the service decides.
func Session(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(cookieName); err == nil {
					token = c.Value
				}
			}
			if token != "" {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	ah := r.Header.Get("Authorization")
	if len(ah) < len("Bearer ") || !strings.EqualFold(ah[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[len("Bearer "):])
}

// RequireUser rejects requests whose session does not resolve to a user and
// stores the user id for the handler otherwise.
func RequireUser(resolver Resolver, loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := resolver.ResolveCaller(r.Context(), Identity(r.Context()))
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":     "You must be logged in.",
					"login_url": loginURL,
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
