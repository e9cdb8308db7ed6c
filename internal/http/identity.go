package http

import (
	"context"
	"net/http"

	"fintrack/internal/core"
)

type contextKey string

const userKey contextKey = "user"

// withIdentity reads the identity headers set by the authenticating proxy.
// The user is attribution only; requests without headers proceed anonymous.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := core.User{
			ID:        r.Header.Get("X-User-Id"),
			Name:      r.Header.Get("X-User-Name"),
			Email:     r.Header.Get("X-User-Email"),
			AvatarURL: r.Header.Get("X-User-Avatar"),
		}
		if user.ID != "" {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// userFrom returns the request's user, if the proxy identified one.
func userFrom(ctx context.Context) (core.User, bool) {
	user, ok := ctx.Value(userKey).(core.User)
	return user, ok
}
