package auth

import (
	"context"
	"net/http"
)

// contextKey is package-private so no other package can read or shadow the
// identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// LoginPath is where gated pages send anonymous visitors.
const LoginPath = "/login"

// RequireSession gates page routes. Without a valid session the request never
// reaches next: the visitor is redirected to the login page with 303 See Other
// and no handler side effect runs.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireSession(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := sessions.FromRequest(r)
			if !ok {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// LoadSession attaches the identity when a valid session is present but lets
// anonymous requests through. Public pages use it to render the navigation
// for logged-in visitors.
func LoadSession(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := sessions.FromRequest(r); ok {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns (Identity{}, false) for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID > 0
}
