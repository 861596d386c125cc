package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireSession(t *testing.T) {
	m := newTestSessionManager(t)

	var reached bool
	var seen Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireSession(m)(next)

	t.Run("anonymous is redirected to login", func(t *testing.T) {
		reached = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/delete-review", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))
		assert.False(t, reached, "gated handler must not run")
	})

	t.Run("forged cookie is redirected to login", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodGet, "/library", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "x.y.z"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.False(t, reached)
	})

	t.Run("valid session reaches handler with identity", func(t *testing.T) {
		reached = false
		token, err := m.Issue(ada)
		assert.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/library", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, reached)
		assert.Equal(t, ada, seen)
	})
}

func TestLoadSession(t *testing.T) {
	m := newTestSessionManager(t)

	var loggedIn bool
	h := LoadSession(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, loggedIn = IdentityFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, loggedIn)

	token, _ := m.Issue(ada)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, loggedIn)
}

func TestIdentityFromContext_IgnoresZeroIdentity(t *testing.T) {
	ctx := WithIdentity(httptest.NewRequest(http.MethodGet, "/", nil).Context(), Identity{})
	_, ok := IdentityFromContext(ctx)
	assert.False(t, ok)
}
