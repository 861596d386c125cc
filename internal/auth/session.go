// Package auth owns everything about who is making a request: the signed
// session cookie, the middleware that gates pages on it, password hashing
// and the optional GitHub login.
//
// SESSION SHAPE:
// The cookie carries a JWT whose payload mirrors what the pages need to know
// about the visitor:
//
//	{"isLoggedIn": true, "name": "Ada", "email": "ada@example.com", "sub": "42", "exp": ...}
//
// The signature makes the payload tamper-proof, so the server never has to
// look the session up anywhere. Logging out is the one exception: the token's
// "jti" goes on an in-memory denylist until the token would have expired.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	// SessionCookie is the name of the cookie holding the signed session.
	SessionCookie = "session"

	sessionIssuer = "gamelog"
)

// Identity is the authenticated user a request acts as. Handlers receive it
// explicitly instead of reading a mutable session bag.
type Identity struct {
	UserID int64
	Name   string
	Email  string
}

// SessionManager issues and verifies session cookies.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
}

// NewSessionManager needs a secret of at least 16 characters. secure marks the
// cookie HTTPS-only and should be on everywhere except local development.
func NewSessionManager(secret string, ttl time.Duration, secure bool) (*SessionManager, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session ttl must be positive")
	}
	return &SessionManager{
		secret:  []byte(secret),
		ttl:     ttl,
		secure:  secure,
		revoked: make(map[string]time.Time),
	}, nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
	LoggedIn bool   `json:"isLoggedIn"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Issue signs a session token for id.
func (m *SessionManager) Issue(id Identity) (string, error) {
	now := time.Now()

	c := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(id.UserID, 10),
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		LoggedIn: true,
		Name:     id.Name,
		Email:    id.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session: %w", err)
	}
	return signed, nil
}

// Parse verifies a session token and returns the identity it carries.
//
// Only HS256 is accepted. Without the method check a forged token with
// "alg":"none" would skip signature verification entirely.
func (m *SessionManager) Parse(token string) (Identity, error) {
	c, err := m.claims(token)
	if err != nil {
		return Identity{}, err
	}
	if m.isRevoked(c.ID) {
		return Identity{}, errors.New("auth: session has been logged out")
	}
	if !c.LoggedIn {
		return Identity{}, errors.New("auth: session is not logged in")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, fmt.Errorf("auth: session subject %q is not a user id", c.Subject)
	}

	return Identity{UserID: userID, Name: c.Name, Email: c.Email}, nil
}

func (m *SessionManager) claims(token string) (*sessionClaims, error) {
	c := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, c,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid session: %w", err)
	}
	return c, nil
}

// Revoke invalidates the session cookie on r, if any, so a copy of the token
// stops working before it expires. The denylist lives in process memory.
func (m *SessionManager) Revoke(r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return
	}
	c, err := m.claims(cookie.Value)
	if err != nil || c.ID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = make(map[string]time.Time)
	}
	now := time.Now()
	for jti, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, jti)
		}
	}
	m.revoked[c.ID] = c.ExpiresAt.Time
}

func (m *SessionManager) isRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok
}

// SetCookie starts a session for id on the response.
func (m *SessionManager) SetCookie(w http.ResponseWriter, id Identity) error {
	token, err := m.Issue(id)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie ends the session by expiring the cookie in the browser.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest returns the identity in the request's session cookie. A missing,
// expired or forged cookie all read as "not logged in".
func (m *SessionManager) FromRequest(r *http.Request) (Identity, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return Identity{}, false
	}

	id, err := m.Parse(cookie.Value)
	if err != nil {
		return Identity{}, false
	}
	return id, true
}
