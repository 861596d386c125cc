package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/gamelog/internal/apperror"
	"github.com/sakif/gamelog/internal/auth"
	"github.com/sakif/gamelog/internal/view"
)

const oauthStateCookie = "oauth_state"

// AuthHandler serves login, registration, logout and the optional GitHub
// sign-in.
//
// DEPENDENCY CHAIN:
//   - accounts Accounts              → credential checks and account creation
//   - sessions *auth.SessionManager  → the signed session cookie
//   - github   GitHubLogin           → nil when GitHub sign-in is not configured
type AuthHandler struct {
	pages
	accounts Accounts
	sessions *auth.SessionManager
	github   GitHubLogin
}

func NewAuthHandler(
	accounts Accounts,
	sessions *auth.SessionManager,
	github GitHubLogin,
	views view.Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		pages:    pages{views: views, logger: logger},
		accounts: accounts,
		sessions: sessions,
		github:   github,
	}
}

// HandleLoginForm renders the login page.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "Login")
	data.Content = view.AuthForm{}
	h.render(w, r, http.StatusOK, view.PageLogin, data)
}

// HandleLogin verifies the credential and starts a session.
//
// HTTP: POST /login  (form: email, password)
// A bad credential re-renders the form with 422; success goes to /library.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	id, err := h.accounts.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			data := h.page(r, "Login")
			data.ErrorMessage = apperror.Message(err)
			data.Content = view.AuthForm{Email: email}
			h.render(w, r, http.StatusUnprocessableEntity, view.PageLogin, data)
			return
		}
		h.renderError(w, r, err)
		return
	}

	h.startSession(w, r, id)
}

// HandleRegisterForm renders the registration page.
//
// HTTP: GET /register
func (h *AuthHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "Register")
	data.Content = view.AuthForm{}
	h.render(w, r, http.StatusOK, view.PageRegister, data)
}

// HandleRegister creates an account and sends the user to the login page.
//
// HTTP: POST /register  (form: name, email, password)
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")
	email := r.PostFormValue("email")

	_, err := h.accounts.Register(r.Context(), email, r.PostFormValue("password"), name)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			data := h.page(r, "Register")
			data.ErrorMessage = apperror.Message(err)
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				data.ErrorField = appErr.Field
			}
			data.Content = view.AuthForm{Email: email, Name: name}
			h.render(w, r, http.StatusUnprocessableEntity, view.PageRegister, data)
			return
		}
		h.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

// HandleLogout ends the session: the token is revoked server-side and the
// cookie is expired in the browser.
//
// HTTP: POST /logout
// POST rather than GET so a prefetch or a cross-site link cannot log anyone out.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Revoke(r)
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGitHubLogin redirects to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state is stored in a short-lived cookie and checked on the
// callback, proving the callback belongs to a flow this server started.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.renderError(w, r, apperror.NotFound("page", r.URL.Path))
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.renderError(w, r, apperror.NotFound("page", r.URL.Path))
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		h.renderError(w, r, apperror.ValidationFailed("state", "Invalid sign-in attempt. Please try again."))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.renderError(w, r, apperror.ValidationFailed("code", "Missing sign-in code."))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	id, err := h.accounts.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.startSession(w, r, id)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := h.sessions.SetCookie(w, id); err != nil {
		h.renderError(w, r, err)
		return
	}
	h.logger.Info("session started", slog.Int64("userID", id.UserID))
	http.Redirect(w, r, "/library", http.StatusSeeOther)
}
