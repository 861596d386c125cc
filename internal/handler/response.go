package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/gamelog/internal/apperror"
	"github.com/sakif/gamelog/internal/auth"
	"github.com/sakif/gamelog/internal/view"
)

// MessageResponse is the body of every JSON error: {"message": "..."}.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sets headers and status before the body; anything set after the
// first Write is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps err with apperror.Status. Unclassified errors are logged in
// full and answered with a fixed message so SQL or file paths never leak.
func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	status := apperror.Status(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, status, MessageResponse{Message: "Internal Server Error"})
		return
	}
	writeJSON(w, status, MessageResponse{Message: apperror.Message(err)})
}

// pages is embedded by every handler that renders HTML.
type pages struct {
	views  view.Renderer
	logger *slog.Logger
}

// page starts a view.Page for r, filled from the identity the session
// middleware attached, if any.
func (p *pages) page(r *http.Request, title string) *view.Page {
	id, ok := auth.IdentityFromContext(r.Context())
	return view.NewPage(title, r.URL.Path, id, ok)
}

func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data *view.Page) {
	if err := p.views.Render(w, status, name, data); err != nil {
		p.logger.Error("render failed",
			slog.String("page", name),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.Error(w, "An internal server error occurred.", http.StatusInternalServerError)
	}
}

// renderError is the single place a failed page request ends up. The status
// comes from apperror.Status; a 500 is logged with full detail and shown
// with an opaque message.
func (p *pages) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.Status(err)
	level := slog.LevelWarn
	if status == http.StatusInternalServerError {
		level = slog.LevelError
	}
	p.logger.Log(r.Context(), level, "page request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)

	data := p.page(r, "Error")
	data.ErrorMessage = apperror.Message(err)
	data.Content = view.ErrorContent{Status: status}
	p.render(w, r, status, view.PageError, data)
}

// identity returns the caller's identity on a gated route. RequireSession
// guarantees it is present; a missing one means the route was mounted
// outside the gate, which is reported rather than served.
func (p *pages) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		p.renderError(w, r, apperror.AuthRequired())
	}
	return id, ok
}
