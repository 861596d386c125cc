package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// APIHandler serves the read-only JSON endpoints. They are not behind the
// session gate.
type APIHandler struct {
	library Library
	logger  *slog.Logger
}

func NewAPIHandler(library Library, logger *slog.Logger) *APIHandler {
	return &APIHandler{library: library, logger: logger}
}

// HandleUserLibrary returns a user's library as JSON.
//
// HTTP: GET /api/user/{userId}/library
// 200 with the entries, 404 when the user has none, 400 for a non-numeric id.
func (h *APIHandler) HandleUserLibrary(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "User id must be a number."})
		return
	}

	entries, err := h.library.Library(r.Context(), userID, "")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if len(entries) == 0 {
		writeJSON(w, http.StatusNotFound, MessageResponse{Message: "No library found for this user."})
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
