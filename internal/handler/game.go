package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/gamelog/internal/apperror"
	"github.com/sakif/gamelog/internal/catalog"
	"github.com/sakif/gamelog/internal/service"
	"github.com/sakif/gamelog/internal/view"
)

// GameHandler serves the pages behind the session gate: catalog search, the
// library and the review forms. Every route it serves is mounted inside
// auth.RequireSession.
type GameHandler struct {
	pages
	library Library
}

func NewGameHandler(library Library, views view.Renderer, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		pages:   pages{views: views, logger: logger},
		library: library,
	}
}

// HandleHome renders the landing page. It is public.
//
// HTTP: GET /
func (h *GameHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageHome, h.page(r, "Welcome to GameLog"))
}

// HandleSearchForm renders the search page, running a search when ?query=
// is present so results can be bookmarked.
//
// HTTP: GET /search
func (h *GameHandler) HandleSearchForm(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, r.URL.Query().Get("query"))
}

// HandleSearch runs a catalog search from the form.
//
// HTTP: POST /search  (form: query)
func (h *GameHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, r.PostFormValue("query"))
}

func (h *GameHandler) search(w http.ResponseWriter, r *http.Request, query string) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	games, err := h.library.Search(r.Context(), query)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	title := "Search Games"
	if strings.TrimSpace(query) != "" {
		title = "Search Results"
	}
	data := h.page(r, title)
	data.Content = view.SearchContent{Query: query, Games: games}
	h.render(w, r, http.StatusOK, view.PageSearch, data)
}

// HandleLibrary lists the caller's reviews.
//
// HTTP: GET /library?search=term
func (h *GameHandler) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	term := r.URL.Query().Get("search")
	games, err := h.library.Library(r.Context(), id.UserID, term)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := h.page(r, "My Library")
	data.Content = view.LibraryContent{SearchTerm: term, Games: games}
	h.render(w, r, http.StatusOK, view.PageLibrary, data)
}

// HandleNewReview renders the review form for a catalog title, pre-filled
// from the catalog with the default rating.
//
// HTTP: GET /review/{apiGameId}
func (h *GameHandler) HandleNewReview(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	apiGameID, err := strconv.ParseInt(chi.URLParam(r, "apiGameId"), 10, 64)
	if err != nil || apiGameID <= 0 {
		h.renderError(w, r, apperror.NotFound("game", chi.URLParam(r, "apiGameId")))
		return
	}

	entry, err := h.library.CatalogEntry(r.Context(), apiGameID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	form := newReviewForm(entry)
	form.Rating = service.DefaultRating
	h.renderReview(w, r, http.StatusOK, form, nil)
}

// HandleEditReview renders the form for an existing review. An unknown id
// goes back to the library instead of an error page.
//
// HTTP: GET /edit-review/{reviewId}
func (h *GameHandler) HandleEditReview(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewId"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/library", http.StatusSeeOther)
		return
	}

	review, err := h.library.Review(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.Redirect(w, r, "/library", http.StatusSeeOther)
			return
		}
		h.renderError(w, r, err)
		return
	}

	h.renderReview(w, r, http.StatusOK, view.ReviewForm{
		Editing:         true,
		ReviewID:        review.ID,
		Name:            review.Name,
		BackgroundImage: deref(review.BackgroundImage),
		Rating:          review.Rating,
		ReviewText:      review.ReviewText,
	}, nil)
}

// HandleSaveReview creates or updates the caller's review.
//
// HTTP: POST /review
// Form fields: apiGameId, name, background_image, released (new review);
// reviewId (edit); rating, reviewText (both).
//
// On a validation failure the form is shown again with 422. For an edit the
// display data is reloaded from the stored review; for a new review the
// catalog entry is fetched again by its external id.
func (h *GameHandler) HandleSaveReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	in := service.ReviewInput{
		ReviewID:   formInt(r, "reviewId"),
		Rating:     int(formInt(r, "rating")),
		ReviewText: r.PostFormValue("reviewText"),
		Entry: catalog.Entry{
			ID:              formInt(r, "apiGameId"),
			Name:            r.PostFormValue("name"),
			BackgroundImage: optional(r.PostFormValue("background_image")),
			Released:        optional(r.PostFormValue("released")),
		},
	}

	_, err := h.library.SaveReview(r.Context(), id, in)
	if err == nil {
		http.Redirect(w, r, "/library", http.StatusSeeOther)
		return
	}
	if !errors.Is(err, apperror.ErrValidation) {
		h.renderError(w, r, err)
		return
	}

	form, loadErr := h.reloadReviewForm(r, in)
	if loadErr != nil {
		h.renderError(w, r, loadErr)
		return
	}
	h.renderReview(w, r, http.StatusUnprocessableEntity, form, err)
}

// HandleDeleteReview removes a review and returns to the library. A missing
// review is not an error.
//
// HTTP: POST /delete-review  (form: reviewId)
func (h *GameHandler) HandleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	if _, err := h.library.DeleteReview(r.Context(), id, formInt(r, "reviewId")); err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/library", http.StatusSeeOther)
}

func (h *GameHandler) reloadReviewForm(r *http.Request, in service.ReviewInput) (view.ReviewForm, error) {
	var form view.ReviewForm
	if in.Editing() {
		review, err := h.library.Review(r.Context(), in.ReviewID)
		if err != nil {
			return form, err
		}
		form = view.ReviewForm{
			Editing:         true,
			ReviewID:        review.ID,
			Name:            review.Name,
			BackgroundImage: deref(review.BackgroundImage),
		}
	} else {
		entry, err := h.library.CatalogEntry(r.Context(), in.Entry.ID)
		if err != nil {
			return form, err
		}
		form = newReviewForm(entry)
	}

	form.Rating = in.Rating
	form.ReviewText = in.ReviewText
	return form, nil
}

func (h *GameHandler) renderReview(w http.ResponseWriter, r *http.Request, status int, form view.ReviewForm, validation error) {
	title := "Review " + form.Name
	if form.Editing {
		title = "Edit Review for " + form.Name
	}

	data := h.page(r, title)
	data.Content = form
	if validation != nil {
		data.ErrorMessage = apperror.Message(validation)
		var appErr *apperror.AppError
		if errors.As(validation, &appErr) {
			data.ErrorField = appErr.Field
		}
	}
	h.render(w, r, status, view.PageReview, data)
}

func newReviewForm(e *catalog.Entry) view.ReviewForm {
	return view.ReviewForm{
		APIGameID:       e.ID,
		Name:            e.Name,
		BackgroundImage: deref(e.BackgroundImage),
		Released:        deref(e.Released),
	}
}

// formInt reads an integer form field; a missing or malformed value is 0,
// which every consumer treats as "not supplied" or fails validation on.
func formInt(r *http.Request, key string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue(key)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
