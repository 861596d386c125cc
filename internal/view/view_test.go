package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gamelog/internal/auth"
	"github.com/sakif/gamelog/internal/catalog"
	"github.com/sakif/gamelog/internal/model"
)

func newTestTemplates(t *testing.T) *Templates {
	t.Helper()
	tmpl, err := New()
	require.NoError(t, err)
	return tmpl
}

func strPtr(s string) *string { return &s }

func TestNew_ParsesEveryPage(t *testing.T) {
	tmpl := newTestTemplates(t)

	for _, name := range []string{PageHome, PageLogin, PageRegister, PageSearch, PageLibrary, PageReview, PageError} {
		assert.Contains(t, tmpl.pages, name)
	}
	assert.NotContains(t, tmpl.pages, "layout")
}

func TestRender(t *testing.T) {
	tmpl := newTestTemplates(t)
	ada := auth.Identity{UserID: 1, Name: "Ada", Email: "ada@example.com"}
	avg := 3.0

	tests := []struct {
		name     string
		page     string
		status   int
		data     *Page
		contains []string
		excludes []string
	}{
		{
			name:     "home anonymous",
			page:     PageHome,
			status:   http.StatusOK,
			data:     NewPage("Welcome", "/", auth.Identity{}, false),
			contains: []string{"Welcome to GameLog", `href="/login"`},
			excludes: []string{"Logout"},
		},
		{
			name:     "home logged in",
			page:     PageHome,
			status:   http.StatusOK,
			data:     NewPage("Welcome", "/", ada, true),
			contains: []string{"Ada", "Logout", `href="/library"`},
		},
		{
			name:   "login with error keeps email",
			page:   PageLogin,
			status: http.StatusUnprocessableEntity,
			data: func() *Page {
				p := NewPage("Login", "/login", auth.Identity{}, false)
				p.ErrorMessage = "Invalid email or password."
				p.Content = AuthForm{Email: "ada@example.com"}
				return p
			}(),
			contains: []string{"Invalid email or password.", `value="ada@example.com"`},
		},
		{
			name:   "search results escape names",
			page:   PageSearch,
			status: http.StatusOK,
			data: func() *Page {
				p := NewPage("Search", "/search", ada, true)
				p.Content = SearchContent{Query: "zelda", Games: []catalog.Entry{
					{ID: 22511, Name: "<Zelda>", Released: strPtr("2017-03-03")},
				}}
				return p
			}(),
			contains: []string{`href="/review/22511"`, "&lt;Zelda&gt;", "Released 2017-03-03"},
			excludes: []string{"<Zelda>"},
		},
		{
			name:   "library shows community rating",
			page:   PageLibrary,
			status: http.StatusOK,
			data: func() *Page {
				p := NewPage("My Library", "/library", ada, true)
				p.Content = LibraryContent{Games: []model.LibraryEntry{
					{ReviewID: 7, GameID: 2, Rating: 4, Name: "Zelda", CommunityRating: &avg},
					{ReviewID: 8, GameID: 3, Rating: 5, Name: "Portal"},
				}}
				return p
			}(),
			contains: []string{"4/5", "3.0", "N/A", `href="/edit-review/7"`, `name="reviewId" value="8"`},
		},
		{
			name:   "empty library",
			page:   PageLibrary,
			status: http.StatusOK,
			data: func() *Page {
				p := NewPage("My Library", "/library", ada, true)
				p.Content = LibraryContent{}
				return p
			}(),
			contains: []string{"Your library is empty."},
		},
		{
			name:   "new review form",
			page:   PageReview,
			status: http.StatusOK,
			data: func() *Page {
				p := NewPage("Review", "/review", ada, true)
				p.Content = ReviewForm{APIGameID: 3498, Name: "GTA V", Rating: 3}
				return p
			}(),
			contains: []string{`name="apiGameId" value="3498"`, `<option value="3" selected>`, "Save Review"},
			excludes: []string{`name="reviewId"`},
		},
		{
			name:   "edit review form",
			page:   PageReview,
			status: http.StatusUnprocessableEntity,
			data: func() *Page {
				p := NewPage("Edit", "/review", ada, true)
				p.ErrorMessage = "Rating must be between 1 and 5."
				p.ErrorField = "rating"
				p.Content = ReviewForm{Editing: true, ReviewID: 7, Name: "Zelda", Rating: 5, ReviewText: "great"}
				return p
			}(),
			contains: []string{`name="reviewId" value="7"`, "Update Review", "Rating must be between 1 and 5.", ">great</textarea>"},
			excludes: []string{`name="apiGameId"`},
		},
		{
			name:   "error page",
			page:   PageError,
			status: http.StatusServiceUnavailable,
			data: func() *Page {
				p := NewPage("Error", "/search", ada, true)
				p.ErrorMessage = "Could not fetch games from external service."
				p.Content = ErrorContent{Status: http.StatusServiceUnavailable}
				return p
			}(),
			contains: []string{"503", "Could not fetch games from external service."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, tmpl.Render(rec, tt.status, tt.page, tt.data))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			body := rec.Body.String()
			for _, s := range tt.contains {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestRender_UnknownPage(t *testing.T) {
	tmpl := newTestTemplates(t)
	rec := httptest.NewRecorder()

	err := tmpl.Render(rec, http.StatusOK, "nope", nil)
	assert.Error(t, err)
	assert.Equal(t, 0, rec.Body.Len(), "nothing may be written on failure")
}
