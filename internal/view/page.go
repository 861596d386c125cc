package view

import (
	"github.com/sakif/gamelog/internal/auth"
	"github.com/sakif/gamelog/internal/catalog"
	"github.com/sakif/gamelog/internal/model"
)

// Page is what every template receives. Content holds the page-specific
// struct below.
type Page struct {
	Title           string
	Path            string
	IsAuthenticated bool
	User            *auth.Identity

	// ErrorMessage is the single message shown above a form, or the body of
	// the error page.
	ErrorMessage string
	// ErrorField names the form field the message is about, for highlighting.
	ErrorField string

	Content any
}

// NewPage fills the fields shared by every page from the request identity.
func NewPage(title, path string, id auth.Identity, loggedIn bool) *Page {
	p := &Page{Title: title, Path: path}
	if loggedIn {
		p.IsAuthenticated = true
		p.User = &id
	}
	return p
}

// AuthForm repopulates the login and register forms. The password is never
// echoed back.
type AuthForm struct {
	Email string
	Name  string
}

type SearchContent struct {
	Query string
	Games []catalog.Entry
}

type LibraryContent struct {
	SearchTerm string
	Games      []model.LibraryEntry
}

// ReviewForm backs both the new-review and the edit-review page.
type ReviewForm struct {
	Editing         bool
	ReviewID        int64
	APIGameID       int64
	Name            string
	BackgroundImage string
	Released        string
	Rating          int
	ReviewText      string
}

type ErrorContent struct {
	Status int
}
