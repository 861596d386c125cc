// Package handler contains the HTTP handlers.
//
// Handlers parse the request, call a service with plain values and an
// explicit auth.Identity, and either redirect or render. They hold no
// business rules. Each handler depends on the small interface below rather
// than a concrete service, so tests can swap in hand-written mocks.
package handler

import (
	"context"

	"github.com/sakif/gamelog/internal/auth"
	"github.com/sakif/gamelog/internal/catalog"
	"github.com/sakif/gamelog/internal/model"
	"github.com/sakif/gamelog/internal/service"
)

// Accounts registers users and checks credentials.
type Accounts interface {
	Register(ctx context.Context, email, password, name string) (*model.User, error)
	Login(ctx context.Context, email, password string) (auth.Identity, error)
	LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (auth.Identity, error)
}

// Library is catalog search, the review ledger and the library read model.
type Library interface {
	Search(ctx context.Context, query string) ([]catalog.Entry, error)
	CatalogEntry(ctx context.Context, apiGameID int64) (*catalog.Entry, error)
	SaveReview(ctx context.Context, id auth.Identity, in service.ReviewInput) (int64, error)
	Review(ctx context.Context, reviewID int64) (*model.ReviewDetail, error)
	DeleteReview(ctx context.Context, id auth.Identity, reviewID int64) (int64, error)
	Library(ctx context.Context, userID int64, nameFilter string) ([]model.LibraryEntry, error)
}

// GitHubLogin is the OAuth provider behind "Sign in with GitHub".
type GitHubLogin interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

var (
	_ Accounts    = (*service.AuthService)(nil)
	_ Library     = (*service.LibraryService)(nil)
	_ GitHubLogin = (*auth.GitHubProvider)(nil)
)
