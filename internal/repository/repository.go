// Package repository declares the storage interfaces the services depend on.
//
// The concrete implementation lives in repository/sqlstore; service tests
// substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/gamelog/internal/model"
)

// UserRepository is the credential store.
type UserRepository interface {
	// CreateUser inserts u and sets u.ID. A taken email fails with apperror.ErrConflict.
	CreateUser(ctx context.Context, u *model.User) error
	// UserByEmail returns apperror.ErrNotFound when no account uses email.
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id int64) (*model.User, error)
	// UpsertGitHubUser links a GitHub account to the user with the same email,
	// or creates a password-less user. It sets u.ID.
	UpsertGitHubUser(ctx context.Context, u *model.User) error
}

// GameRepository stores reconciled catalog titles.
type GameRepository interface {
	GameByAPIID(ctx context.Context, apiID int64) (*model.Game, error)
	// CreateGame inserts g and sets g.ID. When another row already holds g.APIID
	// it fails with apperror.ErrDuplicateKey and inserts nothing.
	CreateGame(ctx context.Context, g *model.Game) error
}

// ReviewRepository is the review ledger plus the library read model.
type ReviewRepository interface {
	// UpsertReview writes the single review for (r.UserID, r.GameID), replacing
	// rating and text when one exists, and sets r.ID.
	UpsertReview(ctx context.Context, r *model.Review) error
	ReviewByID(ctx context.Context, id int64) (*model.ReviewDetail, error)
	// DeleteReview returns the number of rows removed (0 or 1).
	DeleteReview(ctx context.Context, id int64) (int64, error)
	Library(ctx context.Context, userID int64, nameFilter string) ([]model.LibraryEntry, error)
}
