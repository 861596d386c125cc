// Package service holds the business rules between the HTTP handlers and
// storage:
//
//	Handler (HTTP) → Service (validation, orchestration) → Repository (SQL)
//
// Services accept plain values and an explicit auth.Identity, never an
// *http.Request, and return apperror values the handler maps to statuses.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/gamelog/internal/apperror"
	"github.com/sakif/gamelog/internal/auth"
	"github.com/sakif/gamelog/internal/catalog"
	"github.com/sakif/gamelog/internal/model"
	"github.com/sakif/gamelog/internal/repository"
)

const (
	// DefaultRating pre-selects the middle of the scale on a new review form.
	DefaultRating = 3

	MaxReviewTextLength = 5000
)

// LibraryService covers everything a logged-in user does with games: catalog
// search, reconciling a catalog title into a local Game, the review ledger and
// the library read model.
type LibraryService struct {
	catalog catalog.Gateway
	games   repository.GameRepository
	reviews repository.ReviewRepository
	logger  *slog.Logger
}

func NewLibraryService(
	gateway catalog.Gateway,
	games repository.GameRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		catalog: gateway,
		games:   games,
		reviews: reviews,
		logger:  logger,
	}
}

// Search queries the external catalog. Provider failures come back as
// apperror.ErrCatalogUnavailable and are never turned into an empty result.
func (s *LibraryService) Search(ctx context.Context, query string) ([]catalog.Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []catalog.Entry{}, nil
	}

	entries, err := s.catalog.Search(ctx, query)
	if err != nil {
		s.logger.Warn("catalog search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return entries, nil
}

// CatalogEntry loads one external title for the new-review form.
func (s *LibraryService) CatalogEntry(ctx context.Context, apiGameID int64) (*catalog.Entry, error) {
	entry, err := s.catalog.FetchByID(ctx, apiGameID)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// FindOrCreateGame maps an external catalog entry onto its local Game and
// returns the local id, creating the row the first time the title is seen.
//
// When a row already exists the supplied name, image and release date are
// discarded; the first snapshot wins. Two requests reconciling the same title
// at once both reach CreateGame, and the UNIQUE index on api_id lets exactly
// one of them in. The loser gets apperror.ErrDuplicateKey and re-reads the
// winner's row, so every caller ends up with the same id.
func (s *LibraryService) FindOrCreateGame(ctx context.Context, entry catalog.Entry) (int64, error) {
	if entry.ID <= 0 {
		return 0, apperror.ValidationFailed("apiGameId", "A game from the catalog is required.")
	}

	existing, err := s.games.GameByAPIID(ctx, entry.ID)
	switch {
	case err == nil:
		return existing.ID, nil
	case !errors.Is(err, apperror.ErrNotFound):
		return 0, fmt.Errorf("service/library: looking up game %d: %w", entry.ID, err)
	}

	name := strings.TrimSpace(entry.Name)
	if name == "" {
		return 0, apperror.ValidationFailed("name", "The game name is missing.")
	}

	game := &model.Game{
		APIID:           entry.ID,
		Name:            name,
		BackgroundImage: blankToNil(entry.BackgroundImage),
		Released:        blankToNil(entry.Released),
	}
	err = s.games.CreateGame(ctx, game)
	if err == nil {
		s.logger.Info("game reconciled",
			slog.Int64("apiID", game.APIID),
			slog.Int64("gameID", game.ID),
		)
		return game.ID, nil
	}
	if !errors.Is(err, apperror.ErrDuplicateKey) {
		return 0, fmt.Errorf("service/library: creating game %d: %w", entry.ID, err)
	}

	winner, err := s.games.GameByAPIID(ctx, entry.ID)
	if err != nil {
		return 0, fmt.Errorf("service/library: re-reading game %d after duplicate insert: %w", entry.ID, err)
	}
	s.logger.Debug("game reconciled by concurrent request",
		slog.Int64("apiID", entry.ID),
		slog.Int64("gameID", winner.ID),
	)
	return winner.ID, nil
}

// ReviewInput is a submitted review form.
//
// A new review carries the catalog Entry it was written for. An edit
// (ReviewID > 0) skips reconciliation; its game is taken from the stored
// review, never from the form.
type ReviewInput struct {
	ReviewID   int64
	Entry      catalog.Entry
	Rating     int
	ReviewText string
}

// Editing reports whether the form was submitted for an existing review.
func (in ReviewInput) Editing() bool {
	return in.ReviewID > 0
}

// SaveReview records id's review and returns its id.
//
// Validation happens before storage is touched, so a rejected rating never
// creates a Game either. Saving again for the same game replaces the rating
// and text of the existing review; there is never more than one per user and
// game.
func (s *LibraryService) SaveReview(ctx context.Context, id auth.Identity, in ReviewInput) (int64, error) {
	if in.Rating < model.MinRating || in.Rating > model.MaxRating {
		return 0, apperror.ValidationFailed("rating",
			fmt.Sprintf("Rating must be between %d and %d.", model.MinRating, model.MaxRating))
	}
	text := strings.TrimSpace(in.ReviewText)
	if utf8.RuneCountInString(text) > MaxReviewTextLength {
		return 0, apperror.ValidationFailed("reviewText",
			fmt.Sprintf("Review must be %d characters or fewer.", MaxReviewTextLength))
	}

	var gameID int64
	if in.Editing() {
		existing, err := s.reviews.ReviewByID(ctx, in.ReviewID)
		if err != nil {
			return 0, err
		}
		gameID = existing.GameID
	} else {
		var err error
		if gameID, err = s.FindOrCreateGame(ctx, in.Entry); err != nil {
			return 0, err
		}
	}

	review := &model.Review{
		UserID:     id.UserID,
		GameID:     gameID,
		Rating:     in.Rating,
		ReviewText: text,
	}
	if err := s.reviews.UpsertReview(ctx, review); err != nil {
		return 0, fmt.Errorf("service/library: saving review (user=%d game=%d): %w", id.UserID, gameID, err)
	}

	s.logger.Info("review saved",
		slog.Int64("userID", id.UserID),
		slog.Int64("gameID", gameID),
		slog.Int64("reviewID", review.ID),
		slog.Int("rating", review.Rating),
	)
	return review.ID, nil
}

// Review returns a review with its game's display fields, or
// apperror.ErrNotFound.
func (s *LibraryService) Review(ctx context.Context, reviewID int64) (*model.ReviewDetail, error) {
	if reviewID <= 0 {
		return nil, apperror.NotFound("review", fmt.Sprint(reviewID))
	}
	return s.reviews.ReviewByID(ctx, reviewID)
}

// DeleteReview removes a review and reports how many rows went (0 or 1).
// Deleting an id that does not exist is not an error.
//
// Deletion is not restricted to the review's author; the acting user is
// logged with every delete.
func (s *LibraryService) DeleteReview(ctx context.Context, id auth.Identity, reviewID int64) (int64, error) {
	if reviewID <= 0 {
		return 0, nil
	}

	n, err := s.reviews.DeleteReview(ctx, reviewID)
	if err != nil {
		return 0, fmt.Errorf("service/library: deleting review %d: %w", reviewID, err)
	}

	s.logger.Info("review deleted",
		slog.Int64("userID", id.UserID),
		slog.Int64("reviewID", reviewID),
		slog.Int64("deleted", n),
	)
	return n, nil
}

// Library lists userID's reviews ordered by game name, each with the
// community rating of its game. nameFilter narrows by substring of the game
// name; blank means everything.
func (s *LibraryService) Library(ctx context.Context, userID int64, nameFilter string) ([]model.LibraryEntry, error) {
	entries, err := s.reviews.Library(ctx, userID, strings.TrimSpace(nameFilter))
	if err != nil {
		return nil, fmt.Errorf("service/library: loading library for user %d: %w", userID, err)
	}
	return entries, nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
