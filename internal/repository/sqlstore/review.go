package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/gamelog/internal/apperror"
	"github.com/sakif/gamelog/internal/model"
	"github.com/sakif/gamelog/internal/repository"
)

var _ repository.ReviewRepository = (*DB)(nil)

// upsertReviewSuffix resolves a clash on (user_id, game_id) by overwriting the
// existing row, so the write is one statement with no read-modify-write window.
// Both SQLite and PostgreSQL accept this form.
const upsertReviewSuffix = `ON CONFLICT (user_id, game_id) DO UPDATE SET
	rating = excluded.rating,
	review_text = excluded.review_text,
	updated_at = excluded.updated_at
RETURNING id`

// UpsertReview stores the review for (r.UserID, r.GameID). On a replace the
// row keeps its id and created_at; r.ID is set either way.
func (db *DB) UpsertReview(ctx context.Context, r *model.Review) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	query, args, err := db.upsertReviewQuery(r)
	if err != nil {
		return fmt.Errorf("sqlstore: building review upsert: %w", err)
	}

	if err := db.conn.QueryRowxContext(ctx, query, args...).Scan(&r.ID); err != nil {
		return fmt.Errorf("sqlstore: upserting review (user=%d, game=%d): %w", r.UserID, r.GameID, err)
	}
	return nil
}

func (db *DB) upsertReviewQuery(r *model.Review) (string, []any, error) {
	return db.sq.Insert("reviews").
		Columns("user_id", "game_id", "rating", "review_text", "created_at", "updated_at").
		Values(r.UserID, r.GameID, r.Rating, r.ReviewText, r.CreatedAt, r.UpdatedAt).
		Suffix(upsertReviewSuffix).
		ToSql()
}

// ReviewByID returns the review together with its game's display fields.
func (db *DB) ReviewByID(ctx context.Context, id int64) (*model.ReviewDetail, error) {
	query, args, err := db.sq.
		Select("r.id", "r.user_id", "r.game_id", "r.rating", "r.review_text", "g.name", "g.background_image").
		From("reviews r").
		Join("games g ON g.id = r.game_id").
		Where(sq.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building review select: %w", err)
	}

	var d model.ReviewDetail
	if err := db.conn.GetContext(ctx, &d, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("review", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting review %d: %w", id, err)
	}
	return &d, nil
}

// DeleteReview removes a review by id and reports how many rows went away.
// A missing id is not an error.
func (db *DB) DeleteReview(ctx context.Context, id int64) (int64, error) {
	query, args, err := db.sq.Delete("reviews").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: building review delete: %w", err)
	}

	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: deleting review %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	return n, nil
}
