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

var _ repository.GameRepository = (*DB)(nil)

// GameByAPIID looks a game up by its external catalog id.
func (db *DB) GameByAPIID(ctx context.Context, apiID int64) (*model.Game, error) {
	query, args, err := db.sq.
		Select("id", "api_id", "name", "background_image", "released", "created_at").
		From("games").
		Where(sq.Eq{"api_id": apiID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building game select: %w", err)
	}

	var g model.Game
	if err := db.conn.GetContext(ctx, &g, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("game", strconv.FormatInt(apiID, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting game by api id %d: %w", apiID, err)
	}
	return &g, nil
}

// CreateGame inserts a game. A plain INSERT is used on purpose: when another
// writer already holds the api_id the engine rejects the row and the caller
// gets apperror.ErrDuplicateKey to resolve by re-reading.
func (db *DB) CreateGame(ctx context.Context, g *model.Game) error {
	g.CreatedAt = time.Now().UTC()

	query, args, err := db.createGameQuery(g)
	if err != nil {
		return fmt.Errorf("sqlstore: building game insert: %w", err)
	}

	if err := db.conn.QueryRowxContext(ctx, query, args...).Scan(&g.ID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlstore: inserting game (apiID=%d): %w", g.APIID, apperror.DuplicateKey("game", err))
		}
		return fmt.Errorf("sqlstore: inserting game (apiID=%d): %w", g.APIID, err)
	}
	return nil
}

func (db *DB) createGameQuery(g *model.Game) (string, []any, error) {
	return db.sq.Insert("games").
		Columns("api_id", "name", "background_image", "released", "created_at").
		Values(g.APIID, g.Name, g.BackgroundImage, g.Released, g.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
}
