package sqlstore

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/gamelog/internal/model"
)

// communityRatingColumn averages every user's rating for the row's game.
// The cast keeps the result a float on PostgreSQL, where AVG(int) is numeric.
const communityRatingColumn = `(SELECT AVG(CAST(cr.rating AS DOUBLE PRECISION))
	FROM reviews cr WHERE cr.game_id = g.id) AS community_rating`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Library lists userID's reviews joined with game data, ordered by game name.
//
// nameFilter is matched as a literal substring of the game name; case
// sensitivity follows the engine's LIKE. An empty filter returns everything.
func (db *DB) Library(ctx context.Context, userID int64, nameFilter string) ([]model.LibraryEntry, error) {
	query, args, err := db.libraryQuery(userID, nameFilter)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building library query: %w", err)
	}

	entries := []model.LibraryEntry{}
	if err := db.conn.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("sqlstore: listing library for user %d: %w", userID, err)
	}
	return entries, nil
}

func (db *DB) libraryQuery(userID int64, nameFilter string) (string, []any, error) {
	builder := db.sq.
		Select(
			"r.id AS review_id", "r.user_id", "r.game_id", "r.rating", "r.review_text",
			"g.name", "g.background_image",
		).
		Column(communityRatingColumn).
		From("reviews r").
		Join("games g ON g.id = r.game_id").
		Where(sq.Eq{"r.user_id": userID}).
		OrderBy("g.name ASC", "r.id ASC")

	if nameFilter != "" {
		builder = builder.Where(`g.name LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(nameFilter)+"%")
	}

	return builder.ToSql()
}
