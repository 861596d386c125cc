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

var _ repository.UserRepository = (*DB)(nil)

var userColumns = []string{"id", "email", "name", "password_hash", "github_id", "created_at"}

// CreateUser inserts a new account. The UNIQUE constraint on email turns a
// second registration with the same address into apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	u.CreatedAt = time.Now().UTC()

	query, args, err := db.sq.Insert("users").
		Columns("email", "name", "password_hash", "github_id", "created_at").
		Values(u.Email, u.Name, u.PasswordHash, u.GitHubID, u.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building user insert: %w", err)
	}

	if err := db.conn.QueryRowxContext(ctx, query, args...).Scan(&u.ID); err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email", "E-mail already in use.")
		}
		return fmt.Errorf("sqlstore: inserting user: %w", err)
	}
	return nil
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, sq.Eq{"email": email}, email)
}

func (db *DB) UserByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx, sq.Eq{"id": id}, strconv.FormatInt(id, 10))
}

// UpsertGitHubUser links a GitHub identity to an account.
//
// An account already linked to the GitHub ID wins. Otherwise the row with the
// same email is linked, or a password-less account is created, in one statement.
func (db *DB) UpsertGitHubUser(ctx context.Context, u *model.User) error {
	if u.GitHubID == nil {
		return fmt.Errorf("sqlstore: upserting github user: github id is required")
	}

	existing, err := db.getUser(ctx, sq.Eq{"github_id": *u.GitHubID}, strconv.FormatInt(*u.GitHubID, 10))
	switch {
	case err == nil:
		*u = *existing
		return nil
	case !errors.Is(err, apperror.ErrNotFound):
		return err
	}

	u.CreatedAt = time.Now().UTC()
	query, args, err := db.sq.Insert("users").
		Columns("email", "name", "password_hash", "github_id", "created_at").
		Values(u.Email, u.Name, "", *u.GitHubID, u.CreatedAt).
		Suffix("ON CONFLICT (email) DO UPDATE SET github_id = excluded.github_id RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building github user upsert: %w", err)
	}

	if err := db.conn.QueryRowxContext(ctx, query, args...).Scan(&u.ID); err != nil {
		return fmt.Errorf("sqlstore: upserting github user %d: %w", *u.GitHubID, err)
	}
	return nil
}

func (db *DB) getUser(ctx context.Context, where sq.Eq, label string) (*model.User, error) {
	query, args, err := db.sq.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building user select: %w", err)
	}

	var u model.User
	if err := db.conn.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", label)
		}
		return nil, fmt.Errorf("sqlstore: getting user %s: %w", label, err)
	}
	return &u, nil
}
