package sqlstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped postgres unique violation", fmt.Errorf("inserting: %w", &pgconn.PgError{Code: "23505"}), true},
		{"postgres foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("UNIQUE constraint failed: games.api_id"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
