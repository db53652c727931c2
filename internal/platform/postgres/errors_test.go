package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/podforge/podforge-api/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     error
		wantIs error
	}{
		{
			name:   "nil stays nil",
			in:     nil,
			wantIs: nil,
		},
		{
			name:   "no rows maps to not found",
			in:     sql.ErrNoRows,
			wantIs: store.ErrNotFound,
		},
		{
			name:   "wrapped no rows maps to not found",
			in:     fmt.Errorf("query failed: %w", sql.ErrNoRows),
			wantIs: store.ErrNotFound,
		},
		{
			name:   "unique violation maps to duplicate",
			in:     &pgconn.PgError{Code: uniqueViolationCode},
			wantIs: store.ErrDuplicate,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(tc.in)
			if tc.wantIs == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.wantIs)
		})
	}

	t.Run("unmapped errors pass through", func(t *testing.T) {
		t.Parallel()

		original := errors.New("connection reset")
		assert.Equal(t, original, MapError(original))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: uniqueViolationCode})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: checkViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("other")))
}
