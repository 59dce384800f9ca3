package pgx

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lborres/bantay"
	"github.com/lborres/bantay/adapters/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "other error", err: errors.New("boom"), want: false},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, isUniqueViolation(test.err))
		})
	}
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("x"))
	assert.Equal(t, "x", *nullable("x"))
}

// TestStore runs against a real database when BANTAY_TEST_DATABASE_URL is set.
// Tables are truncated between subtests.
func TestStore(t *testing.T) {
	url := os.Getenv("BANTAY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("BANTAY_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))

	storetest.Run(t, func(t *testing.T) bantay.Store {
		_, err := pool.Exec(ctx, `TRUNCATE public.refresh_tokens, public.users RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
		return New(pool)
	})
}
