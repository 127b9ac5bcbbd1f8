package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tclog "github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresImage is the server version the migrations are tested against
const PostgresImage = "postgres:16-alpine"

// quietLogger keeps container lifecycle chatter out of test output
type quietLogger struct{}

func (quietLogger) Printf(string, ...any) {}

var _ tclog.Logger = quietLogger{}

// StartPostgres runs a throwaway Postgres container for t and returns a pool
// to its empty "reservations" database. The pool and container are released
// when t finishes. Tests are skipped in -short mode.
func StartPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres container in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("reservations"),
		postgres.WithUsername("frontdesk"),
		postgres.WithPassword("frontdesk"),
		postgres.BasicWaitStrategies(),
		tc.WithLogger(quietLogger{}),
	)
	tc.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// NewTestDB is StartPostgres with the schema applied. The migrations are run
// up, fully down and up again so every down script is exercised too.
func NewTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool := StartPostgres(t)
	dsn := pool.Config().ConnString()
	for _, step := range []func() error{
		func() error { return MigrateUp(dsn) },
		func() error { return MigrateDown(dsn, 0) },
		func() error { return MigrateUp(dsn) },
	} {
		require.NoError(t, step())
	}
	return pool
}
