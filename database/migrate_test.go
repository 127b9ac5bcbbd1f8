package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	connString := StartPostgres(t).Config().ConnString()

	m, err := GetMigrate(connString)
	require.NoError(t, err)
	defer closeMigrate(m)

	fnames, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, fnames)

	for i := 1; i <= len(fnames); i++ {
		assert.NoError(t, m.Steps(i))
		assert.NoError(t, m.Steps(-i))
		assert.NoError(t, m.Steps(i))
	}

	version, dirty, err := GetVersion(connString)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(len(fnames)), version)
}

func TestMigrateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "postgres://u:p@localhost:5432/db", want: "pgx5://u:p@localhost:5432/db"},
		{in: "postgresql://u:p@localhost/db?sslmode=disable", want: "pgx5://u:p@localhost/db?sslmode=disable"},
		{in: "pgx5://u@h/db", want: "pgx5://u@h/db"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}
