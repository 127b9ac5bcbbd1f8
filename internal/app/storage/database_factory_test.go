package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickarooms/reservations-server/database"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/store/postgres"
)

func TestNewDatabaseFactory(t *testing.T) {
	t.Parallel()

	pool := database.NewTestDB(t)

	passwordFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte(pool.Config().ConnConfig.Password+"\n"), 0o600))

	dbConfig := func() *config.DatabaseConfig {
		return &config.DatabaseConfig{
			Host:         pool.Config().ConnConfig.Host,
			Port:         int(pool.Config().ConnConfig.Port),
			User:         pool.Config().ConnConfig.User,
			Database:     pool.Config().ConnConfig.Database,
			PasswordFile: passwordFile,
			SSLMode:      "disable",
		}
	}

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr string
	}{
		{
			name: "valid config",
			cfg:  &config.Config{Database: dbConfig()},
		},
		{
			name: "valid config with pool settings",
			cfg: func() *config.Config {
				c := dbConfig()
				c.MaxOpenConns = 10
				c.MaxIdleConns = 5
				c.ConnMaxLifetime = "1h"
				return &config.Config{Database: c}
			}(),
		},
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: "config cannot be nil",
		},
		{
			name:    "missing database settings",
			cfg:     &config.Config{},
			wantErr: "database configuration is required",
		},
		{
			name: "invalid lifetime",
			cfg: func() *config.Config {
				c := dbConfig()
				c.ConnMaxLifetime = "forever"
				return &config.Config{Database: c}
			}(),
			wantErr: "invalid connection max lifetime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			factory, err := NewDatabaseFactory(ctx, tt.cfg, WithStoreOptions(postgres.WithMaxTxAttempts(3)))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			t.Cleanup(factory.Cleanup)

			s, err := factory.CreateStore(ctx)
			require.NoError(t, err)
			assert.IsType(t, &postgres.Store{}, s)

			require.NoError(t, factory.CheckReadiness(ctx))
			statuses, err := s.ListSyncStatuses(ctx)
			require.NoError(t, err)
			assert.Empty(t, statuses)
		})
	}
}

func TestDatabaseFactoryReadinessAfterCleanup(t *testing.T) {
	t.Parallel()

	pool := database.NewTestDB(t)

	passwordFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte(pool.Config().ConnConfig.Password), 0o600))

	factory, err := NewDatabaseFactory(context.Background(), &config.Config{Database: &config.DatabaseConfig{
		Host:         pool.Config().ConnConfig.Host,
		Port:         int(pool.Config().ConnConfig.Port),
		User:         pool.Config().ConnConfig.User,
		Database:     pool.Config().ConnConfig.Database,
		PasswordFile: passwordFile,
		SSLMode:      "disable",
	}})
	require.NoError(t, err)

	factory.Cleanup()
	assert.Error(t, factory.CheckReadiness(context.Background()))
}
