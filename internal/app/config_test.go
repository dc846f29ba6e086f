package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 6543, cfg.Database.Postgres.Port)
	require.Equal(t, "inkwell", cfg.Database.Postgres.Database)

	require.Equal(t, 4096, cfg.Authz.CacheSize)
	require.Equal(t, 90*time.Second, cfg.Authz.CacheTTL)
	require.Equal(t, 4, cfg.Authz.MaxCascadeDepth)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 16384, cfg.Authz.CacheSize)
	require.Equal(t, 5*time.Minute, cfg.Authz.CacheTTL)
	require.Equal(t, 3, cfg.Authz.MaxCascadeDepth)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Config{Server: ServerConfig{Port: -1}}
	require.Error(t, cfg.Validate())
}

func TestDatabaseConfigValueMapsPostgres(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{
			Driver: "postgres",
			Postgres: DBAuthConfig{
				Host:     "db.example.com",
				Port:     6543,
				Database: "inkwell",
				Username: "svc",
				Password: "secret",
			},
		},
	}

	dbCfg := cfg.DatabaseConfigValue()
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.example.com", dbCfg.Host)
	require.Equal(t, 6543, dbCfg.Port)
	require.Equal(t, "inkwell", dbCfg.Name)
	require.Equal(t, "svc", dbCfg.User)
	require.Equal(t, "secret", dbCfg.Password)
}
