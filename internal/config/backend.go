package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/remote"
	"github.com/spf13/viper"
)

// Backend names a storage implementation.
type Backend string

const (
	// BackendSQLite is the local embedded store.
	BackendSQLite Backend = "sqlite"
	// BackendPostgres is the hosted per-user store.
	BackendPostgres Backend = "postgres"
)

// LoadBackend reads the configured backend. An empty value means sqlite.
func LoadBackend() (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(viper.GetString("backend")))); b {
	case "", BackendSQLite:
		return BackendSQLite, nil
	case BackendPostgres:
		return BackendPostgres, nil
	default:
		return "", fmt.Errorf("%w: unknown backend %q", common.ErrInvalidConfig, b)
	}
}

// DatabasePath returns the expanded local database location.
func DatabasePath() string {
	path := viper.GetString("database.path")
	if path == "" {
		path = DefaultDatabasePath
	}
	return ExpandPath(path)
}

// LoadRemoteConfig loads the remote backend settings. It follows this precedence:
// 1. Viper configuration (from config file or MYCASH_ env vars)
// 2. Direct environment variables (DATABASE_URL, MYCASH_USER_ID)
//
// A missing user id is not an error here; the storage reports it on first use.
func LoadRemoteConfig() (remote.Config, error) {
	cfg := remote.Config{
		DSN:    viper.GetString("remote.dsn"),
		UserID: viper.GetString("remote.user_id"),
	}

	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}
	if cfg.UserID == "" {
		cfg.UserID = os.Getenv("MYCASH_USER_ID")
	}

	if cfg.DSN == "" {
		return cfg, fmt.Errorf("%w: remote.dsn or DATABASE_URL is required for the postgres backend", common.ErrInvalidConfig)
	}
	return cfg, nil
}
