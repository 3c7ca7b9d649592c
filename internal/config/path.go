// Package config resolves runtime settings for the CLI.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDatabasePath is where the local store lives unless configured otherwise.
const DefaultDatabasePath = "$HOME/.local/share/mycash/mycash.db"

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
