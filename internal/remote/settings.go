package remote

import (
	"context"
	"fmt"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/service"
)

// LocalSettings holds the key-value settings. The hosted schema has no settings
// table, so they stay on this machine next to the local database.
type LocalSettings interface {
	service.SettingsStore
	Close() error
}

func (s *PostgresStorage) settingsStore(ctx context.Context) (service.SettingsStore, error) {
	if err := s.authenticated(ctx); err != nil {
		return nil, err
	}
	if s.settings == nil {
		return nil, fmt.Errorf("%w: no local settings store", common.ErrInvalidConfig)
	}
	return s.settings, nil
}

// GetSetting returns ok=false when the key is absent.
func (s *PostgresStorage) GetSetting(ctx context.Context, key string) (string, bool, error) {
	settings, err := s.settingsStore(ctx)
	if err != nil {
		return "", false, err
	}
	return settings.GetSetting(ctx, key)
}

// SetSetting stores value under key, replacing any previous value.
func (s *PostgresStorage) SetSetting(ctx context.Context, key, value string) error {
	settings, err := s.settingsStore(ctx)
	if err != nil {
		return err
	}
	return settings.SetSetting(ctx, key, value)
}

// DeleteSetting removes key. Missing keys are not an error.
func (s *PostgresStorage) DeleteSetting(ctx context.Context, key string) error {
	settings, err := s.settingsStore(ctx)
	if err != nil {
		return err
	}
	return settings.DeleteSetting(ctx, key)
}
