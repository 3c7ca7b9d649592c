package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/config"
	"github.com/Veraticus/mycash/internal/goals"
	"github.com/Veraticus/mycash/internal/ledger"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/remote"
	"github.com/Veraticus/mycash/internal/seed"
	"github.com/Veraticus/mycash/internal/service"
	"github.com/Veraticus/mycash/internal/storage"
	"github.com/spf13/viper"
)

// app bundles the handles a command works with. It is opened once per command.
type app struct {
	store  service.Storage
	local  *storage.SQLiteStorage
	ledger *ledger.Ledger
	goals  *goals.Store
	seeder *seed.Seeder
}

// initStorage opens the configured backend. The local store is migrated on open.
func initStorage(ctx context.Context) (service.Storage, *storage.SQLiteStorage, error) {
	backend, err := config.LoadBackend()
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case config.BackendPostgres:
		cfg, err := config.LoadRemoteConfig()
		if err != nil {
			return nil, nil, err
		}
		// Settings have no remote table and stay in the local database.
		settings, err := storage.Open(ctx, config.DatabasePath())
		if err != nil {
			return nil, nil, err
		}
		store, err := remote.Open(ctx, cfg, settings)
		if err != nil {
			_ = settings.Close()
			return nil, nil, err
		}
		return store, nil, nil
	default:
		store, err := storage.Open(ctx, config.DatabasePath())
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
}

// openApp opens storage, runs the startup seeding and loads the ledger.
func openApp(ctx context.Context) (*app, error) {
	store, local, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	seeder := seed.New(store, seed.WithSampleData(viper.GetBool("seed.sample_data")))
	seeder.Run(ctx)

	l, err := ledger.New(ctx, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		store:  store,
		local:  local,
		ledger: l,
		goals:  goals.NewStore(store),
		seeder: seeder,
	}, nil
}

func (a *app) Close() {
	if err := a.ledger.Close(); err != nil {
		slog.Warn("Failed to close storage", "error", err)
	}
}

// parsePeriod accepts the period names plus "all" for the whole history.
func parsePeriod(raw string) (model.Period, error) {
	switch p := model.Period(strings.ToLower(strings.TrimSpace(raw))); p {
	case model.PeriodWeek, model.PeriodMonth, model.PeriodQuarter, model.PeriodYear:
		return p, nil
	case "", "all":
		return "all", nil
	default:
		return "", common.NewValidationError("period", fmt.Sprintf("unknown period %q (week, month, quarter, year, all)", raw))
	}
}

func writeLine(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format+"\n", args...)
	logOutputError(err)
}
