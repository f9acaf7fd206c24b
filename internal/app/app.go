// Package app wires configuration, storage and the intake service together
// for the command-line and Lambda entry points.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/store"
)

// App holds the long-lived pieces of a running process.
type App struct {
	Config  *config.Config
	Store   store.Backend
	Service *core.Service
}

// Open connects the configured storage backend and builds the service.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	opts, err := ServiceOptions(cfg)
	if err != nil {
		return nil, err
	}

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("storage connected", "driver", cfg.Storage.Driver)

	return &App{
		Config:  cfg,
		Store:   backend,
		Service: core.NewService(backend, opts...),
	}, nil
}

// ServiceOptions translates the intake section of cfg.
func ServiceOptions(cfg *config.Config) ([]core.ServiceOption, error) {
	loc, err := cfg.Intake.Location()
	if err != nil {
		return nil, fmt.Errorf("intake time zone: %w", err)
	}
	return []core.ServiceOption{
		core.WithValidator(core.NewValidator(core.WithLocation(loc))),
		core.WithSubmitLimits(cfg.Intake.MaxConcurrent, cfg.Intake.MaxWaitTime),
		core.WithSubmitTimeout(cfg.Intake.SubmitTimeout),
	}, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	return a.Store.Close()
}
