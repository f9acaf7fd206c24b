// Package store selects and opens the storage collaborator named by
// configuration.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/store/dynamo"
	"github.com/JonMunkholm/intake/internal/store/elasticsearch"
	"github.com/JonMunkholm/intake/internal/store/memory"
	"github.com/JonMunkholm/intake/internal/store/mysql"
	"github.com/JonMunkholm/intake/internal/store/postgres"
)

// Backend is a core.Store that also owns its schema and connections.
type Backend interface {
	core.Store

	// Migrate creates the tables, indices or schema the store needs.
	// It is safe to run repeatedly.
	Migrate(ctx context.Context) error

	// Close releases connections.
	Close() error
}

var (
	_ Backend = (*memory.Store)(nil)
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*mysql.Store)(nil)
	_ Backend = (*dynamo.Store)(nil)
	_ Backend = (*elasticsearch.Store)(nil)
)

// Open connects the backend selected by cfg.Storage.Driver. The connect
// step is bounded by cfg.Storage.ConnectTimeout.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Storage.ConnectTimeout)
	defer cancel()

	var (
		b   Backend
		err error
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		b = memory.New()
	case config.DriverPostgres:
		b, err = open(postgres.Open(ctx, cfg.Database))
	case config.DriverMySQL:
		b, err = open(mysql.Open(ctx, cfg.MySQL))
	case config.DriverDynamo:
		b, err = open(dynamo.Open(ctx, cfg.Dynamo))
	case config.DriverElastic:
		b, err = open(elasticsearch.Open(ctx, cfg.Elastic))
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	return b, nil
}

// open drops the typed nil a failed constructor returns.
func open[S Backend](s S, err error) (Backend, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
