// Package store selects the record store backing the service.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/softjail/internal/core"
	"github.com/JonMunkholm/softjail/internal/store/memory"
	"github.com/JonMunkholm/softjail/internal/store/pgstore"
	"github.com/JonMunkholm/softjail/internal/store/sqlstore"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures a store driver.
type Config struct {
	Driver     string
	URL        string // postgres connection string
	SQLitePath string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Handle is an open store.
type Handle interface {
	core.SessionFactory
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Handle = (*memory.DB)(nil)
	_ Handle = (*sqlstore.DB)(nil)
	_ Handle = (*pgstore.DB)(nil)
)

// Open connects the configured driver and applies its schema.
func Open(ctx context.Context, cfg Config) (Handle, error) {
	slog.Debug("opening record store", "driver", cfg.Driver)

	switch cfg.Driver {
	case DriverMemory:
		return memory.New(), nil
	case "", DriverSQLite:
		return sqlstore.Open(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return pgstore.Open(ctx, pgstore.PoolConfig{
			URL:             cfg.URL,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
