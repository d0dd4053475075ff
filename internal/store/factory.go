package store

import (
	"fmt"
	"os"

	"github.com/iwvelando/loan-compare/internal/config"
)

// Open constructs the OfferStore selected by the configuration. The postgres
// backend falls back to the DATABASE_URL environment variable when no DSN is
// configured.
func Open(cfg config.StoreConfig) (OfferStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "csv":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: csv backend requires a path")
		}
		return NewCSVStore(cfg.Path)
	case "postgres":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		if dsn == "" {
			return nil, fmt.Errorf("store: postgres backend requires a dsn or DATABASE_URL")
		}
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
