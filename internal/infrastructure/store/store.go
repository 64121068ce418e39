package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get for an empty slot
var ErrNotFound = errors.New("key not found")

// Store is a durable key-value slot store
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Driver names
const (
	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Config selects and configures a driver
type Config struct {
	Driver   string
	Path     string
	Compress bool
}

// Open builds the configured store
func Open(cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)

	switch cfg.Driver {
	case DriverMemory:
		st = NewMemory()
	case DriverBolt, "":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		st, err = OpenBolt(cfg.Path)
	case DriverSQLite:
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		st, err = OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Compress {
		c, err := NewCompressed(st)
		if err != nil {
			st.Close()
			return nil, err
		}
		return c, nil
	}
	return st, nil
}

func ensureDir(path string) error {
	if path == "" {
		return errors.New("store path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	return nil
}
