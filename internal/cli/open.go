package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lazypower/vapor/internal/client"
	"github.com/lazypower/vapor/internal/config"
	"github.com/lazypower/vapor/internal/store"
)

// openKV opens the configured storage backend. The returned closer is
// always non-nil.
func openKV(cfg config.Config) (store.KV, io.Closer, string, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return store.NewMemKV(), io.NopCloser(nil), "memory", nil

	case config.BackendFile:
		dir := cfg.Storage.Dir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, nil, "", fmt.Errorf("get home dir: %w", err)
			}
			dir = filepath.Join(home, ".vapor", "data")
		}
		kv, err := store.NewFileKV(dir)
		if err != nil {
			return nil, nil, "", err
		}
		return kv, io.NopCloser(nil), dir, nil

	default:
		dbPath := os.Getenv("VAPOR_DB")
		if dbPath == "" {
			dbPath = cfg.Storage.Path
		}
		if dbPath == "" {
			var err error
			dbPath, err = store.DefaultDBPath()
			if err != nil {
				return nil, nil, "", fmt.Errorf("resolve db path: %w", err)
			}
		}
		db, err := store.Open(dbPath)
		if err != nil {
			return nil, nil, "", fmt.Errorf("open database: %w", err)
		}
		return db, db, dbPath, nil
	}
}

// newClient returns an API client for the configured server.
func newClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.BaseURL()), nil
}
