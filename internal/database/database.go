package database

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/go-sod/outlier/internal/logging"
)

type Config struct {
	FileName string        `envconfig:"OUTLIER_CACHE_FILE" toml:"cache_file"`
	Timeout  time.Duration `envconfig:"OUTLIER_CACHE_TIMEOUT" default:"1s" toml:"cache_timeout"`
}

// Enabled reports whether a cache file is configured.
func (c *Config) Enabled() bool {
	return c.FileName != ""
}

type DB struct {
	DB *bolt.DB
}

func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("opening neighbor cache %s", config.FileName)

	db, err := bolt.Open(config.FileName, 0600, &bolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("unable to open cache db: %w", err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing cache db")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("error close cache db: %w", err)
	}

	return nil
}
