package config

import (
	"github.com/go-sod/outlier/internal/api"
	"github.com/go-sod/outlier/internal/database"
	"github.com/go-sod/outlier/internal/scorer"
	"github.com/go-sod/outlier/internal/setup"
)

var (
	_ setup.ScorerConfigProvider   = (*Config)(nil)
	_ setup.DatabaseConfigProvider = (*Config)(nil)
)

type Config struct {
	SrvAddr  string          `envconfig:"OUTLIER_ADDR" default:":8787" toml:"addr"`
	GRPCAddr string          `envconfig:"OUTLIER_GRPC_ADDR" toml:"grpc_addr"`
	Scorer   scorer.Config   `toml:"scorer"`
	API      api.Config      `toml:"api"`
	Database database.Config `toml:"database"`
}

func (c *Config) ScorerConfig() *scorer.Config {
	return &c.Scorer
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}
