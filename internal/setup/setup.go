package setup

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/go-sod/outlier/internal/database"
	"github.com/go-sod/outlier/internal/logging"
	"github.com/go-sod/outlier/internal/metrics"
	"github.com/go-sod/outlier/internal/neighbor"
	"github.com/go-sod/outlier/internal/neighbor/cache"
	"github.com/go-sod/outlier/internal/scorer"
	"github.com/go-sod/outlier/internal/srvenv"
)

type ScorerConfigProvider interface {
	ScorerConfig() *scorer.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type options struct {
	configFile string
	metrics    bool
}

type Option func(*options)

// WithConfigFile decodes a TOML file over the environment configuration.
func WithConfigFile(name string) Option {
	return func(o *options) {
		o.configFile = name
	}
}

// WithMetrics registers the opencensus views and a prometheus exporter.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metrics = enabled
	}
}

// Load fills config from the environment, then from the config file if any.
func Load(config interface{}, configFile string) error {
	if err := envconfig.Process("", config); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	if configFile != "" {
		if _, err := toml.DecodeFile(configFile, config); err != nil {
			return fmt.Errorf("unable to decode config file %s: %w", configFile, err)
		}
	}
	return nil
}

func Setup(ctx context.Context, config interface{}, opts ...Option) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	o := options{}
	for _, f := range opts {
		f(&o)
	}
	if err := Load(config, o.configFile); err != nil {
		return nil, err
	}

	var (
		serverEnvOpts []srvenv.Option
		db            *database.DB
	)
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok && dbConfigProvider.DatabaseConfig().Enabled() {
		logger.Info("configuring neighbor cache")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to open neighbor cache: %w", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if scorerConfigProvider, ok := config.(ScorerConfigProvider); ok {
		logger.Info("configuring scorer")
		provideFn, err := ProvideScorerFor(scorerConfigProvider.ScorerConfig(), db)
		if err != nil {
			return nil, fmt.Errorf("unable create scorer provide function: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithScorer(provideFn))
	}

	if o.metrics {
		logger.Info("configuring metrics")
		if err := metrics.Register(); err != nil {
			return nil, err
		}
		exporter, err := metrics.NewExporter()
		if err != nil {
			return nil, err
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithExporter(exporter))
	}

	return srvenv.New(serverEnvOpts...), nil
}

// ProvideScorerFor builds scorers from cfg. With a db, neighbor queries go
// through the persistent cache.
func ProvideScorerFor(cfg *scorer.Config, db *database.DB) (scorer.ProvideFn, error) {
	base := cfg.Options()
	if db != nil {
		base = append(base, scorer.WithProviderWrapper(func(distKey string, inner neighbor.ProvideFn) neighbor.ProvideFn {
			return cache.Provide(db, distKey, inner)
		}))
	}
	// fail at startup on an unusable configuration
	if _, err := scorer.New(base...); err != nil {
		return nil, err
	}
	return func(opts ...scorer.Option) (scorer.Scorer, error) {
		all := append(append([]scorer.Option(nil), base...), opts...)
		s, err := scorer.New(all...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}, nil
}
