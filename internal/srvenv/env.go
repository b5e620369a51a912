package srvenv

import (
	"context"

	"contrib.go.opencensus.io/exporter/prometheus"

	"github.com/go-sod/outlier/internal/database"
	"github.com/go-sod/outlier/internal/scorer"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database *database.DB
	scorer   scorer.ProvideFn
	exporter *prometheus.Exporter
}

func (s *SrvEnv) ProvideScorer() scorer.ProvideFn {
	return s.scorer
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

// Exporter serves collected metrics; nil when metrics are not set up.
func (s *SrvEnv) Exporter() *prometheus.Exporter {
	return s.exporter
}

func WithScorer(fn scorer.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.scorer = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithExporter(e *prometheus.Exporter) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.exporter = e
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
