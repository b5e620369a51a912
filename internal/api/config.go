package api

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"OUTLIER_API_REQUEST_TIMEOUT" default:"30s" toml:"request_timeout"`
	MaxPoints      int           `envconfig:"OUTLIER_API_MAX_POINTS" default:"100000" toml:"max_points"`
}
