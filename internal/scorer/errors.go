package scorer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidK   = errors.New("k must be positive")
	ErrKTooLarge  = errors.New("k must be smaller than the number of points")
	ErrNilDataset = errors.New("nil dataset")
	ErrBadWeights = errors.New("weights length does not match dimension")

	// ErrIndeterminate is the reason of a score whose ratio has no value,
	// such as an infinite estimate against an infinite neighborhood.
	ErrIndeterminate = errors.New("indeterminate score")
)

// ConfigError rejects a run before any computation starts.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(field string, err error) error {
	return &ConfigError{Field: field, Err: err}
}
