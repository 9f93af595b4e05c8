package config

import (
	"errors"
	"fmt"
)

// Configuration validation errors returned by Config.Validate.
var (
	ErrInvalidExchangeRate = errors.New("invalid exchange rate: must be positive")
	ErrInvalidTimeout      = errors.New("invalid timeout: must be positive")
	ErrInvalidLimit        = errors.New("invalid limit: max cards and api limit must be between 1 and 15")
	ErrInvalidWorkers      = errors.New("invalid workers: must be positive")
	ErrMissingEndpoint     = errors.New("listing url and api url are required")
	ErrUnknownFetcher      = errors.New("unknown fetcher: use http or browser")
)

// EnvError reports an environment variable that could not be parsed.
type EnvError struct {
	Key   string
	Value string
	Err   error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("invalid %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *EnvError) Unwrap() error { return e.Err }
