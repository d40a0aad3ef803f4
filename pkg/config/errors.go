package config

import "errors"

// Sentinel errors for configuration validation.
var (
	ErrInvalidMaxConcurrency = errors.New("invalid max concurrency: must be non-negative")
	ErrInvalidNodeTimeout    = errors.New("invalid node timeout: must be non-negative")
	ErrInvalidMaxAttempts    = errors.New("invalid max attempts: must be non-negative")
	ErrInvalidBackoff        = errors.New("invalid backoff duration: must be non-negative")
)
