// Package config provides configuration management for the runner package.
//
// # Overview
//
// The config package centralizes the runner's tunables — concurrency,
// per-node timeout, and default retry policy — behind a single Config type
// with sensible defaults and validation. Run and RunOnlyMissing call
// Validate on the Config they're given before cloning the catalog or
// running any node.
//
// # Basic Usage
//
//	cfg := config.Default()
//	cfg.MaxConcurrency = 4
//	r := runner.NewParallelRunner(cfg, nil, nil, nil)
//
// DefaultMaxAttempts and DefaultBackoff configure no runner behavior
// directly; they're read by callers building a node.Retry decorator, e.g.:
//
//	p, err = p.Decorate(node.Retry(cfg.DefaultMaxAttempts, cfg.DefaultBackoff))
//
// # Default Configuration
//
//	MaxConcurrency: 0 (unbounded)
//	NodeTimeout: 30 seconds
//	DefaultMaxAttempts: 3
//	DefaultBackoff: 1 second
//
// # Thread Safety
//
// Config values are safe for concurrent read access once constructed;
// Clone returns an independent copy for callers that need to mutate one.
package config
