// Package logging provides structured logging capabilities for the runner.
//
// # Overview
//
// The logging package implements a structured logging system with support
// for JSON and text output, log levels, and contextual run/node fields.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: os.Stdout,
//	})
//
//	logger.WithRunID(runID).Info("run started")
//
// # Context Integration
//
//	ctx = logger.WithContext(ctx)
//	logging.FromContext(ctx).Info("node executing")
//
// # Output Formats
//
// JSON (default):
//
//	{"time":"2024-01-15T10:30:00Z","level":"INFO","msg":"run started","run_id":"r-1"}
//
// Text (Pretty: true):
//
//	time=2024-01-15T10:30:00.000Z level=INFO msg="run started" run_id=r-1
//
// # Dynamic Level
//
// Every Logger derived from a common root via With* shares that root's
// level, so SetLevel on any one of them — typically the root handed to
// runner.Options — changes verbosity for the whole run tree:
//
//	root := logging.New(logging.DefaultConfig())
//	nodeLogger := root.WithRunID(runID).WithNodeName("fetch")
//	root.SetLevel("debug") // nodeLogger now logs Debug too
//
// # Thread Safety
//
// All logger operations, including SetLevel, are safe for concurrent use.
package logging
