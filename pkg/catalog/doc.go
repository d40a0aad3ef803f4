// Package catalog provides the DataCatalog external contract consumed by
// pkg/runner, plus MemoryCatalog, an in-memory reference implementation.
//
// # Overview
//
// A DataCatalog is a mutable, name-keyed store of arbitrary values. The
// Runner clones one via ShallowCopy before every run, registers any
// data sets the pipeline needs that the caller didn't pre-populate, and
// drives node execution by Load-ing inputs and Save-ing outputs.
//
// # Schema validation
//
// MemoryCatalog optionally validates values against a JSON schema
// registered per name with RegisterSchema. This is additive: Save's
// signature and idempotency are unchanged for names with no registered
// schema.
//
// # Thread safety
//
// MemoryCatalog is safe for concurrent use; Load/Save/Add/SetRemainingLoads
// may be called from multiple goroutines for distinct (or the same) names,
// as required by the parallel runner.
package catalog
