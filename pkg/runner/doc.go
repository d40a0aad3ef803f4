// Package runner drives execution of a pipeline.Pipeline against a
// catalog.DataCatalog.
//
// # Overview
//
// Run and RunOnlyMissing are free functions parametrised over the Runner
// interface, which supplies the one concrete hook (RunInner) and one
// factory hook (CreateDefaultDataSet) a concrete execution strategy must
// implement. SequentialRunner walks the pipeline's grouped nodes one at a time;
// ParallelRunner executes each topological layer as a fork-join barrier,
// bounded by config.Config.MaxConcurrency. Run (and so RunOnlyMissing, which
// delegates to it) validates Options.Config (if set) before cloning the
// catalog or running any node, so a negative MaxConcurrency or NodeTimeout
// fails the run immediately rather than silently misbehaving.
//
// # Observability
//
// Every Run assigns a run ID via uuid.NewString(), threads it through a
// pkg/logging.Logger, notifies a pkg/observer.Manager of run/node lifecycle
// events, and — when a pkg/telemetry.Provider is configured — records run
// and node duration/outcome metrics.
//
// # Thread Safety
//
// Run clones its catalog via ShallowCopy before mutating it; the caller's
// original catalog is untouched beyond what ShallowCopy preserves.
package runner
