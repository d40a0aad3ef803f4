package runner

import (
	"context"

	"github.com/lattice-data/pipeline/pkg/catalog"
	"github.com/lattice-data/pipeline/pkg/config"
	"github.com/lattice-data/pipeline/pkg/logging"
	"github.com/lattice-data/pipeline/pkg/observer"
	"github.com/lattice-data/pipeline/pkg/pipeline"
	"github.com/lattice-data/pipeline/pkg/telemetry"
)

// SequentialRunner walks GroupedNodes in order, and within a layer runs
// nodes one at a time in the layer's given order (already deterministic,
// sorted by node name).
type SequentialRunner struct {
	base
}

// NewSequentialRunner constructs a SequentialRunner reporting through the
// given ambient stack. Any of the fields may be left nil; sensible no-op
// defaults are used.
func NewSequentialRunner(cfg *config.Config, logger *logging.Logger, observers *observer.Manager, telemetryProvider *telemetry.Provider) *SequentialRunner {
	return &SequentialRunner{base: base{Config: cfg, Logger: logger, Observers: observers, Telemetry: telemetryProvider}}
}

// RunInner implements Runner.
func (r *SequentialRunner) RunInner(ctx context.Context, p *pipeline.Pipeline, cat catalog.DataCatalog, runID string) error {
	for _, layer := range p.GroupedNodes() {
		for _, n := range layer {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := r.runNode(ctx, n, cat, runID); err != nil {
				return err
			}
		}
	}
	return nil
}
