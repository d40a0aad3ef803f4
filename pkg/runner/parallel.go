package runner

import (
	"context"
	"sync"

	"github.com/lattice-data/pipeline/pkg/catalog"
	"github.com/lattice-data/pipeline/pkg/config"
	"github.com/lattice-data/pipeline/pkg/logging"
	"github.com/lattice-data/pipeline/pkg/node"
	"github.com/lattice-data/pipeline/pkg/observer"
	"github.com/lattice-data/pipeline/pkg/pipeline"
	"github.com/lattice-data/pipeline/pkg/telemetry"
)

// ParallelRunner runs each layer's nodes concurrently, bounded by
// Config.MaxConcurrency; the next layer begins only once every node of the
// prior layer has finished successfully. The first node failure cancels
// the layer and is awaited alongside every node already in flight before
// being returned.
type ParallelRunner struct {
	base
}

// NewParallelRunner constructs a ParallelRunner reporting through the
// given ambient stack. cfg.MaxConcurrency bounds the fan-out within a
// single layer; zero or a nil cfg means unbounded (one goroutine per node
// in the layer).
func NewParallelRunner(cfg *config.Config, logger *logging.Logger, observers *observer.Manager, telemetryProvider *telemetry.Provider) *ParallelRunner {
	return &ParallelRunner{base: base{Config: cfg, Logger: logger, Observers: observers, Telemetry: telemetryProvider}}
}

// RunInner implements Runner.
func (r *ParallelRunner) RunInner(ctx context.Context, p *pipeline.Pipeline, cat catalog.DataCatalog, runID string) error {
	for _, layer := range p.GroupedNodes() {
		if err := r.runLayer(ctx, layer, cat, runID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ParallelRunner) runLayer(ctx context.Context, layer []node.Node, cat catalog.DataCatalog, runID string) error {
	if len(layer) == 0 {
		return nil
	}
	if len(layer) == 1 {
		return r.runNode(ctx, layer[0], cat, runID)
	}

	maxConcurrency := len(layer)
	if r.Config != nil && r.Config.MaxConcurrency > 0 && r.Config.MaxConcurrency < maxConcurrency {
		maxConcurrency = r.Config.MaxConcurrency
	}
	sem := make(chan struct{}, maxConcurrency)

	layerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, n := range layer {
		wg.Add(1)
		go func(n node.Node) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-layerCtx.Done():
				return
			}

			select {
			case <-layerCtx.Done():
				return
			default:
			}

			if err := r.runNode(layerCtx, n, cat, runID); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
			}
		}(n)
	}

	wg.Wait()
	return firstErr
}
