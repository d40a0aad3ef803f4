package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/lattice-data/pipeline/pkg/catalog"
	"github.com/lattice-data/pipeline/pkg/config"
	"github.com/lattice-data/pipeline/pkg/logging"
	"github.com/lattice-data/pipeline/pkg/node"
	"github.com/lattice-data/pipeline/pkg/observer"
	"github.com/lattice-data/pipeline/pkg/telemetry"
)

// base carries the ambient stack shared by SequentialRunner and
// ParallelRunner and implements the per-node logging/observer/telemetry
// wrapping around RunNode, plus the default CreateDefaultDataSet hook.
type base struct {
	Config    *config.Config
	Logger    *logging.Logger
	Observers *observer.Manager
	Telemetry *telemetry.Provider
}

// CreateDefaultDataSet is the default factory hook: it registers the name
// with the catalog but saves no initial value, matching the reference
// Kedro runner's bare MemoryDataSet().
func (b *base) CreateDefaultDataSet(name string) any { return nil }

func (b *base) options() Options {
	return Options{Config: b.Config, Logger: b.Logger, Observers: b.Observers, Telemetry: b.Telemetry}
}

// runNode wraps RunNode with the logging/observer/telemetry reporting a
// concrete runner's RunInner owes every node it executes, and enforces
// config.Config.NodeTimeout when set.
func (b *base) runNode(ctx context.Context, n node.Node, cat catalog.DataCatalog, runID string) error {
	start := time.Now()
	logger := b.options().logger().WithRunID(runID).WithNodeName(n.Name())

	logger.Debug("node execution started")
	b.options().notify(ctx, observer.Event{
		Type:      observer.EventNodeStart,
		Status:    observer.StatusStarted,
		Timestamp: start,
		RunID:     runID,
		NodeName:  n.Name(),
		StartTime: start,
	})

	err := b.runNodeWithTimeout(ctx, n, cat)

	elapsed := time.Since(start)
	if err != nil {
		logger.WithError(err).Error("node execution failed")
		b.options().notify(ctx, observer.Event{
			Type:        observer.EventNodeFailure,
			Status:      observer.StatusFailure,
			Timestamp:   time.Now(),
			RunID:       runID,
			NodeName:    n.Name(),
			StartTime:   start,
			ElapsedTime: elapsed,
			Error:       err,
		})
		if b.Telemetry != nil {
			b.Telemetry.RecordNodeExecution(ctx, n.Name(), elapsed, false)
		}
		return err
	}

	logger.WithDuration(elapsed).Info("node execution completed successfully")
	b.options().notify(ctx, observer.Event{
		Type:        observer.EventNodeSuccess,
		Status:      observer.StatusSuccess,
		Timestamp:   time.Now(),
		RunID:       runID,
		NodeName:    n.Name(),
		StartTime:   start,
		ElapsedTime: elapsed,
	})
	if b.Telemetry != nil {
		b.Telemetry.RecordNodeExecution(ctx, n.Name(), elapsed, true)
	}
	return nil
}

// runNodeWithTimeout applies Config.NodeTimeout around RunNode. node.Node's
// Run has no context parameter, so a timeout can only abandon waiting for
// the result, not cancel the node's own goroutine: the goroutine is left
// running and its result discarded once the timeout fires.
func (b *base) runNodeWithTimeout(ctx context.Context, n node.Node, cat catalog.DataCatalog) error {
	timeout := time.Duration(0)
	if b.Config != nil {
		timeout = b.Config.NodeTimeout
	}
	if timeout <= 0 {
		return RunNode(n, cat)
	}

	done := make(chan error, 1)
	go func() { done <- RunNode(n, cat) }()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return &NodeExecutionError{NodeName: n.Name(), Cause: fmt.Errorf("exceeded node timeout of %s", timeout)}
	case <-ctx.Done():
		return &NodeExecutionError{NodeName: n.Name(), Cause: ctx.Err()}
	}
}
