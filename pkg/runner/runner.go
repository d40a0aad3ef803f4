package runner

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lattice-data/pipeline/pkg/catalog"
	"github.com/lattice-data/pipeline/pkg/config"
	"github.com/lattice-data/pipeline/pkg/logging"
	"github.com/lattice-data/pipeline/pkg/node"
	"github.com/lattice-data/pipeline/pkg/observer"
	"github.com/lattice-data/pipeline/pkg/pipeline"
	"github.com/lattice-data/pipeline/pkg/telemetry"
)

// Runner is the one concrete hook (RunInner) and one factory hook
// (CreateDefaultDataSet) a concrete execution strategy must supply. Run and
// RunOnlyMissing are free functions parametrised over this interface.
type Runner interface {
	// RunInner traverses p's grouped nodes, invoking RunNode for each one
	// against cat, and returns the first node failure encountered. runID
	// identifies the enclosing Run call for logging/observer/telemetry.
	RunInner(ctx context.Context, p *pipeline.Pipeline, cat catalog.DataCatalog, runID string) error
	// CreateDefaultDataSet manufactures the ephemeral in-memory dataset for
	// a pipeline data set name that the caller's catalog does not already
	// know about. A nil return leaves the name registered but unsaved.
	CreateDefaultDataSet(name string) any
}

// Options configures the ambient stack a Runner call reports through.
type Options struct {
	Config    *config.Config
	Logger    *logging.Logger
	Observers *observer.Manager
	Telemetry *telemetry.Provider
}

func (o Options) logger() *logging.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.New(logging.DefaultConfig())
}

func (o Options) notify(ctx context.Context, event observer.Event) {
	if o.Observers != nil && o.Observers.HasObservers() {
		o.Observers.Notify(ctx, event)
	}
}

// Run clones cat, checks the pipeline's free inputs are satisfied, registers
// any ephemeral data sets the pipeline needs, primes remaining-load hints,
// delegates to r.RunInner, and returns the values produced for the
// pipeline's free outputs.
func Run(ctx context.Context, r Runner, p *pipeline.Pipeline, cat catalog.DataCatalog, opts Options) (map[string]any, error) {
	runID := uuid.NewString()
	logger := opts.logger().WithRunID(runID)
	start := time.Now()

	logger.Info("run started")
	opts.notify(ctx, observer.Event{
		Type:      observer.EventRunStart,
		Status:    observer.StatusStarted,
		Timestamp: start,
		RunID:     runID,
		StartTime: start,
	})

	outputs, err := doRun(ctx, r, p, cat, opts, runID)

	elapsed := time.Since(start)
	if err != nil {
		logger.WithError(err).Error("run failed")
		opts.notify(ctx, observer.Event{
			Type:        observer.EventRunEnd,
			Status:      observer.StatusFailure,
			Timestamp:   time.Now(),
			RunID:       runID,
			StartTime:   start,
			ElapsedTime: elapsed,
			Error:       err,
		})
		if opts.Telemetry != nil {
			opts.Telemetry.RecordRunExecution(ctx, runID, elapsed, false, len(p.Nodes()))
		}
		return nil, err
	}

	logger.WithDuration(elapsed).
		WithField("nodes_executed", len(p.Nodes())).
		Info("run completed successfully")
	opts.notify(ctx, observer.Event{
		Type:        observer.EventRunEnd,
		Status:      observer.StatusSuccess,
		Timestamp:   time.Now(),
		RunID:       runID,
		StartTime:   start,
		ElapsedTime: elapsed,
		Metadata:    map[string]any{"nodes_executed": len(p.Nodes())},
	})
	if opts.Telemetry != nil {
		opts.Telemetry.RecordRunExecution(ctx, runID, elapsed, true, len(p.Nodes()))
	}
	return outputs, nil
}

func doRun(ctx context.Context, r Runner, p *pipeline.Pipeline, cat catalog.DataCatalog, opts Options, runID string) (map[string]any, error) {
	if opts.Config != nil {
		if err := opts.Config.Validate(); err != nil {
			return nil, err
		}
	}

	cat = cat.ShallowCopy()

	registered := map[string]struct{}{}
	for _, name := range cat.List() {
		registered[name] = struct{}{}
	}

	var unsatisfied []string
	for _, in := range p.Inputs() {
		if _, ok := registered[in]; !ok {
			unsatisfied = append(unsatisfied, in)
		}
	}
	if len(unsatisfied) > 0 {
		sort.Strings(unsatisfied)
		return nil, &pipeline.ConfigurationError{
			Message: "runner: unsatisfied pipeline input(s): " + joinStrings(unsatisfied),
		}
	}

	var freeOutputs []string
	for _, out := range p.Outputs() {
		if _, ok := registered[out]; !ok {
			freeOutputs = append(freeOutputs, out)
		}
	}

	for _, name := range p.DataSets() {
		if _, ok := registered[name]; ok {
			continue
		}
		if err := cat.Add(name); err != nil {
			return nil, err
		}
		if ds := r.CreateDefaultDataSet(name); ds != nil {
			if err := cat.Save(name, ds); err != nil {
				return nil, err
			}
		}
		registered[name] = struct{}{}
	}

	for _, name := range p.AllInputs() {
		consumers, err := p.OnlyNodesWithInputs(name)
		if err != nil {
			return nil, err
		}
		cat.SetRemainingLoads(name, len(consumers.Nodes()))
	}

	if err := r.RunInner(ctx, p, cat, runID); err != nil {
		return nil, err
	}

	outputs := make(map[string]any, len(freeOutputs))
	for _, name := range freeOutputs {
		value, err := cat.Load(name)
		if err != nil {
			return nil, err
		}
		outputs[name] = value
	}
	return outputs, nil
}

// RunOnlyMissing computes the minimal subpipeline needed to (re)produce the
// pipeline's free outputs and any catalog entries registered but not yet
// persisted, then delegates to Run.
func RunOnlyMissing(ctx context.Context, r Runner, p *pipeline.Pipeline, cat catalog.DataCatalog, opts Options) (map[string]any, error) {
	registered := map[string]struct{}{}
	for _, name := range cat.List() {
		registered[name] = struct{}{}
	}

	var freeOutputs []string
	for _, out := range p.Outputs() {
		if _, ok := registered[out]; !ok {
			freeOutputs = append(freeOutputs, out)
		}
	}

	var missing []string
	for name := range registered {
		if !cat.Exists(name) {
			missing = append(missing, name)
		}
	}

	toBuild := dedupStrings(append(append([]string(nil), freeOutputs...), missing...))

	toRerun, err := p.OnlyNodesWithOutputs(toBuild...)
	if err != nil {
		return nil, err
	}
	fromInputs, err := p.FromInputs(toBuild...)
	if err != nil {
		return nil, err
	}
	toRerun, err = toRerun.Union(fromInputs)
	if err != nil {
		return nil, err
	}

	var memorySets []string
	for _, name := range p.DataSets() {
		if _, ok := registered[name]; !ok {
			memorySets = append(memorySets, name)
		}
	}
	memorySetIndex := map[string]struct{}{}
	for _, name := range memorySets {
		memorySetIndex[name] = struct{}{}
	}

	outputToMemory, err := p.OnlyNodesWithOutputs(memorySets...)
	if err != nil {
		return nil, err
	}

	var inputFromMemory []string
	for _, name := range toRerun.Inputs() {
		if _, ok := memorySetIndex[name]; ok {
			inputFromMemory = append(inputFromMemory, name)
		}
	}

	if len(inputFromMemory) > 0 {
		extra, err := outputToMemory.ToOutputs(inputFromMemory...)
		if err != nil {
			return nil, err
		}
		toRerun, err = toRerun.Union(extra)
		if err != nil {
			return nil, err
		}
	}

	return Run(ctx, r, toRerun, cat, opts)
}

// RunNode is the per-node execution unit: load every declared input by
// literal name, invoke the node, save every declared output by literal
// name. Every concrete runner must route through this.
func RunNode(n node.Node, cat catalog.DataCatalog) error {
	inputs := make(map[string]any, len(n.Inputs()))
	for _, name := range n.Inputs() {
		value, err := cat.Load(name)
		if err != nil {
			return &NodeExecutionError{NodeName: n.Name(), Cause: err}
		}
		inputs[name] = value
	}

	outputs, err := n.Run(inputs)
	if err != nil {
		return &NodeExecutionError{NodeName: n.Name(), Cause: err}
	}

	for _, name := range n.Outputs() {
		value, ok := outputs[name]
		if !ok {
			continue
		}
		if err := cat.Save(name, value); err != nil {
			return &NodeExecutionError{NodeName: n.Name(), Cause: err}
		}
	}
	return nil
}

func dedupStrings(items []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func joinStrings(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += it
	}
	return out
}
