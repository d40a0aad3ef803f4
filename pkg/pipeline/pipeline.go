// Package pipeline implements an immutable, validated directed acyclic
// graph of node.Node values. Validation and topological layering happen
// once, eagerly, at construction; every combinator returns a new Pipeline
// rather than mutating the receiver.
package pipeline

import (
	"sort"

	"github.com/lattice-data/pipeline/pkg/node"
)

// Pipeline is an immutable aggregate of nodes, validated for uniqueness,
// transcoding consistency and acyclicity at construction time.
type Pipeline struct {
	name string

	nodesByName map[string]node.Node

	// namespace-keyed indices, used for the internal dependency graph and
	// topological sort: dependencies between nodes are namespace-to-namespace.
	byInputNamespace  map[string][]node.Node
	byOutputNamespace map[string]node.Node

	// literal-name-keyed indices, used by the public *_with_inputs /
	// *_with_outputs selectors: those match on the literal name as
	// presented by the node, not the namespace.
	byInputLiteral  map[string][]node.Node
	byOutputLiteral map[string]node.Node

	layers [][]node.Node // topological layers, each sorted by node name
	flat   []node.Node   // layers concatenated
}

// Option configures a Pipeline at construction time.
type Option func(*buildConfig)

type buildConfig struct {
	name string
}

// WithName sets the Pipeline's name; every node is retagged with it.
func WithName(name string) Option {
	return func(c *buildConfig) { c.name = name }
}

// New constructs a Pipeline from a list of node.Node and/or *Pipeline
// values (Pipelines are flattened, contributing their nodes in their
// current topological order). items must not be nil: an explicit, non-nil
// but empty slice constructs a valid empty Pipeline, distinct from the
// nil case which is rejected outright.
func New(items []any, opts ...Option) (*Pipeline, error) {
	if items == nil {
		return nil, newConfigurationError("pipeline: node list must not be nil")
	}

	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	nodes, err := flatten(items)
	if err != nil {
		return nil, err
	}

	if err := validateUniqueNames(nodes); err != nil {
		return nil, err
	}

	if err := validateTranscoding(nodes); err != nil {
		return nil, err
	}

	if cfg.name != "" {
		for i, n := range nodes {
			nodes[i] = n.WithTags(cfg.name)
		}
	}

	if err := validateUniqueOutputs(nodes); err != nil {
		return nil, err
	}

	p := &Pipeline{
		name:        cfg.name,
		nodesByName: make(map[string]node.Node, len(nodes)),
	}
	for _, n := range nodes {
		p.nodesByName[n.Name()] = n
	}

	p.byInputNamespace, p.byOutputNamespace = buildNamespaceIndices(nodes)
	p.byInputLiteral, p.byOutputLiteral = buildLiteralIndices(nodes)

	layers, err := topoLayers(nodes, p.byInputNamespace, p.byOutputNamespace)
	if err != nil {
		return nil, err
	}
	p.layers = layers
	for _, layer := range layers {
		p.flat = append(p.flat, layer...)
	}

	return p, nil
}

func flatten(items []any) ([]node.Node, error) {
	var out []node.Node
	for _, item := range items {
		switch v := item.(type) {
		case node.Node:
			out = append(out, v)
		case *Pipeline:
			out = append(out, v.flat...)
		default:
			return nil, newConfigurationError("pipeline: item of type %T is neither a Node nor a *Pipeline", item)
		}
	}
	return out, nil
}

func validateUniqueNames(nodes []node.Node) error {
	counts := make(map[string]int, len(nodes))
	for _, n := range nodes {
		counts[n.Name()]++
	}
	var dups []string
	for name, c := range counts {
		if c > 1 {
			dups = append(dups, name)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Strings(dups)
	return newConfigurationError("pipeline: duplicate node name(s): %v", dups)
}

// validateTranscoding forbids mixing a raw reference to a dataset surface
// with a transcoded reference to the same surface: if "raw@csv" and "raw"
// both appear as literal input/output names anywhere in the pipeline,
// construction fails.
func validateTranscoding(nodes []node.Node) error {
	literal := map[string]struct{}{}
	for _, n := range nodes {
		for _, in := range n.Inputs() {
			literal[in] = struct{}{}
		}
		for _, out := range n.Outputs() {
			literal[out] = struct{}{}
		}
	}

	collisions := map[string]struct{}{}
	for d := range literal {
		ns := node.Namespace(d)
		if ns == d {
			continue
		}
		if _, ok := literal[ns]; ok {
			collisions[ns] = struct{}{}
		}
	}
	if len(collisions) == 0 {
		return nil
	}
	names := make([]string, 0, len(collisions))
	for ns := range collisions {
		names = append(names, ns)
	}
	sort.Strings(names)
	return newConfigurationError("pipeline: transcoding namespace collision for: %v", names)
}

func validateUniqueOutputs(nodes []node.Node) error {
	producers := map[string][]string{}
	for _, n := range nodes {
		for _, ns := range n.OutputNamespaces() {
			producers[ns] = append(producers[ns], n.Name())
		}
	}
	var dups []string
	for ns, owners := range producers {
		if len(owners) > 1 {
			dups = append(dups, ns)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Strings(dups)
	return &OutputNotUniqueError{Outputs: dups}
}

func buildNamespaceIndices(nodes []node.Node) (byInput map[string][]node.Node, byOutput map[string]node.Node) {
	byInput = map[string][]node.Node{}
	byOutput = map[string]node.Node{}
	for _, n := range nodes {
		for _, ns := range n.InputNamespaces() {
			byInput[ns] = append(byInput[ns], n)
		}
		for _, ns := range n.OutputNamespaces() {
			byOutput[ns] = n
		}
	}
	return byInput, byOutput
}

func buildLiteralIndices(nodes []node.Node) (byInput map[string][]node.Node, byOutput map[string]node.Node) {
	byInput = map[string][]node.Node{}
	byOutput = map[string]node.Node{}
	for _, n := range nodes {
		for _, in := range n.Inputs() {
			byInput[in] = append(byInput[in], n)
		}
		for _, out := range n.Outputs() {
			byOutput[out] = n
		}
	}
	return byInput, byOutput
}

// Name returns the pipeline's name, or "" if it was not set.
func (p *Pipeline) Name() string { return p.name }

// NodeDependencies returns, for each node name, the names of the nodes
// producing one of its input namespaces. Useful for external graph
// visualization.
func (p *Pipeline) NodeDependencies() map[string][]string {
	deps := make(map[string][]string, len(p.nodesByName))
	for name, n := range p.nodesByName {
		seen := map[string]struct{}{}
		var parents []string
		for _, ns := range n.InputNamespaces() {
			producer, ok := p.byOutputNamespace[ns]
			if !ok || producer.Name() == name {
				continue
			}
			if _, dup := seen[producer.Name()]; dup {
				continue
			}
			seen[producer.Name()] = struct{}{}
			parents = append(parents, producer.Name())
		}
		sort.Strings(parents)
		deps[name] = parents
	}
	return deps
}
