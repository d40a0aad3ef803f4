package pipeline

import (
	"sort"

	"github.com/lattice-data/pipeline/pkg/node"
)

// AllInputs returns the union of every node's literal inputs.
func (p *Pipeline) AllInputs() []string {
	set := map[string]struct{}{}
	for _, n := range p.flat {
		for _, in := range n.Inputs() {
			set[in] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// AllOutputs returns the union of every node's literal outputs.
func (p *Pipeline) AllOutputs() []string {
	set := map[string]struct{}{}
	for _, n := range p.flat {
		for _, out := range n.Outputs() {
			set[out] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Inputs returns the pipeline's free inputs: AllInputs minus any name whose
// namespace is also produced inside the pipeline.
func (p *Pipeline) Inputs() []string {
	all := p.AllInputs()
	out := make([]string, 0, len(all))
	for _, in := range all {
		if _, produced := p.byOutputNamespace[node.Namespace(in)]; produced {
			continue
		}
		out = append(out, in)
	}
	return out
}

// Outputs returns the pipeline's terminal outputs: AllOutputs minus any
// name whose namespace is also consumed inside the pipeline.
func (p *Pipeline) Outputs() []string {
	all := p.AllOutputs()
	out := make([]string, 0, len(all))
	for _, o := range all {
		if _, consumed := p.byInputNamespace[node.Namespace(o)]; consumed {
			continue
		}
		out = append(out, o)
	}
	return out
}

// DataSets returns AllInputs() ∪ AllOutputs().
func (p *Pipeline) DataSets() []string {
	set := map[string]struct{}{}
	for _, n := range p.AllInputs() {
		set[n] = struct{}{}
	}
	for _, n := range p.AllOutputs() {
		set[n] = struct{}{}
	}
	return sortedKeys(set)
}

// Nodes returns the pipeline's nodes in flattened topological order.
func (p *Pipeline) Nodes() []node.Node {
	return append([]node.Node(nil), p.flat...)
}

// GroupedNodes returns the pipeline's layered topological order directly.
func (p *Pipeline) GroupedNodes() [][]node.Node {
	out := make([][]node.Node, len(p.layers))
	for i, layer := range p.layers {
		out[i] = append([]node.Node(nil), layer...)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (p *Pipeline) allDatasetNames() map[string]struct{} {
	set := map[string]struct{}{}
	for _, n := range p.AllInputs() {
		set[n] = struct{}{}
	}
	for _, n := range p.AllOutputs() {
		set[n] = struct{}{}
	}
	return set
}

func (p *Pipeline) checkKnownDatasets(names []string) error {
	known := p.allDatasetNames()
	var unknown []string
	for _, name := range names {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return newConfigurationError("pipeline: unknown dataset name(s): %v", unknown)
	}
	return nil
}

func newSubPipeline(nodes []node.Node) (*Pipeline, error) {
	items := make([]any, len(nodes))
	for i, n := range nodes {
		items[i] = n
	}
	return New(items)
}

// OnlyNodes returns the subset containing exactly the named nodes. An
// unknown name fails with ConfigurationError.
func (p *Pipeline) OnlyNodes(names ...string) (*Pipeline, error) {
	var unknown []string
	nodes := make([]node.Node, 0, len(names))
	seen := map[string]struct{}{}
	for _, name := range names {
		n, ok := p.nodesByName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		nodes = append(nodes, n)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, newConfigurationError("pipeline: unknown node name(s): %v", unknown)
	}
	return newSubPipeline(nodes)
}

// OnlyNodesWithTags returns the subset of nodes whose tag set intersects
// the given tags. An empty tag set yields an empty pipeline.
func (p *Pipeline) OnlyNodesWithTags(tags ...string) (*Pipeline, error) {
	wanted := map[string]struct{}{}
	for _, t := range tags {
		wanted[t] = struct{}{}
	}
	var nodes []node.Node
	for _, n := range p.flat {
		for t := range n.Tags() {
			if _, ok := wanted[t]; ok {
				nodes = append(nodes, n)
				break
			}
		}
	}
	return newSubPipeline(nodes)
}

// OnlyNodesWithInputs returns the nodes directly consuming any of the
// named datasets (matched by literal name).
func (p *Pipeline) OnlyNodesWithInputs(names ...string) (*Pipeline, error) {
	if err := p.checkKnownDatasets(names); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var nodes []node.Node
	for _, name := range names {
		for _, n := range p.byInputLiteral[name] {
			if _, ok := seen[n.Name()]; ok {
				continue
			}
			seen[n.Name()] = struct{}{}
			nodes = append(nodes, n)
		}
	}
	return newSubPipeline(nodes)
}

// FromInputs returns the transitive closure forward from the named
// datasets: consumers, then their outputs become the next frontier, until
// a fixed point.
func (p *Pipeline) FromInputs(names ...string) (*Pipeline, error) {
	if err := p.checkKnownDatasets(names); err != nil {
		return nil, err
	}
	collected := map[string]node.Node{}
	frontier := append([]string(nil), names...)
	for len(frontier) > 0 {
		var nextFrontier []string
		for _, name := range frontier {
			for _, n := range p.byInputLiteral[name] {
				if _, ok := collected[n.Name()]; ok {
					continue
				}
				collected[n.Name()] = n
				nextFrontier = append(nextFrontier, n.Outputs()...)
			}
		}
		frontier = nextFrontier
	}
	return newSubPipeline(mapToNodes(collected))
}

// OnlyNodesWithOutputs returns the nodes directly producing any of the
// named datasets (matched by literal name).
func (p *Pipeline) OnlyNodesWithOutputs(names ...string) (*Pipeline, error) {
	if err := p.checkKnownDatasets(names); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var nodes []node.Node
	for _, name := range names {
		if n, ok := p.byOutputLiteral[name]; ok {
			if _, dup := seen[n.Name()]; !dup {
				seen[n.Name()] = struct{}{}
				nodes = append(nodes, n)
			}
		}
	}
	return newSubPipeline(nodes)
}

// ToOutputs returns the transitive closure backward from the named
// datasets: producers, then their inputs become the next frontier, until
// a fixed point.
func (p *Pipeline) ToOutputs(names ...string) (*Pipeline, error) {
	if err := p.checkKnownDatasets(names); err != nil {
		return nil, err
	}
	collected := map[string]node.Node{}
	frontier := append([]string(nil), names...)
	for len(frontier) > 0 {
		var nextFrontier []string
		for _, name := range frontier {
			n, ok := p.byOutputLiteral[name]
			if !ok {
				continue
			}
			if _, dup := collected[n.Name()]; dup {
				continue
			}
			collected[n.Name()] = n
			nextFrontier = append(nextFrontier, n.Inputs()...)
		}
		frontier = nextFrontier
	}
	return newSubPipeline(mapToNodes(collected))
}

// FromNodes returns OnlyNodes(names) unioned with FromInputs of their
// outputs.
func (p *Pipeline) FromNodes(names ...string) (*Pipeline, error) {
	base, err := p.OnlyNodes(names...)
	if err != nil {
		return nil, err
	}
	var outputs []string
	for _, n := range base.flat {
		outputs = append(outputs, n.Outputs()...)
	}
	if len(outputs) == 0 {
		return base, nil
	}
	downstream, err := p.FromInputs(outputs...)
	if err != nil {
		return nil, err
	}
	return base.Union(downstream)
}

// ToNodes returns OnlyNodes(names) unioned with ToOutputs of their inputs.
func (p *Pipeline) ToNodes(names ...string) (*Pipeline, error) {
	base, err := p.OnlyNodes(names...)
	if err != nil {
		return nil, err
	}
	var inputs []string
	for _, n := range base.flat {
		inputs = append(inputs, n.Inputs()...)
	}
	if len(inputs) == 0 {
		return base, nil
	}
	upstream, err := p.ToOutputs(inputs...)
	if err != nil {
		return nil, err
	}
	return base.Union(upstream)
}

// Decorate returns a Pipeline with every node replaced by its decorated
// version, re-validated and re-sorted.
func (p *Pipeline) Decorate(decorators ...node.Decorator) (*Pipeline, error) {
	nodes := make([]node.Node, len(p.flat))
	for i, n := range p.flat {
		nodes[i] = n.WithDecorators(decorators...)
	}
	return newSubPipeline(nodes)
}

// Union returns the deduplicated (by node name) union of p and other.
// Union is commutative and associative up to node order.
func (p *Pipeline) Union(other *Pipeline) (*Pipeline, error) {
	seen := map[string]struct{}{}
	var nodes []node.Node
	for _, n := range p.flat {
		if _, ok := seen[n.Name()]; ok {
			continue
		}
		seen[n.Name()] = struct{}{}
		nodes = append(nodes, n)
	}
	for _, n := range other.flat {
		if _, ok := seen[n.Name()]; ok {
			continue
		}
		seen[n.Name()] = struct{}{}
		nodes = append(nodes, n)
	}
	return newSubPipeline(nodes)
}

func mapToNodes(m map[string]node.Node) []node.Node {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]node.Node, len(names))
	for i, name := range names {
		out[i] = m[name]
	}
	return out
}
