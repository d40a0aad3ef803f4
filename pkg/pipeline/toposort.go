package pipeline

import (
	"sort"

	"github.com/lattice-data/pipeline/pkg/node"
)

// topoLayers groups nodes into layers via Kahn's algorithm: layer 0 holds
// every node with no unmet dependency, layer i+1 holds every node whose
// dependencies all lie in layers 0..i. Order within a layer is fixed to
// sorted-by-name for reproducible Describe/ToJSON output (the order within
// a layer is otherwise unspecified; this fixes it for determinism).
func topoLayers(nodes []node.Node, byInputNamespace map[string][]node.Node, byOutputNamespace map[string]node.Node) ([][]node.Node, error) {
	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes)) // producer name -> consumer names
	byName := make(map[string]node.Node, len(nodes))

	for _, n := range nodes {
		byName[n.Name()] = n
	}

	for _, n := range nodes {
		parents := map[string]struct{}{}
		for _, ns := range n.InputNamespaces() {
			producer, ok := byOutputNamespace[ns]
			if !ok || producer.Name() == n.Name() {
				continue
			}
			parents[producer.Name()] = struct{}{}
		}
		indegree[n.Name()] = len(parents)
		for parent := range parents {
			dependents[parent] = append(dependents[parent], n.Name())
		}
	}

	remaining := len(nodes)
	var layers [][]node.Node

	current := make([]string, 0)
	for _, n := range nodes {
		if indegree[n.Name()] == 0 {
			current = append(current, n.Name())
		}
	}

	for len(current) > 0 {
		sort.Strings(current)
		layer := make([]node.Node, 0, len(current))
		for _, name := range current {
			layer = append(layer, byName[name])
		}
		layers = append(layers, layer)
		remaining -= len(current)

		var next []string
		for _, name := range current {
			for _, child := range dependents[name] {
				indegree[child]--
				if indegree[child] == 0 {
					next = append(next, child)
				}
			}
		}
		current = next
	}

	if remaining > 0 {
		cycle := make([]string, 0, remaining)
		for name, deg := range indegree {
			if deg > 0 {
				cycle = append(cycle, name)
			}
		}
		sort.Strings(cycle)
		return nil, &CircularDependencyError{Cycle: cycle}
	}

	return layers, nil
}
