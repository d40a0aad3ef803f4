package pipeline

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// version is the schema version stamped into ToJSON's export. It tracks
// this package's export format, not the module's own release version.
const version = "1.0"

var collator = collate.New(language.Und)

func collatedSort(names []string) []string {
	out := append([]string(nil), names...)
	collator.SortStrings(out)
	return out
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}

// Describe renders a deterministic human-readable execution report. When
// namesOnly is true, nodes are rendered by name; otherwise by their
// String() signature.
func (p *Pipeline) Describe(namesOnly bool) string {
	var b strings.Builder
	b.WriteString("#### Pipeline execution order ####\n")

	name := p.name
	if name == "" {
		name = "None"
	}
	b.WriteString("Name: " + name + "\n")
	b.WriteString("Inputs: " + joinOrNone(collatedSort(p.Inputs())) + "\n")
	b.WriteString("\n")

	for _, n := range p.flat {
		if namesOnly {
			b.WriteString(n.Name() + "\n")
		} else {
			b.WriteString(n.String() + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString("Outputs: " + joinOrNone(collatedSort(p.Outputs())) + "\n")
	b.WriteString("##################################")

	return b.String()
}

// String implements fmt.Stringer as Describe(true) (names-only), matching
// the Describe/String duality the pipeline.Describe method offers.
func (p *Pipeline) String() string {
	return p.Describe(true)
}

type jsonNode struct {
	Name    string   `json:"name"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
	Tags    []string `json:"tags"`
}

type jsonExport struct {
	Version  string     `json:"kedro_version"`
	Pipeline []jsonNode `json:"pipeline"`
}

// ToJSON renders a deterministic JSON export: nodes in topological order,
// inputs/outputs expressed as namespaces (not literal transcoded names),
// tags sorted. No trailing newline.
func (p *Pipeline) ToJSON() ([]byte, error) {
	export := jsonExport{
		Version:  version,
		Pipeline: make([]jsonNode, 0, len(p.flat)),
	}
	for _, n := range p.flat {
		tags := make([]string, 0, len(n.Tags()))
		for t := range n.Tags() {
			tags = append(tags, t)
		}
		collator.SortStrings(tags)

		export.Pipeline = append(export.Pipeline, jsonNode{
			Name:    n.Name(),
			Inputs:  n.InputNamespaces(),
			Outputs: n.OutputNamespaces(),
			Tags:    tags,
		})
	}
	return json.Marshal(export)
}
