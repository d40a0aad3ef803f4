// Package node defines the Node contract consumed by the pipeline and
// runner packages, along with a concrete immutable implementation of it.
//
// A Node is a named computational unit with declared input and output
// dataset names. Pipelines never mutate a Node: tagging and decorating
// both return a new value.
package node

import "sort"

// Separator marks the start of a transcoding suffix in a dataset name,
// e.g. "raw@csv" has namespace "raw" and transcoding suffix "csv".
const Separator = "@"

// Namespace returns the substring of name up to (excluding) the first
// occurrence of Separator, or the whole name if it contains no separator.
func Namespace(name string) string {
	if idx := indexByte(name, Separator[0]); idx >= 0 {
		return name[:idx]
	}
	return name
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// RunFunc is the pure-ish computation a Node performs: given a mapping of
// input dataset name to value, it returns a mapping of output dataset name
// to value.
type RunFunc func(inputs map[string]any) (map[string]any, error)

// Decorator wraps a RunFunc to produce another RunFunc, e.g. for logging,
// retries, or timing. Decorators passed to Decorate/WithDecorators are
// applied right-to-left: the last decorator in the list is the innermost
// wrapper around the original RunFunc.
type Decorator func(RunFunc) RunFunc

// Node is the external contract required by Pipeline and Runner.
type Node interface {
	// Name is the node's unique identifier within any Pipeline it belongs to.
	Name() string
	// Inputs are the node's declared input dataset names, in order.
	Inputs() []string
	// Outputs are the node's declared output dataset names, in order.
	Outputs() []string
	// InputNamespaces is Inputs() with Namespace applied elementwise.
	InputNamespaces() []string
	// OutputNamespaces is Outputs() with Namespace applied elementwise.
	OutputNamespaces() []string
	// Tags is the node's tag set.
	Tags() map[string]struct{}
	// WithTags returns a Node equal to this one except with the given tags
	// unioned into its tag set.
	WithTags(tags ...string) Node
	// WithDecorators returns a Node whose Run is wrapped by the given
	// decorators, applied right-to-left.
	WithDecorators(decorators ...Decorator) Node
	// Run executes the node's computation.
	Run(inputs map[string]any) (map[string]any, error)
	// String renders a human-readable one-line signature, used by
	// Pipeline.Describe when names_only is false.
	String() string
}

// Base is the reference, immutable implementation of Node.
type Base struct {
	name       string
	inputs     []string
	outputs    []string
	tags       map[string]struct{}
	run        RunFunc
	decorators []Decorator
}

// New constructs a Base node. inputs and outputs must not contain
// duplicates; the caller is responsible for that invariant, matching the
// external Node contract described by the pipeline package.
func New(name string, inputs, outputs []string, run RunFunc) *Base {
	return &Base{
		name:    name,
		inputs:  append([]string(nil), inputs...),
		outputs: append([]string(nil), outputs...),
		tags:    map[string]struct{}{},
		run:     run,
	}
}

func (b *Base) Name() string      { return b.name }
func (b *Base) Inputs() []string  { return append([]string(nil), b.inputs...) }
func (b *Base) Outputs() []string { return append([]string(nil), b.outputs...) }

func (b *Base) InputNamespaces() []string  { return namespaces(b.inputs) }
func (b *Base) OutputNamespaces() []string { return namespaces(b.outputs) }

func namespaces(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Namespace(n)
	}
	return out
}

func (b *Base) Tags() map[string]struct{} {
	out := make(map[string]struct{}, len(b.tags))
	for t := range b.tags {
		out[t] = struct{}{}
	}
	return out
}

// WithTags returns a new Base with the given tags unioned into its set.
func (b *Base) WithTags(tags ...string) Node {
	clone := b.clone()
	for _, t := range tags {
		clone.tags[t] = struct{}{}
	}
	return clone
}

// WithDecorators returns a new Base whose effective RunFunc is the given
// decorators composed right-to-left around the original RunFunc.
func (b *Base) WithDecorators(decorators ...Decorator) Node {
	clone := b.clone()
	clone.decorators = append(append([]Decorator(nil), b.decorators...), decorators...)
	return clone
}

func (b *Base) clone() *Base {
	tags := make(map[string]struct{}, len(b.tags))
	for t := range b.tags {
		tags[t] = struct{}{}
	}
	return &Base{
		name:       b.name,
		inputs:     append([]string(nil), b.inputs...),
		outputs:    append([]string(nil), b.outputs...),
		tags:       tags,
		run:        b.run,
		decorators: append([]Decorator(nil), b.decorators...),
	}
}

// Run executes the node, applying any decorators right-to-left (the last
// decorator added wraps closest to the original function).
func (b *Base) Run(inputs map[string]any) (map[string]any, error) {
	fn := b.run
	for i := len(b.decorators) - 1; i >= 0; i-- {
		fn = b.decorators[i](fn)
	}
	return fn(inputs)
}

// String renders "name(in1, in2) -> [out1]" (e.g. "f1(a, b) -> [c]"), the
// signature Pipeline.Describe prints when namesOnly is false.
func (b *Base) String() string {
	tags := make([]string, 0, len(b.tags))
	for t := range b.tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	s := b.name + "(" + joinCSV(b.inputs) + ") -> " + "[" + joinCSV(b.outputs) + "]"
	return s
}

func joinCSV(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += it
	}
	return out
}
