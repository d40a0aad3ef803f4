package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/lattice-data/pipeline/pkg/catalog"
	"github.com/lattice-data/pipeline/pkg/config"
	"github.com/lattice-data/pipeline/pkg/node"
	"github.com/lattice-data/pipeline/pkg/pipeline"
)

func diamondPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()

	f1 := node.New("f1", []string{"x"}, []string{"a"}, func(in map[string]any) (map[string]any, error) {
		return map[string]any{"a": in["x"].(int) + 1}, nil
	})
	f2 := node.New("f2", []string{"x"}, []string{"b"}, func(in map[string]any) (map[string]any, error) {
		return map[string]any{"b": in["x"].(int) * 2}, nil
	})
	f3 := node.New("f3", []string{"a", "b"}, []string{"y"}, func(in map[string]any) (map[string]any, error) {
		return map[string]any{"y": in["a"].(int) + in["b"].(int)}, nil
	})

	p, err := pipeline.New([]any{f1, f2, f3})
	if err != nil {
		t.Fatalf("pipeline.New() error = %v", err)
	}
	return p
}

func TestRun_HappyPath(t *testing.T) {
	p := diamondPipeline(t)
	cat := catalog.NewMemoryCatalog()
	if err := cat.Save("x", 10); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	r := NewSequentialRunner(nil, nil, nil, nil)
	outputs, err := Run(context.Background(), r, p, cat, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, ok := outputs["y"]; !ok {
		t.Fatalf("expected output %q in result, got %v", "y", outputs)
	}
	if outputs["y"].(int) != 31 {
		t.Errorf("expected y = 31, got %v", outputs["y"])
	}
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	p := diamondPipeline(t)
	cat := catalog.NewMemoryCatalog()
	if err := cat.Save("x", 10); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cfg := config.Default()
	cfg.MaxConcurrency = -1

	r := NewSequentialRunner(cfg, nil, nil, nil)
	_, err := Run(context.Background(), r, p, cat, Options{Config: cfg})
	if err != config.ErrInvalidMaxConcurrency {
		t.Fatalf("Run() error = %v, want ErrInvalidMaxConcurrency", err)
	}
}

func TestRun_UnsatisfiedInput(t *testing.T) {
	f1 := node.New("f1", []string{"a", "b"}, []string{"c"}, func(in map[string]any) (map[string]any, error) {
		return map[string]any{"c": 1}, nil
	})
	f2 := node.New("f2", []string{"c"}, []string{"d"}, func(in map[string]any) (map[string]any, error) {
		return map[string]any{"d": 1}, nil
	})
	p, err := pipeline.New([]any{f1, f2})
	if err != nil {
		t.Fatalf("pipeline.New() error = %v", err)
	}

	cat := catalog.NewMemoryCatalog()
	if err := cat.Save("a", 1); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	r := NewSequentialRunner(nil, nil, nil, nil)
	_, err = Run(context.Background(), r, p, cat, Options{})
	if err == nil {
		t.Fatal("expected a ConfigurationError for missing input b, got nil")
	}
	var confErr *pipeline.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected *pipeline.ConfigurationError, got %T: %v", err, err)
	}
}

func TestRun_RemainingLoadsLeaveCallerCatalogUntouched(t *testing.T) {
	p := diamondPipeline(t)
	cat := catalog.NewMemoryCatalog()
	if err := cat.Save("x", 1); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	r := NewSequentialRunner(nil, nil, nil, nil)
	if _, err := Run(context.Background(), r, p, cat, Options{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// x is consumed by both f1 and f2; after two loads the value should
	// have been freed by MemoryCatalog's remaining-loads bookkeeping on
	// the runner's cloned catalog (the caller's original is untouched).
	if !cat.Exists("x") {
		t.Error("expected caller's original catalog entry for x to remain untouched")
	}
}

func TestRunOnlyMissing_RebuildsWhenOutputDoesNotExist(t *testing.T) {
	// Linear pipeline f1(a,b)->c, f2(c)->d. The catalog knows about a, b
	// and d but not c, and d has no saved value yet: c is an ephemeral
	// (memory) data set the run must reproduce, so the rerun set pulls in
	// f1 as well as f2.
	f1 := node.New("f1", []string{"a", "b"}, []string{"c"}, func(in map[string]any) (map[string]any, error) {
		return map[string]any{"c": in["a"].(int) + in["b"].(int)}, nil
	})
	f2 := node.New("f2", []string{"c"}, []string{"d"}, func(in map[string]any) (map[string]any, error) {
		return map[string]any{"d": in["c"].(int) * 2}, nil
	})
	p, err := pipeline.New([]any{f1, f2})
	if err != nil {
		t.Fatalf("pipeline.New() error = %v", err)
	}

	cat := catalog.NewMemoryCatalog()
	if err := cat.Save("a", 2); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := cat.Save("b", 3); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := cat.Add("d"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	r := NewSequentialRunner(nil, nil, nil, nil)
	outputs, err := RunOnlyMissing(context.Background(), r, p, cat, Options{})
	if err != nil {
		t.Fatalf("RunOnlyMissing() error = %v", err)
	}
	if outputs["d"].(int) != 10 {
		t.Errorf("expected d = 10, got %v", outputs["d"])
	}
}

func TestRunNode_SavesDeclaredOutputsByLiteralName(t *testing.T) {
	n := node.New("double", []string{"in"}, []string{"out"}, func(in map[string]any) (map[string]any, error) {
		return map[string]any{"out": in["in"].(int) * 2}, nil
	})
	cat := catalog.NewMemoryCatalog()
	if err := cat.Save("in", 21); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := RunNode(n, cat); err != nil {
		t.Fatalf("RunNode() error = %v", err)
	}

	value, err := cat.Load("out")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if value.(int) != 42 {
		t.Errorf("expected out = 42, got %v", value)
	}
}

func TestRunNode_WrapsNodeFailure(t *testing.T) {
	boom := errors.New("boom")
	n := node.New("fails", nil, nil, func(in map[string]any) (map[string]any, error) {
		return nil, boom
	})
	cat := catalog.NewMemoryCatalog()

	err := RunNode(n, cat)
	if err == nil {
		t.Fatal("expected an error")
	}
	var nodeErr *NodeExecutionError
	if !errors.As(err, &nodeErr) {
		t.Fatalf("expected *NodeExecutionError, got %T", err)
	}
	if nodeErr.NodeName != "fails" {
		t.Errorf("expected NodeName = fails, got %q", nodeErr.NodeName)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected Unwrap() to expose the original cause")
	}
}

func TestParallelRunner_DiamondPipeline(t *testing.T) {
	p := diamondPipeline(t)
	cat := catalog.NewMemoryCatalog()
	if err := cat.Save("x", 5); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	r := NewParallelRunner(nil, nil, nil, nil)
	outputs, err := Run(context.Background(), r, p, cat, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outputs["y"].(int) != 16 {
		t.Errorf("expected y = 16, got %v", outputs["y"])
	}
}

func TestParallelRunner_FirstErrorCancelsLayer(t *testing.T) {
	ok := node.New("ok", []string{"x"}, []string{"a"}, func(in map[string]any) (map[string]any, error) {
		return map[string]any{"a": 1}, nil
	})
	fails := node.New("fails", []string{"x"}, []string{"b"}, func(in map[string]any) (map[string]any, error) {
		return nil, errors.New("node blew up")
	})
	merge := node.New("merge", []string{"a", "b"}, []string{"y"}, func(in map[string]any) (map[string]any, error) {
		return map[string]any{"y": 1}, nil
	})
	p, err := pipeline.New([]any{ok, fails, merge})
	if err != nil {
		t.Fatalf("pipeline.New() error = %v", err)
	}

	cat := catalog.NewMemoryCatalog()
	if err := cat.Save("x", 1); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	r := NewParallelRunner(nil, nil, nil, nil)
	_, err = Run(context.Background(), r, p, cat, Options{})
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	var nodeErr *NodeExecutionError
	if !errors.As(err, &nodeErr) {
		t.Fatalf("expected *NodeExecutionError, got %T: %v", err, err)
	}
}
