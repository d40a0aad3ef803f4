// Command pipelinedemo assembles a small pipeline, runs it, and prints its
// execution order and JSON export.
//
// Usage:
//
//	pipelinedemo [flags]
//
// Flags:
//
//	-parallel
//	    Use the parallel runner instead of the sequential one (default false)
//	-max-concurrency int
//	    Layer fan-out bound for the parallel runner (default 0, unbounded)
//
// Example:
//
//	# Run sequentially and print the execution report
//	pipelinedemo
//
//	# Run with bounded parallel fan-out
//	pipelinedemo -parallel -max-concurrency 2
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lattice-data/pipeline/pkg/catalog"
	"github.com/lattice-data/pipeline/pkg/config"
	"github.com/lattice-data/pipeline/pkg/logging"
	"github.com/lattice-data/pipeline/pkg/node"
	"github.com/lattice-data/pipeline/pkg/observer"
	"github.com/lattice-data/pipeline/pkg/pipeline"
	"github.com/lattice-data/pipeline/pkg/runner"
)

func main() {
	parallel := flag.Bool("parallel", false, "use the parallel runner")
	maxConcurrency := flag.Int("max-concurrency", 0, "layer fan-out bound for the parallel runner")
	flag.Parse()

	p, err := buildPipeline()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build pipeline: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.MaxConcurrency = *maxConcurrency

	// count_words and shout are pure functions of raw_text, so retrying
	// them on failure can't make things worse; decorate both with the
	// configured retry policy before running.
	p, err = p.Decorate(node.Retry(cfg.DefaultMaxAttempts, cfg.DefaultBackoff))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to decorate pipeline: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(p.Describe(false))
	fmt.Println()

	exported, err := p.ToJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to export pipeline: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(exported))
	fmt.Println()

	cat := catalog.NewMemoryCatalog()
	if err := cat.Save("raw_text", "Hello, Pipeline World!"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed catalog: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.DefaultConfig())
	observers := observer.NewManagerWithObservers(observer.NewConsoleObserver())

	var r runner.Runner
	if *parallel {
		r = runner.NewParallelRunner(cfg, logger, observers, nil)
	} else {
		r = runner.NewSequentialRunner(cfg, logger, observers, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	outputs, err := runner.Run(ctx, r, p, cat, runner.Options{
		Config: cfg, Logger: logger, Observers: observers,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}

	// Block until the console observer has drained every queued event
	// (including the final run_end) before printing the summary under it.
	observers.Close()

	fmt.Printf("word_count: %v\n", outputs["word_count"])
	fmt.Printf("shout: %v\n", outputs["shout"])
}

func buildPipeline() (*pipeline.Pipeline, error) {
	countWords := node.New("count_words", []string{"raw_text"}, []string{"word_count"},
		func(in map[string]any) (map[string]any, error) {
			text, ok := in["raw_text"].(string)
			if !ok {
				return nil, fmt.Errorf("count_words: expected string input, got %T", in["raw_text"])
			}
			count := 0
			inWord := false
			for _, r := range text {
				if r == ' ' || r == '\n' || r == '\t' {
					inWord = false
					continue
				}
				if !inWord {
					count++
					inWord = true
				}
			}
			return map[string]any{"word_count": count}, nil
		})

	shout := node.New("shout", []string{"raw_text"}, []string{"shout"},
		func(in map[string]any) (map[string]any, error) {
			text, ok := in["raw_text"].(string)
			if !ok {
				return nil, fmt.Errorf("shout: expected string input, got %T", in["raw_text"])
			}
			upper := make([]rune, 0, len(text))
			for _, r := range text {
				if r >= 'a' && r <= 'z' {
					r -= 'a' - 'A'
				}
				upper = append(upper, r)
			}
			return map[string]any{"shout": string(upper)}, nil
		})

	return pipeline.New([]any{countWords.WithTags("text"), shout.WithTags("text")}, pipeline.WithName("text_demo"))
}
