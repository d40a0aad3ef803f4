package node

import (
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	n := New("flaky", nil, []string{"out"}, func(map[string]any) (map[string]any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		return map[string]any{"out": calls}, nil
	})

	decorated := n.WithDecorators(Retry(5, time.Microsecond))
	outputs, err := decorated.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if outputs["out"] != 3 {
		t.Fatalf("outputs = %v, want out=3", outputs)
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	n := New("broken", nil, []string{"out"}, func(map[string]any) (map[string]any, error) {
		calls++
		return nil, errors.New("permanent")
	})

	decorated := n.WithDecorators(Retry(3, time.Microsecond))
	if _, err := decorated.Run(nil); err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetry_DisabledBelowOneAttemptRunsOnce(t *testing.T) {
	calls := 0
	n := New("once", nil, []string{"out"}, func(map[string]any) (map[string]any, error) {
		calls++
		return nil, errors.New("fails")
	})

	decorated := n.WithDecorators(Retry(0, time.Microsecond))
	if _, err := decorated.Run(nil); err == nil {
		t.Fatal("expected the underlying error to propagate")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (retry disabled)", calls)
	}
}
