package node

import (
	"fmt"
	"time"
)

// Retry returns a Decorator that re-invokes the wrapped RunFunc on failure,
// waiting backoff*2^(attempt-1) between attempts, up to maxAttempts total
// tries. maxAttempts <= 1 disables retrying: the RunFunc runs once and
// whatever error it returns is returned as-is.
//
// Unlike a node that merely inspects a previous result for an error marker,
// this re-executes the node's own computation on the same inputs, which is
// only safe for idempotent nodes; callers composing this with side
// effecting nodes should account for repeated effects.
func Retry(maxAttempts int, backoff time.Duration) Decorator {
	return func(next RunFunc) RunFunc {
		return func(inputs map[string]any) (map[string]any, error) {
			if maxAttempts <= 1 {
				return next(inputs)
			}

			var lastErr error
			delay := backoff
			for attempt := 1; attempt <= maxAttempts; attempt++ {
				outputs, err := next(inputs)
				if err == nil {
					return outputs, nil
				}
				lastErr = err

				if attempt == maxAttempts {
					break
				}
				if delay > 0 {
					time.Sleep(delay)
				}
				delay *= 2
			}
			return nil, fmt.Errorf("retry: giving up after %d attempt(s): %w", maxAttempts, lastErr)
		}
	}
}
