package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Forwarder is a stage result. Forward returns the path handed to the next
// stage: the artifact itself for single-file results, the first element for
// multi-file results.
type Forwarder interface {
	Forward() string
}

// Path is a single-file stage result.
type Path string

func (p Path) Forward() string { return string(p) }

// Tuple is a multi-file stage result; only its first element is forwarded.
type Tuple []string

func (t Tuple) Forward() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Stage transforms an input path into a result.
type Stage[T Forwarder] func(ctx context.Context, input string) (T, error)

// Chain composes stages so that each receives the forwarded path of the
// previous result. The returned function yields every stage result in order.
// It stops at the first failing stage, returning the results gathered so far.
func Chain[T Forwarder](stages ...Stage[T]) func(ctx context.Context, input string) ([]T, error) {
	return func(ctx context.Context, input string) ([]T, error) {
		if len(stages) == 0 {
			return nil, errors.New("chain requires at least one stage")
		}
		results := make([]T, 0, len(stages))
		next := input
		for i, stage := range stages {
			res, err := stage(ctx, next)
			if err != nil {
				return results, fmt.Errorf("chain stage %d: %w", i, err)
			}
			results = append(results, res)
			next = res.Forward()
		}
		return results, nil
	}
}
