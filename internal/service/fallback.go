package service

import (
	"context"
	"fmt"
	"log"

	"github.com/pageza/foodflow/backend/internal/types"
)

// Result is the outcome of an AI-backed computation. Err records why the
// fallback was used and is never meant to reach a handler.
type Result[T any] struct {
	Value  T
	Source types.Source
	Err    error
}

// WithFallback runs compute and substitutes fallback() when compute fails or
// panics. The failure is logged and kept in Result.Err.
func WithFallback[T any](ctx context.Context, name string, compute func(context.Context) (T, types.Source, error), fallback func() T) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			log.Printf("AI %s failed, using fallback: %v", name, err)
			res = Result[T]{Value: fallback(), Source: types.SourceFallback, Err: err}
		}
	}()

	value, source, err := compute(ctx)
	if err != nil {
		log.Printf("AI %s failed, using fallback: %v", name, err)
		return Result[T]{Value: fallback(), Source: types.SourceFallback, Err: err}
	}
	if source == "" {
		source = types.SourceAI
	}
	return Result[T]{Value: value, Source: source}
}
