// Package reactive provides the lazy single-value and stream primitives
// the repository layer hands back to callers. Sources are cold: nothing
// runs until a terminal call, and every terminal call re-invokes the
// producer. Cancellation and timeouts come from the caller's context.
package reactive

import (
	"context"
)

// Single is a deferred computation producing one value or an error.
type Single[T any] struct {
	produce func(ctx context.Context) (T, error)
}

// NewSingle wraps a producer into a Single.
func NewSingle[T any](produce func(ctx context.Context) (T, error)) Single[T] {
	return Single[T]{produce: produce}
}

// Just returns a Single that always yields the given value.
func Just[T any](value T) Single[T] {
	return NewSingle(func(context.Context) (T, error) {
		return value, nil
	})
}

// Get runs the producer and returns its result. A context cancelled
// before the producer starts short-circuits without invoking it.
func (s Single[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return s.produce(ctx)
}

// Stream is a deferred computation producing a sequence of values. The
// producer pushes values through emit; returning an error from emit
// (cancellation, consumer failure) must abort production.
type Stream[T any] struct {
	produce func(ctx context.Context, emit func(T) error) error
}

// NewStream wraps a push-style producer into a Stream.
func NewStream[T any](produce func(ctx context.Context, emit func(T) error) error) Stream[T] {
	return Stream[T]{produce: produce}
}

// FromSliceFunc builds a Stream over a producer that materializes its
// results in one call, such as a database fetch.
func FromSliceFunc[T any](produce func(ctx context.Context) ([]T, error)) Stream[T] {
	return NewStream(func(ctx context.Context, emit func(T) error) error {
		values, err := produce(ctx)
		if err != nil {
			return err
		}
		for _, value := range values {
			if err := emit(value); err != nil {
				return err
			}
		}
		return nil
	})
}

// All drains the stream into a slice.
func (s Stream[T]) All(ctx context.Context) ([]T, error) {
	var values []T
	err := s.ForEach(ctx, func(value T) error {
		values = append(values, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// First returns the first value of the stream and whether one existed.
// Production stops as soon as the first value arrives.
func (s Stream[T]) First(ctx context.Context) (T, bool, error) {
	var first T
	found := false
	err := s.produce(ctx, func(value T) error {
		first = value
		found = true
		return errStopIteration
	})
	if err != nil && err != errStopIteration {
		var zero T
		return zero, false, err
	}
	return first, found, nil
}

// ForEach applies fn to every value in order, stopping at the first
// error from fn or the producer, or when ctx is cancelled.
func (s Stream[T]) ForEach(ctx context.Context, fn func(T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.produce(ctx, func(value T) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(value)
	})
}

// Chan subscribes to the stream and returns a value channel plus an
// error channel that delivers at most one error after the value channel
// closes. Production runs in its own goroutine and stops when ctx is
// cancelled.
func (s Stream[T]) Chan(ctx context.Context) (<-chan T, <-chan error) {
	values := make(chan T)
	errs := make(chan error, 1)

	go func() {
		defer close(values)
		defer close(errs)

		err := s.produce(ctx, func(value T) error {
			select {
			case values <- value:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return values, errs
}

// errStopIteration is an internal sentinel used to abort production
// early; it never escapes the package.
var errStopIteration = stopIteration{}

type stopIteration struct{}

func (stopIteration) Error() string { return "stop iteration" }
