package pipeline

import "context"

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	// A non-nil error describes the current position only; callers may keep
	// calling Next when the error is recoverable.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Pipeline is a lazy chain of stages. Nothing is read until the Iterator
// returned by Iter is pulled.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// From wraps an existing Iterator. The resulting pipeline can be iterated once.
func From[T any](iter Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{create: func(context.Context) Iterator[T] { return iter }}
}

// FromSlice streams items in order. Each Iter call starts from the beginning.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{create: func(context.Context) Iterator[T] { return &sliceIter[T]{items: items} }}
}

// NewIterator adapts a next function and an optional closer to Iterator.
// After Close, Next reports exhaustion without calling next.
func NewIterator[T any](next func(ctx context.Context) (T, bool, error), closer func() error) Iterator[T] {
	return &funcIter[T]{next: next, closer: closer}
}

// Iter returns the stream. The caller must Close it.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.create(ctx)
}

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type funcIter[T any] struct {
	next   func(ctx context.Context) (T, bool, error)
	closer func() error
	closed bool
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) {
	if it.closed {
		var zero T
		return zero, false, nil
	}
	return it.next(ctx)
}

func (it *funcIter[T]) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	if it.closer != nil {
		return it.closer()
	}
	return nil
}
