package pipeline

import "context"

type itemKind uint8

const (
	itemWork itemKind = iota + 1
	itemStop
)

// Item is one relay slot: either Work carrying a value or a Stop marker.
// The zero Item is neither and is never produced by Work or Stop.
type Item[T any] struct {
	kind  itemKind
	value T
}

// Work wraps v for delivery to a consumer.
func Work[T any](v T) Item[T] {
	return Item[T]{kind: itemWork, value: v}
}

// Stop returns the termination marker. A consumer that takes it exits
// without processing it and never puts it back.
func Stop[T any]() Item[T] {
	return Item[T]{kind: itemStop}
}

// IsStop reports whether the item is the termination marker.
func (i Item[T]) IsStop() bool { return i.kind == itemStop }

// Value returns the carried value and whether the item is Work.
func (i Item[T]) Value() (T, bool) {
	return i.value, i.kind == itemWork
}

// Relay is a bounded FIFO between one producer and a pool of consumers.
// Put blocks while the relay is full, Take blocks while it is empty. An
// accepted item is never dropped.
type Relay[T any] struct {
	ch chan Item[T]
}

// NewRelay creates a relay holding at most capacity items (minimum 1).
func NewRelay[T any](capacity int) *Relay[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Relay[T]{ch: make(chan Item[T], capacity)}
}

// Put enqueues item, blocking while the relay is full. It returns false
// without enqueuing when abandon is closed or ctx is done first; a nil
// abandon channel never fires.
func (r *Relay[T]) Put(ctx context.Context, item Item[T], abandon <-chan struct{}) bool {
	select {
	case r.ch <- item:
		return true
	case <-abandon:
		return false
	case <-ctx.Done():
		return false
	}
}

// Take dequeues the oldest item, blocking while the relay is empty. It
// returns false when ctx is done first.
func (r *Relay[T]) Take(ctx context.Context) (Item[T], bool) {
	select {
	case item := <-r.ch:
		return item, true
	case <-ctx.Done():
		return Item[T]{}, false
	}
}

// Len returns the number of queued items.
func (r *Relay[T]) Len() int { return len(r.ch) }

// Cap returns the relay capacity.
func (r *Relay[T]) Cap() int { return cap(r.ch) }
