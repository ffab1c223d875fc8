package migration

import (
	"sync/atomic"
	"time"
)

// RunState is the coordinator's position in a run.
type RunState int32

const (
	StateStarting RunState = iota
	StateStreaming
	StateDraining
	StateCompleted
)

func (s RunState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// State is shared by the coordinator and its workers for one run. All
// fields are atomics; the stop flag is set once and keeps the first cause.
type State struct {
	phase        atomic.Int32
	produced     atomic.Int64
	dequeued     atomic.Int64
	written      atomic.Int64
	skipped      atomic.Int64
	sourceErrors atomic.Int64
	markersSent  atomic.Int64

	stopped atomic.Bool
	cause   atomic.Pointer[error]
	stopCh  chan struct{}

	barrier *Barrier
}

// NewState creates the state for a run with the given number of workers.
func NewState(workers int) *State {
	return &State{
		stopCh:  make(chan struct{}),
		barrier: NewBarrier(workers),
	}
}

// Phase returns the coordinator's current state.
func (s *State) Phase() RunState { return RunState(s.phase.Load()) }

func (s *State) setPhase(p RunState) { s.phase.Store(int32(p)) }

// Stop sets the stop flag. Only the first call records its cause and
// returns true.
func (s *State) Stop(cause error) bool {
	if !s.stopped.CompareAndSwap(false, true) {
		return false
	}
	s.cause.Store(&cause)
	close(s.stopCh)
	return true
}

// Stopped reports whether the stop flag is set.
func (s *State) Stopped() bool { return s.stopped.Load() }

// StopC is closed when the stop flag is set.
func (s *State) StopC() <-chan struct{} { return s.stopCh }

// Cause returns the error that set the stop flag, if any.
func (s *State) Cause() error {
	if p := s.cause.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *State) Produced() int64 { return s.produced.Load() }
func (s *State) Dequeued() int64 { return s.dequeued.Load() }
func (s *State) Written() int64 { return s.written.Load() }
func (s *State) Skipped() int64 { return s.skipped.Load() }
func (s *State) SourceErrors() int64 { return s.sourceErrors.Load() }
func (s *State) MarkersSent() int64 { return s.markersSent.Load() }

// Barrier returns the worker completion barrier.
func (s *State) Barrier() *Barrier { return s.barrier }

// Barrier counts down once per exiting worker and closes its channel at zero.
type Barrier struct {
	remaining atomic.Int64
	done      chan struct{}
}

// NewBarrier creates a barrier expecting n Done calls.
func NewBarrier(n int) *Barrier {
	b := &Barrier{done: make(chan struct{})}
	b.remaining.Store(int64(n))
	if n <= 0 {
		close(b.done)
	}
	return b
}

// Done counts one party out. Calls past zero are ignored.
func (b *Barrier) Done() {
	if b.remaining.Add(-1) == 0 {
		close(b.done)
	}
}

// Remaining returns how many parties have not called Done.
func (b *Barrier) Remaining() int64 {
	if n := b.remaining.Load(); n > 0 {
		return n
	}
	return 0
}

// C is closed when the count reaches zero.
func (b *Barrier) C() <-chan struct{} { return b.done }

// Wait blocks until the count reaches zero or timeout elapses, and reports
// whether the count reached zero. A non-positive timeout waits forever.
func (b *Barrier) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-b.done
		return true
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-b.done:
		return true
	case <-t.C:
		return false
	}
}
