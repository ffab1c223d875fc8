package migration

import (
	"errors"
	"testing"
	"time"
)

func TestState_StopKeepsFirstCause(t *testing.T) {
	s := NewState(2)
	first := errors.New("first")

	if s.Stopped() {
		t.Fatal("expected a fresh state to be running")
	}
	if !s.Stop(first) {
		t.Error("expected the first Stop to win")
	}
	if s.Stop(errors.New("second")) {
		t.Error("expected the second Stop to lose")
	}
	if !errors.Is(s.Cause(), first) {
		t.Errorf("expected cause %v, got %v", first, s.Cause())
	}
	select {
	case <-s.StopC():
	default:
		t.Error("expected StopC to be closed")
	}
}

func TestState_Phase(t *testing.T) {
	s := NewState(1)
	if s.Phase() != StateStarting {
		t.Errorf("expected %v, got %v", StateStarting, s.Phase())
	}
	s.setPhase(StateDraining)
	if s.Phase().String() != "draining" {
		t.Errorf("expected draining, got %s", s.Phase())
	}
}

func TestBarrier(t *testing.T) {
	b := NewBarrier(3)
	for i := 0; i < 2; i++ {
		b.Done()
	}
	if b.Remaining() != 1 {
		t.Errorf("expected 1 remaining, got %d", b.Remaining())
	}
	if b.Wait(10 * time.Millisecond) {
		t.Error("expected Wait to time out with a party outstanding")
	}

	b.Done()
	if !b.Wait(time.Second) {
		t.Error("expected Wait to return once all parties are done")
	}

	// Extra calls must not panic on a closed channel.
	b.Done()
	if b.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", b.Remaining())
	}
}

func TestBarrier_Zero(t *testing.T) {
	b := NewBarrier(0)
	select {
	case <-b.C():
	default:
		t.Error("expected a zero barrier to be released")
	}
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Workers != DefaultWorkers {
		t.Errorf("expected %d workers, got %d", DefaultWorkers, cfg.Workers)
	}
	if cfg.QueueCapacity != DefaultQueueCapacity {
		t.Errorf("expected capacity %d, got %d", DefaultQueueCapacity, cfg.QueueCapacity)
	}
	if cfg.CompletionTimeout != time.Hour {
		t.Errorf("expected 1h completion timeout, got %v", cfg.CompletionTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative workers", Config{Workers: -1, QueueCapacity: 1}},
		{"negative capacity", Config{Workers: 1, QueueCapacity: -4}},
		{"negative limit", Config{Workers: 1, QueueCapacity: 1, MaxRecords: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestOutcome_String(t *testing.T) {
	if OutcomeSucceeded.String() != "succeeded" {
		t.Errorf("expected succeeded, got %s", OutcomeSucceeded)
	}
	if OutcomeAborted.String() != "aborted" {
		t.Errorf("expected aborted, got %s", OutcomeAborted)
	}
}
