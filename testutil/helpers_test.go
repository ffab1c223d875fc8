package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/idmigrate/component"
	"github.com/kbukum/idmigrate/testutil"
)

type mockComponent struct {
	name        string
	started     bool
	resetCalled bool
	startErr    error
	log         *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	if m.log != nil {
		*m.log = append(*m.log, "start:"+m.name)
	}
	return nil
}

func (m *mockComponent) Stop(ctx context.Context) error {
	m.started = false
	if m.log != nil {
		*m.log = append(*m.log, "stop:"+m.name)
	}
	return nil
}

func (m *mockComponent) Health(ctx context.Context) component.Health {
	return component.Health{Name: m.name, Status: component.StatusHealthy}
}

func (m *mockComponent) Reset(ctx context.Context) error {
	m.resetCalled = true
	return nil
}

var _ testutil.TestComponent = (*mockComponent)(nil)

func TestSetup(t *testing.T) {
	mock := &mockComponent{name: "db"}

	cleanup, err := testutil.Setup(context.Background(), mock)
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	if !mock.started {
		t.Error("expected component to be started")
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if mock.started {
		t.Error("expected component to be stopped after cleanup")
	}
}

func TestSetup_StartError(t *testing.T) {
	mock := &mockComponent{name: "db", startErr: errors.New("boom")}

	cleanup, err := testutil.Setup(context.Background(), mock)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if cleanup != nil {
		t.Error("expected nil cleanup on error")
	}
}

func TestTHelper_SetupStopsInReverseOrder(t *testing.T) {
	var events []string
	a := &mockComponent{name: "a", log: &events}
	b := &mockComponent{name: "b", log: &events}

	t.Run("inner", func(t *testing.T) {
		testutil.T(t).Setup(a, b)
		testutil.T(t).Reset(a)
		if !a.resetCalled {
			t.Error("expected Reset to be called")
		}
	})

	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], events[i])
		}
	}
}
