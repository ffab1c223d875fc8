package claim

import (
	"context"
	"sync"

	"github.com/kbukum/idmigrate/component"
)

// Memory is a process-local Claimer.
type Memory struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

var _ Claimer = (*Memory)(nil)
var _ component.Describable = (*Memory)(nil)

// NewMemory creates an empty in-memory claimer.
func NewMemory() *Memory {
	return &Memory{claimed: make(map[string]struct{})}
}

// Claim records key and reports whether it was unclaimed.
func (m *Memory) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.claimed[key]; ok {
		return false, nil
	}
	m.claimed[key] = struct{}{}
	return true, nil
}

// Release forgets key.
func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, key)
	return nil
}

// Len returns the number of live claims.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.claimed)
}

// Describe returns summary info for the run summary.
func (m *Memory) Describe() component.Description {
	return component.Description{Name: "Claims", Type: BackendMemory, Details: "process-local"}
}
