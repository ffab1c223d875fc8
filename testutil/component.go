package testutil

import (
	"context"

	"github.com/kbukum/idmigrate/component"
)

// TestComponent extends component.Component with a Reset used between
// test cases. Test components can also be registered in a component.Registry.
type TestComponent interface {
	component.Component

	// Reset restores the component to its freshly started state.
	Reset(ctx context.Context) error
}
