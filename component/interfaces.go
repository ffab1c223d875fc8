package component

import "context"

// HealthStatus is the state a component reports in the run summary.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"

	// StatusDegraded means usable but saturated, e.g. no free pool connections.
	StatusDegraded HealthStatus = "degraded"
)

// Health is one component's status line.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is infrastructure started before a run and stopped after it:
// the destination database, the Redis client and the telemetry exporters.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a component's line in the infrastructure section of the
// run summary.
type Description struct {
	// Name defaults to the component's Name() when empty.
	Name    string
	Type    string
	Details string
}

// Describable is implemented by components that appear in the run summary.
type Describable interface {
	Describe() Description
}
