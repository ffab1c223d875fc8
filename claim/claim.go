package claim

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/idmigrate/validation"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Claimer hands out exclusive claims on identity keys so each key is
// processed by one worker, and with a shared backend by one process.
type Claimer interface {
	// Claim reports whether the caller now owns key. False means another
	// worker or process got there first.
	Claim(ctx context.Context, key string) (bool, error)

	// Release gives up a claim the caller owns, so a later run can retry
	// the key. Releasing a key not owned is a no-op.
	Release(ctx context.Context, key string) error
}

// Config selects and tunes the claim backend.
type Config struct {
	// Backend is "memory" (one process) or "redis" (cooperating processes).
	Backend string `mapstructure:"backend" validate:"required,oneof=memory redis"`

	// Namespace prefixes redis keys; processes sharing a namespace share claims.
	Namespace string `mapstructure:"namespace" validate:"required"`

	// TTL bounds how long a redis claim outlives a crashed owner.
	TTL time.Duration `mapstructure:"ttl" validate:"min=0"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Namespace == "" {
		c.Namespace = "idmigrate"
	}
	if c.TTL == 0 {
		c.TTL = 2 * time.Hour
	}
}

// Validate checks the backend name and namespace.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

func (c *Config) keyPrefix() string {
	return fmt.Sprintf("%s:claim:", c.Namespace)
}
