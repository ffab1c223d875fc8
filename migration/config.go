package migration

import (
	"time"

	"github.com/kbukum/idmigrate/validation"
)

// Defaults.
const (
	DefaultWorkers           = 8
	DefaultQueueCapacity     = 40
	DefaultCompletionTimeout = 60 * time.Minute
)

// Config tunes a migration run.
type Config struct {
	// MaxRecords caps the records produced in one run. Zero means unlimited.
	MaxRecords int `mapstructure:"max_records" validate:"min=0"`

	// DryRun reads and converts without writing to the store.
	DryRun bool `mapstructure:"dry_run"`

	// PrintCredentials adds the source credential and the new hash to the
	// per-record log line.
	PrintCredentials bool `mapstructure:"print_credentials"`

	// Workers is the number of concurrent record workers.
	Workers int `mapstructure:"workers" validate:"min=1"`

	// QueueCapacity bounds the relay between the reader and the workers.
	QueueCapacity int `mapstructure:"queue_capacity" validate:"min=1"`

	// CompletionTimeout bounds the wait for workers once the stream ends.
	CompletionTimeout time.Duration `mapstructure:"completion_timeout" validate:"min=0"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.CompletionTimeout == 0 {
		c.CompletionTimeout = DefaultCompletionTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
