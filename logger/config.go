package logger

import "github.com/kbukum/idmigrate/validation"

// Config selects the level, encoding and destination of the run log.
type Config struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console text pretty"`

	// Output is stdout, stderr or a file path the run log is appended to.
	Output string `yaml:"output" mapstructure:"output"`

	NoColor   bool `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills empty fields. Timestamps are always on.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	c.Timestamp = true
}

// Validate rejects unknown levels and formats.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
