package credential

import (
	"github.com/kbukum/idmigrate/validation"
)

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 12

// Config configures password hashing.
type Config struct {
	// Pepper is appended to every plaintext password before hashing.
	Pepper string `yaml:"pepper" mapstructure:"pepper"`

	// BcryptCost is the bcrypt work factor (default: 12, range: 4-31).
	BcryptCost int `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BcryptCost == 0 {
		c.BcryptCost = DefaultBcryptCost
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// NewHasher builds the configured hasher.
func NewHasher(cfg Config) (*BcryptHasher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewBcryptHasher(WithCost(cfg.BcryptCost), WithPepper(cfg.Pepper)), nil
}
