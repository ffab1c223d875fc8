package main

import (
	"fmt"

	"github.com/kbukum/idmigrate/claim"
	"github.com/kbukum/idmigrate/config"
	"github.com/kbukum/idmigrate/credential"
	"github.com/kbukum/idmigrate/database"
	"github.com/kbukum/idmigrate/migration"
	"github.com/kbukum/idmigrate/observability"
	"github.com/kbukum/idmigrate/redis"
	"github.com/kbukum/idmigrate/source/csv"
	"github.com/kbukum/idmigrate/source/ldap"
	"github.com/kbukum/idmigrate/version"
)

const serviceName = "idmigrate"

// Source types.
const (
	sourceLDAP = "ldap"
	sourceCSV  = "csv"
)

// SourceConfig selects the directory records are read from.
type SourceConfig struct {
	Type string      `yaml:"type" mapstructure:"type"`
	LDAP ldap.Config `yaml:"ldap" mapstructure:"ldap"`
	CSV  csv.Config  `yaml:"csv" mapstructure:"csv"`
}

// AppConfig is the full idmigrate configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Source        SourceConfig         `yaml:"source" mapstructure:"source"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Credential    credential.Config    `yaml:"credential" mapstructure:"credential"`
	Migration     migration.Config     `yaml:"migration" mapstructure:"migration"`
	Claim         claim.Config         `yaml:"claim" mapstructure:"claim"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Source.Type == "" {
		c.Source.Type = sourceLDAP
	}
	switch c.Source.Type {
	case sourceLDAP:
		c.Source.LDAP.ApplyDefaults()
	case sourceCSV:
		c.Source.CSV.ApplyDefaults()
	}
	c.Database.ApplyDefaults()
	c.Credential.ApplyDefaults()
	c.Migration.ApplyDefaults()
	c.Claim.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section and the rules that span sections.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}

	switch c.Source.Type {
	case sourceLDAP:
		if err := c.Source.LDAP.Validate(); err != nil {
			return fmt.Errorf("config.source.ldap: %w", err)
		}
	case sourceCSV:
		if err := c.Source.CSV.Validate(); err != nil {
			return fmt.Errorf("config.source.csv: %w", err)
		}
	default:
		return fmt.Errorf("config.source.type must be one of [%s %s] (got: %s)", sourceLDAP, sourceCSV, c.Source.Type)
	}

	sections := []struct {
		name     string
		validate func() error
	}{
		{"database", c.Database.Validate},
		{"credential", c.Credential.Validate},
		{"migration", c.Migration.Validate},
		{"claim", c.Claim.Validate},
		{"redis", c.Redis.Validate},
		{"observability", c.Observability.Validate},
	}
	for _, s := range sections {
		if err := s.validate(); err != nil {
			return fmt.Errorf("config.%s: %w", s.name, err)
		}
	}

	if c.Claim.Backend == claim.BackendRedis && !c.Redis.Enabled {
		return fmt.Errorf("config.claim.backend %q requires redis.enabled", claim.BackendRedis)
	}
	return nil
}

// loadConfig reads config.yml, .env and IDMIGRATE_* variables. path
// overrides the config file search.
func loadConfig(path string) (*AppConfig, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.GetVersionInfo().Short()
	}
	return cfg, nil
}
