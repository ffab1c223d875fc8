package ldap

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/idmigrate/resilience"
	"github.com/kbukum/idmigrate/security"
	"github.com/kbukum/idmigrate/validation"
)

// Config holds the directory connection and attribute mapping.
type Config struct {
	// URL is the directory address, e.g. "ldap://localhost:389" or "ldaps://dir:636".
	URL string `mapstructure:"url" validate:"required,url"`

	// BindDN and BindPassword authenticate the reader. Empty means anonymous.
	BindDN       string `mapstructure:"bind_dn"`
	BindPassword string `mapstructure:"bind_password"`

	// BaseDN is the search root. Empty searches from the server's root.
	BaseDN string `mapstructure:"base_dn"`

	// Filter selects candidate entries.
	Filter string `mapstructure:"filter" validate:"required"`

	// UIDAttribute holds the identity key.
	UIDAttribute string `mapstructure:"uid_attribute" validate:"required"`

	// UsernameAttribute holds the login name.
	UsernameAttribute string `mapstructure:"username_attribute" validate:"required"`

	// PageSize enables the simple paged results control. 0 disables paging.
	PageSize uint32 `mapstructure:"page_size" validate:"max=10000"`

	// DialTimeout bounds establishing the TCP connection.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`

	// Attributes names the directory attributes of the remaining fields.
	Attributes AttributeMap `mapstructure:"attributes"`

	// StartTLS upgrades a plain ldap:// connection before binding.
	StartTLS bool `mapstructure:"start_tls"`

	// TLS configures certificate checks for ldaps:// and StartTLS.
	TLS security.TLSConfig `mapstructure:"tls"`

	// Retry governs dial and bind attempts.
	Retry resilience.RetryConfig `mapstructure:"retry"`
}

// AttributeMap names the directory attribute of each optional record field.
type AttributeMap struct {
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
	Email     string `mapstructure:"email"`
	CellPhone string `mapstructure:"cell_phone"`
	PersonRef string `mapstructure:"person_ref"`
	Password  string `mapstructure:"password"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Filter == "" {
		c.Filter = "(objectClass=*)"
	}
	if c.UIDAttribute == "" {
		c.UIDAttribute = "uid"
	}
	if c.UsernameAttribute == "" {
		c.UsernameAttribute = "initials"
	}
	if c.PageSize == 0 {
		c.PageSize = 500
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	c.Attributes.applyDefaults()
	c.Retry.ApplyDefaults()
}

func (a *AttributeMap) applyDefaults() {
	if a.FirstName == "" {
		a.FirstName = "givenName"
	}
	if a.LastName == "" {
		a.LastName = "sn"
	}
	if a.Email == "" {
		a.Email = "mail"
	}
	if a.CellPhone == "" {
		a.CellPhone = "mobile"
	}
	if a.PersonRef == "" {
		a.PersonRef = "employeeNumber"
	}
	if a.Password == "" {
		a.Password = "userPassword"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.StartTLS && strings.HasPrefix(strings.ToLower(c.URL), "ldaps://") {
		return fmt.Errorf("start_tls cannot be combined with an ldaps:// url")
	}
	return c.TLS.Validate()
}
