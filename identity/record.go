package identity

import (
	"github.com/kbukum/idmigrate/credential"
	"github.com/kbukum/idmigrate/errors"
)

// CredentialKind says which form a source credential takes.
type CredentialKind int

const (
	CredentialNone CredentialKind = iota
	CredentialPlaintext
	CredentialHashed
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialPlaintext:
		return "plaintext"
	case CredentialHashed:
		return "hashed"
	default:
		return "none"
	}
}

// Credential holds either a plaintext password or an existing bcrypt hash,
// never both.
type Credential struct {
	Kind  CredentialKind
	Value string
}

// Plaintext returns a credential that must be hashed before storage.
func Plaintext(password string) Credential {
	if password == "" {
		return Credential{}
	}
	return Credential{Kind: CredentialPlaintext, Value: password}
}

// Hashed returns a credential that is stored unchanged.
func Hashed(hash string) Credential {
	if hash == "" {
		return Credential{}
	}
	return Credential{Kind: CredentialHashed, Value: hash}
}

// ParseCredential classifies a raw directory value. Bcrypt hashes pass
// through; values tagged with another hash scheme cannot be verified by the
// destination and are rejected as a record error.
func ParseCredential(raw string) (Credential, error) {
	switch {
	case raw == "":
		return Credential{}, nil
	case credential.IsHashed(raw):
		return Hashed(raw), nil
	case credential.HasSchemePrefix(raw):
		return Credential{}, errors.SourceRecord("", "unsupported password hash scheme")
	default:
		return Plaintext(raw), nil
	}
}

// String hides the value so a credential never lands in a log by accident.
func (c Credential) String() string {
	if c.Kind == CredentialNone {
		return "none"
	}
	return c.Kind.String() + "(redacted)"
}

// SourceRecord is one identity as read from the directory.
type SourceRecord struct {
	IdentityKey string
	LoginName   string
	FirstName   string
	LastName    string
	Email       string
	CellPhone   string
	PersonRef   string
	Credential  Credential
}

// DestinationRecord is one identity as stored in the relational sink.
// PasswordHash is always a bcrypt hash, or empty when the source had no
// credential.
type DestinationRecord struct {
	IdentityKey  string
	LoginName    string
	FirstName    string
	LastName     string
	Email        string
	CellPhone    string
	PersonRef    string
	PasswordHash string
}
