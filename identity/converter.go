package identity

import (
	"github.com/kbukum/idmigrate/credential"
	"github.com/kbukum/idmigrate/errors"
)

// Converter maps source records to destination records. It is safe for
// concurrent use when its Hasher is.
type Converter struct {
	hasher credential.Hasher
}

// NewConverter creates a Converter that hashes plaintext credentials with h.
func NewConverter(h credential.Hasher) *Converter {
	return &Converter{hasher: h}
}

// Convert copies the profile fields and hashes a plaintext credential.
// An existing hash is passed through byte for byte.
func (c *Converter) Convert(rec SourceRecord) (DestinationRecord, error) {
	dst := DestinationRecord{
		IdentityKey: rec.IdentityKey,
		LoginName:   rec.LoginName,
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		Email:       rec.Email,
		CellPhone:   rec.CellPhone,
		PersonRef:   rec.PersonRef,
	}

	switch rec.Credential.Kind {
	case CredentialHashed:
		dst.PasswordHash = rec.Credential.Value
	case CredentialPlaintext:
		hash, err := c.hasher.Hash(rec.Credential.Value)
		if err != nil {
			return DestinationRecord{}, errors.ConversionFailed(rec.IdentityKey, err)
		}
		dst.PasswordHash = hash
	}

	return dst, nil
}

// Matches reports whether dst carries src's credential: a plaintext password
// must verify against the stored hash, an existing hash must be unchanged.
func (c *Converter) Matches(src SourceRecord, dst DestinationRecord) bool {
	switch src.Credential.Kind {
	case CredentialPlaintext:
		return c.hasher.Verify(src.Credential.Value, dst.PasswordHash) == nil
	case CredentialHashed:
		return src.Credential.Value == dst.PasswordHash
	default:
		return dst.PasswordHash == ""
	}
}
