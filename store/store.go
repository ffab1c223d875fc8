package store

import (
	"context"

	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
)

// ErrDuplicateKey matches, via errors.Is, the error Upsert returns when the
// identity key is already stored. Its kind is Skip.
var ErrDuplicateKey = apperrors.AlreadyExists("user identity")

// Store is the relational destination. Implementations must be safe for
// concurrent use.
type Store interface {
	// Exists reports whether identityKey is already stored.
	Exists(ctx context.Context, identityKey string) (bool, error)

	// Upsert inserts rec. A stored identity key yields ErrDuplicateKey;
	// any other unique violation is a CONFLICT.
	Upsert(ctx context.Context, rec identity.DestinationRecord) error

	// ListAll returns every stored record ordered by identity key.
	ListAll(ctx context.Context) ([]identity.DestinationRecord, error)
}
