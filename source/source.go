package source

import (
	"context"

	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/pipeline"
)

// Source is the directory identities are migrated from. Implementations must
// be safe for concurrent use; each Produce call owns its own iterator.
type Source interface {
	// Produce starts a new pass. A connection failure is returned here,
	// before any record is read.
	Produce(ctx context.Context) (pipeline.Iterator[identity.SourceRecord], error)

	// LookupOne finds a single record by login name or identity key, in that
	// order. A miss is a NOT_FOUND AppError.
	LookupOne(ctx context.Context, key string) (identity.SourceRecord, error)
}

// Closer is implemented by sources holding long-lived resources.
type Closer interface {
	Close() error
}
