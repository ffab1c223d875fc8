package source

import (
	"context"

	"github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/pipeline"
)

// Static serves a fixed list of records. Entries may carry a per-record
// error, which is reported in place of a record when the stream reaches it.
type Static struct {
	entries []staticEntry
}

type staticEntry struct {
	rec identity.SourceRecord
	err error
}

// NewStatic creates a source over recs.
func NewStatic(recs ...identity.SourceRecord) *Static {
	s := &Static{}
	for _, r := range recs {
		s.entries = append(s.entries, staticEntry{rec: r})
	}
	return s
}

// WithError appends a stream position that yields err instead of a record.
func (s *Static) WithError(err error) *Static {
	s.entries = append(s.entries, staticEntry{err: err})
	return s
}

// Produce returns a fresh iterator over the records.
func (s *Static) Produce(ctx context.Context) (pipeline.Iterator[identity.SourceRecord], error) {
	return pipeline.Map(pipeline.FromSlice(s.entries), func(ctx context.Context, e staticEntry) (identity.SourceRecord, error) {
		if err := ctx.Err(); err != nil {
			return identity.SourceRecord{}, err
		}
		return e.rec, e.err
	}).Iter(ctx), nil
}

// LookupOne matches key against login names first, then identity keys.
func (s *Static) LookupOne(_ context.Context, key string) (identity.SourceRecord, error) {
	for _, e := range s.entries {
		if e.err == nil && e.rec.LoginName == key {
			return e.rec, nil
		}
	}
	for _, e := range s.entries {
		if e.err == nil && e.rec.IdentityKey == key {
			return e.rec, nil
		}
	}
	return identity.SourceRecord{}, errors.NotFound("source record", key)
}
