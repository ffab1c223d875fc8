package migration

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/pipeline"
)

// memStore is an in-memory store.Store with an optional hook that runs
// before each insert.
type memStore struct {
	mu   sync.Mutex
	rows map[string]identity.DestinationRecord

	// hideExisting makes Exists always report false, so duplicates reach Upsert.
	hideExisting bool
	beforeUpsert func(ctx context.Context, rec identity.DestinationRecord) error
	upserts      atomic.Int64
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]identity.DestinationRecord)}
}

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	if s.hideExisting {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[key]
	return ok, nil
}

func (s *memStore) Upsert(ctx context.Context, rec identity.DestinationRecord) error {
	s.upserts.Add(1)
	if s.beforeUpsert != nil {
		if err := s.beforeUpsert(ctx, rec); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[rec.IdentityKey]; ok {
		return apperrors.AlreadyExists("user identity")
	}
	s.rows[rec.IdentityKey] = rec
	return nil
}

func (s *memStore) ListAll(_ context.Context) ([]identity.DestinationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]identity.DestinationRecord, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IdentityKey < out[j].IdentityKey })
	return out, nil
}

func (s *memStore) get(key string) (identity.DestinationRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[key]
	return r, ok
}

func (s *memStore) put(rec identity.DestinationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rec.IdentityKey] = rec
}

func (s *memStore) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, key)
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// countingSource serves recs and counts how many the reader has pulled.
type countingSource struct {
	recs  []identity.SourceRecord
	pulls atomic.Int64
}

func (s *countingSource) Produce(_ context.Context) (pipeline.Iterator[identity.SourceRecord], error) {
	i := 0
	return pipeline.NewIterator(func(ctx context.Context) (identity.SourceRecord, bool, error) {
		if i >= len(s.recs) {
			return identity.SourceRecord{}, false, nil
		}
		s.pulls.Add(1)
		r := s.recs[i]
		i++
		return r, true, nil
	}, nil), nil
}

func (s *countingSource) LookupOne(_ context.Context, key string) (identity.SourceRecord, error) {
	return identity.SourceRecord{}, apperrors.NotFound("source record", key)
}

// failingSource cannot connect.
type failingSource struct{}

func (failingSource) Produce(_ context.Context) (pipeline.Iterator[identity.SourceRecord], error) {
	return nil, apperrors.ConnectionFailed("directory")
}

func (failingSource) LookupOne(_ context.Context, _ string) (identity.SourceRecord, error) {
	return identity.SourceRecord{}, apperrors.ConnectionFailed("directory")
}

// grantAll hands out every claim, so duplicates are left to the store.
type grantAll struct{}

func (grantAll) Claim(_ context.Context, _ string) (bool, error) { return true, nil }
func (grantAll) Release(_ context.Context, _ string) error { return nil }
