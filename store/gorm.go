package store

import (
	"context"
	"fmt"

	"github.com/kbukum/idmigrate/database"
	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/logger"
)

const resource = "user identity"

// GormStore stores identities in the user_identity table.
type GormStore struct {
	db  *database.DB
	log *logger.Logger
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store on db. The schema must already exist; see
// NewSchemaMigrator.
func NewGormStore(db *database.DB, log *logger.Logger) *GormStore {
	return &GormStore{db: db, log: log.WithComponent("store")}
}

// Exists reports whether a row with uid identityKey exists.
func (s *GormStore) Exists(ctx context.Context, identityKey string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&UserIdentity{}).Where("uid = ?", identityKey).Count(&n).Error
	if err != nil {
		return false, database.FromDatabase(err, resource)
	}
	return n > 0, nil
}

// Upsert inserts rec. Both the primary key and the username index can
// reject the row; the two cases are told apart by looking the key up.
func (s *GormStore) Upsert(ctx context.Context, rec identity.DestinationRecord) error {
	err := s.db.WithContext(ctx).Create(fromRecord(rec)).Error
	if err == nil {
		return nil
	}
	if !database.IsDuplicateError(err) {
		return database.FromDatabase(err, resource)
	}

	exists, lookupErr := s.Exists(ctx, rec.IdentityKey)
	if lookupErr != nil {
		return lookupErr
	}
	if exists {
		return apperrors.AlreadyExists(resource).
			WithCause(err).
			WithDetail(logger.FieldIdentityKey, rec.IdentityKey)
	}

	s.log.Debug("Login name taken by another identity", logger.RecordFields(rec.IdentityKey, rec.LoginName))
	return apperrors.Conflict(fmt.Sprintf("login name %q is already used by another identity", rec.LoginName)).
		WithCause(err).
		WithDetail(logger.FieldIdentityKey, rec.IdentityKey).
		WithDetail(logger.FieldLoginName, rec.LoginName)
}

// ListAll returns every row ordered by uid.
func (s *GormStore) ListAll(ctx context.Context) ([]identity.DestinationRecord, error) {
	var rows []UserIdentity
	if err := s.db.WithContext(ctx).Order("uid").Find(&rows).Error; err != nil {
		return nil, database.FromDatabase(err, resource)
	}

	out := make([]identity.DestinationRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toRecord())
	}
	return out, nil
}

// Count returns the number of stored identities.
func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&UserIdentity{}).Count(&n).Error; err != nil {
		return 0, database.FromDatabase(err, resource)
	}
	return n, nil
}
