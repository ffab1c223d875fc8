package store

import (
	"time"

	"github.com/kbukum/idmigrate/identity"
)

// UserIdentity is the user_identity row.
type UserIdentity struct {
	UID          string    `gorm:"column:uid;primaryKey;size:64"`
	Username     string    `gorm:"column:username;size:64;not null;uniqueIndex:idx_user_identity_username"`
	FirstName    string    `gorm:"column:first_name;size:255"`
	LastName     string    `gorm:"column:last_name;size:255"`
	Email        string    `gorm:"column:email;size:255"`
	CellPhone    string    `gorm:"column:cell_phone;size:64"`
	PersonRef    string    `gorm:"column:person_ref;size:255"`
	PasswordHash string    `gorm:"column:password_hash;size:60"`
	MigratedAt   time.Time `gorm:"column:migrated_at;autoCreateTime"`
}

// TableName pins the table name used by the SQL migrations.
func (UserIdentity) TableName() string { return "user_identity" }

func fromRecord(rec identity.DestinationRecord) *UserIdentity {
	return &UserIdentity{
		UID:          rec.IdentityKey,
		Username:     rec.LoginName,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		Email:        rec.Email,
		CellPhone:    rec.CellPhone,
		PersonRef:    rec.PersonRef,
		PasswordHash: rec.PasswordHash,
	}
}

func (u *UserIdentity) toRecord() identity.DestinationRecord {
	return identity.DestinationRecord{
		IdentityKey:  u.UID,
		LoginName:    u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		CellPhone:    u.CellPhone,
		PersonRef:    u.PersonRef,
		PasswordHash: u.PasswordHash,
	}
}
