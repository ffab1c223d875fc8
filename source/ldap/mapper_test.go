package ldap

import (
	"testing"

	goldap "github.com/go-ldap/ldap/v3"

	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/security"
)

const bcryptHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func TestMapper_Map(t *testing.T) {
	m := NewMapper(Config{})

	tests := []struct {
		name     string
		attrs    map[string][]string
		wantOK   bool
		wantCode apperrors.ErrorCode
		check    func(t *testing.T, rec identity.SourceRecord)
	}{
		{
			name: "full person",
			attrs: map[string][]string{
				"uid":            {"id1"},
				"initials":       {"userA"},
				"givenName":      {"Ada"},
				"sn":             {"Lovelace"},
				"mail":           {"ada@example.com"},
				"mobile":         {"+4712345678"},
				"employeeNumber": {"E-1"},
				"userPassword":   {"pw1"},
			},
			wantOK: true,
			check: func(t *testing.T, rec identity.SourceRecord) {
				if rec.IdentityKey != "id1" || rec.LoginName != "userA" {
					t.Errorf("expected id1/userA, got %s/%s", rec.IdentityKey, rec.LoginName)
				}
				if rec.FirstName != "Ada" || rec.LastName != "Lovelace" {
					t.Errorf("expected Ada Lovelace, got %s %s", rec.FirstName, rec.LastName)
				}
				if rec.Email != "ada@example.com" || rec.CellPhone != "+4712345678" || rec.PersonRef != "E-1" {
					t.Errorf("unexpected contact fields: %+v", rec)
				}
				if rec.Credential.Kind != identity.CredentialPlaintext || rec.Credential.Value != "pw1" {
					t.Errorf("expected plaintext pw1, got %v", rec.Credential)
				}
			},
		},
		{
			name:   "attribute names are case-insensitive",
			attrs:  map[string][]string{"UID": {"id2"}, "Initials": {"userB"}, "userpassword": {bcryptHash}},
			wantOK: true,
			check: func(t *testing.T, rec identity.SourceRecord) {
				if rec.IdentityKey != "id2" {
					t.Errorf("expected id2, got %s", rec.IdentityKey)
				}
				if rec.Credential.Kind != identity.CredentialHashed || rec.Credential.Value != bcryptHash {
					t.Errorf("expected hash passed through, got %v", rec.Credential)
				}
			},
		},
		{
			name:   "no password",
			attrs:  map[string][]string{"uid": {"id3"}, "initials": {"userC"}},
			wantOK: true,
			check: func(t *testing.T, rec identity.SourceRecord) {
				if rec.Credential.Kind != identity.CredentialNone {
					t.Errorf("expected no credential, got %v", rec.Credential)
				}
			},
		},
		{
			name:  "organizational unit is filtered",
			attrs: map[string][]string{"ou": {"people"}},
		},
		{
			name:     "missing username",
			attrs:    map[string][]string{"uid": {"id4"}},
			wantCode: apperrors.ErrCodeSourceRecord,
		},
		{
			name:     "missing uid",
			attrs:    map[string][]string{"initials": {"userD"}},
			wantCode: apperrors.ErrCodeSourceRecord,
		},
		{
			name:     "unsupported hash scheme",
			attrs:    map[string][]string{"uid": {"id5"}, "initials": {"userE"}, "userPassword": {"{SSHA}abcdef"}},
			wantCode: apperrors.ErrCodeSourceRecord,
		},
		{
			name:     "invalid utf-8 password",
			attrs:    map[string][]string{"uid": {"id6"}, "initials": {"userF"}, "userPassword": {string([]byte{0xff, 0xfe})}},
			wantCode: apperrors.ErrCodeSourceRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := goldap.NewEntry("cn=test,ou=people,dc=example,dc=com", tt.attrs)
			rec, ok, err := m.Map(entry)

			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				if apperrors.KindOf(err) != apperrors.KindRecoverable {
					t.Errorf("expected recoverable kind, got %v", apperrors.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestMapper_CustomAttributes(t *testing.T) {
	m := NewMapper(Config{
		UIDAttribute:      "entryUUID",
		UsernameAttribute: "sAMAccountName",
		Attributes:        AttributeMap{Email: "userPrincipalName"},
	})

	entry := goldap.NewEntry("cn=x", map[string][]string{
		"entryUUID":         {"u-1"},
		"sAMAccountName":    {"jdoe"},
		"userPrincipalName": {"jdoe@corp"},
	})
	rec, ok, err := m.Map(entry)
	if err != nil || !ok {
		t.Fatalf("expected record, got ok=%v err=%v", ok, err)
	}
	if rec.IdentityKey != "u-1" || rec.LoginName != "jdoe" || rec.Email != "jdoe@corp" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestMapper_Attributes(t *testing.T) {
	attrs := NewMapper(Config{}).Attributes()
	want := []string{"uid", "initials", "givenName", "sn", "mail", "mobile", "employeeNumber", "userPassword"}
	if len(attrs) != len(want) {
		t.Fatalf("expected %d attributes, got %v", len(want), attrs)
	}
	for i := range want {
		if attrs[i] != want[i] {
			t.Errorf("attribute %d: expected %s, got %s", i, want[i], attrs[i])
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{URL: "ldap://localhost:389"}, false},
		{"ldaps", Config{URL: "ldaps://dir.example.com:636"}, false},
		{"missing url", Config{}, true},
		{"bad url", Config{URL: "not a url"}, true},
		{"start tls", Config{URL: "ldap://dir.example.com", StartTLS: true}, false},
		{"start tls over ldaps", Config{URL: "ldaps://dir.example.com", StartTLS: true}, true},
		{"cert without key", Config{URL: "ldaps://dir.example.com", TLS: security.TLSConfig{CertFile: "c.pem"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
