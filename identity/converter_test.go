package identity

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kbukum/idmigrate/credential"
	apperrors "github.com/kbukum/idmigrate/errors"
)

func testConverter() (*Converter, *credential.BcryptHasher) {
	h := credential.NewBcryptHasher(credential.WithCost(bcrypt.MinCost), credential.WithPepper("pepper"))
	return NewConverter(h), h
}

func sampleRecord(cred Credential) SourceRecord {
	return SourceRecord{
		IdentityKey: "id1",
		LoginName:   "userA",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
		CellPhone:   "+4712345678",
		PersonRef:   "ref-1",
		Credential:  cred,
	}
}

func TestConvert_Plaintext(t *testing.T) {
	c, h := testConverter()
	src := sampleRecord(Plaintext("pw1"))

	dst, err := c.Convert(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.PasswordHash == "pw1" {
		t.Fatal("plaintext must never be stored")
	}
	if err := h.Verify("pw1", dst.PasswordHash); err != nil {
		t.Errorf("expected stored hash to verify, got %v", err)
	}
	if dst.IdentityKey != "id1" || dst.LoginName != "userA" || dst.Email != "ada@example.com" ||
		dst.FirstName != "Ada" || dst.LastName != "Lovelace" || dst.CellPhone != "+4712345678" || dst.PersonRef != "ref-1" {
		t.Errorf("profile fields not copied: %+v", dst)
	}

	again, _ := c.Convert(src)
	if again.PasswordHash == dst.PasswordHash {
		t.Error("expected a second conversion to produce a differently salted hash")
	}
	if !c.Matches(src, again) {
		t.Error("expected second conversion to verify as well")
	}
}

func TestConvert_HashedPassThrough(t *testing.T) {
	c, _ := testConverter()
	existing, _ := bcrypt.GenerateFromPassword([]byte("old"), bcrypt.MinCost)
	src := sampleRecord(Hashed(string(existing)))

	dst, err := c.Convert(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.PasswordHash != string(existing) {
		t.Errorf("expected hash to pass through unchanged, got %q", dst.PasswordHash)
	}
	if !c.Matches(src, dst) {
		t.Error("expected Matches for an unchanged hash")
	}
}

func TestConvert_NoCredential(t *testing.T) {
	c, _ := testConverter()

	dst, err := c.Convert(sampleRecord(Credential{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.PasswordHash != "" {
		t.Errorf("expected empty hash, got %q", dst.PasswordHash)
	}
}

type brokenHasher struct{ err error }

func (h brokenHasher) Hash(string) (string, error) { return "", h.err }
func (h brokenHasher) Verify(string, string) error { return h.err }

func TestConvert_HashFailureIsConversionError(t *testing.T) {
	cause := errors.New("entropy exhausted")
	c := NewConverter(brokenHasher{err: cause})

	_, err := c.Convert(sampleRecord(Plaintext("pw1")))
	if !apperrors.HasCode(err, apperrors.ErrCodeConversionFailed) {
		t.Fatalf("expected CONVERSION_FAILED, got %v", err)
	}
	if apperrors.KindOf(err) != apperrors.KindFatal {
		t.Error("conversion errors must be fatal")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the hasher error as cause")
	}
}

func TestConvert_LongPassword(t *testing.T) {
	c, _ := testConverter()
	src := sampleRecord(Plaintext(strings.Repeat("x", 80)))

	dst, err := c.Convert(src)
	if err != nil {
		t.Fatalf("expected a long password to convert, got %v", err)
	}
	if !c.Matches(src, dst) {
		t.Error("expected the long password to verify against its hash")
	}
}

func TestMatches_WrongPassword(t *testing.T) {
	c, _ := testConverter()
	dst, _ := c.Convert(sampleRecord(Plaintext("pw1")))

	if c.Matches(sampleRecord(Plaintext("other")), dst) {
		t.Error("expected a different password not to match")
	}
	if c.Matches(sampleRecord(Credential{}), dst) {
		t.Error("expected a record without credential not to match a stored hash")
	}
}

func TestParseCredential(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("x"), bcrypt.MinCost)
	tests := []struct {
		raw      string
		wantKind CredentialKind
		wantErr  bool
	}{
		{"", CredentialNone, false},
		{"pw1", CredentialPlaintext, false},
		{string(hash), CredentialHashed, false},
		{"{SSHA}c2FsdGVk", CredentialNone, true},
	}
	for _, tc := range tests {
		t.Run(tc.wantKind.String(), func(t *testing.T) {
			got, err := ParseCredential(tc.raw)
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error=%v, got %v", tc.wantErr, err)
			}
			if tc.wantErr && apperrors.KindOf(err) != apperrors.KindRecoverable {
				t.Errorf("expected a recoverable record error, got %v", err)
			}
			if got.Kind != tc.wantKind {
				t.Errorf("expected %s, got %s", tc.wantKind, got.Kind)
			}
		})
	}
}

func TestCredential_StringRedacts(t *testing.T) {
	c := Plaintext("secret-pw")
	for _, s := range []string{c.String(), fmt.Sprintf("%v", c), fmt.Sprintf("%+v", sampleRecord(c))} {
		if strings.Contains(s, "secret-pw") {
			t.Errorf("credential leaked into %q", s)
		}
	}
	if Plaintext("").Kind != CredentialNone || Hashed("").Kind != CredentialNone {
		t.Error("empty values must produce no credential")
	}
}
