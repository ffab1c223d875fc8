package ldap

import (
	"strings"
	"unicode/utf8"

	goldap "github.com/go-ldap/ldap/v3"

	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
)

// Mapper turns directory entries into source records. Attribute names are
// matched case-insensitively.
type Mapper struct {
	uidAttr      string
	usernameAttr string
	attrs        AttributeMap
}

// NewMapper creates a mapper for cfg's attribute names.
func NewMapper(cfg Config) *Mapper {
	cfg.ApplyDefaults()
	return &Mapper{
		uidAttr:      cfg.UIDAttribute,
		usernameAttr: cfg.UsernameAttribute,
		attrs:        cfg.Attributes,
	}
}

// Attributes lists the attributes a search must request.
func (m *Mapper) Attributes() []string {
	return []string{
		m.uidAttr, m.usernameAttr,
		m.attrs.FirstName, m.attrs.LastName, m.attrs.Email,
		m.attrs.CellPhone, m.attrs.PersonRef, m.attrs.Password,
	}
}

// Map converts e. ok is false with a nil error for entries that carry
// neither key, such as organizational units. An entry with only one of the
// keys, or an unusable password, yields a SOURCE_RECORD error.
func (m *Mapper) Map(e *goldap.Entry) (rec identity.SourceRecord, ok bool, err error) {
	uid := value(e, m.uidAttr)
	username := value(e, m.usernameAttr)

	switch {
	case uid == "" && username == "":
		return identity.SourceRecord{}, false, nil
	case uid == "":
		return identity.SourceRecord{}, false, recordError(e, username, "missing "+m.uidAttr)
	case username == "":
		return identity.SourceRecord{}, false, recordError(e, uid, "missing "+m.usernameAttr)
	}

	raw := rawValue(e, m.attrs.Password)
	if !utf8.Valid(raw) {
		return identity.SourceRecord{}, false, recordError(e, uid, "password is not valid UTF-8")
	}
	cred, err := identity.ParseCredential(string(raw))
	if err != nil {
		if appErr, isApp := apperrors.AsAppError(err); isApp {
			return identity.SourceRecord{}, false, appErr.WithDetail("key", uid).WithDetail("dn", e.DN)
		}
		return identity.SourceRecord{}, false, err
	}

	return identity.SourceRecord{
		IdentityKey: uid,
		LoginName:   username,
		FirstName:   value(e, m.attrs.FirstName),
		LastName:    value(e, m.attrs.LastName),
		Email:       value(e, m.attrs.Email),
		CellPhone:   value(e, m.attrs.CellPhone),
		PersonRef:   value(e, m.attrs.PersonRef),
		Credential:  cred,
	}, true, nil
}

func recordError(e *goldap.Entry, key, reason string) error {
	return apperrors.SourceRecord(key, reason).WithDetail("dn", e.DN)
}

func attribute(e *goldap.Entry, name string) *goldap.EntryAttribute {
	for _, a := range e.Attributes {
		if strings.EqualFold(a.Name, name) {
			return a
		}
	}
	return nil
}

func value(e *goldap.Entry, name string) string {
	a := attribute(e, name)
	if a == nil || len(a.Values) == 0 {
		return ""
	}
	return a.Values[0]
}

func rawValue(e *goldap.Entry, name string) []byte {
	a := attribute(e, name)
	if a == nil || len(a.ByteValues) == 0 {
		return nil
	}
	return a.ByteValues[0]
}
