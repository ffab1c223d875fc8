// Package fixtures holds identity data shared by the package tests.
package fixtures

import (
	"fmt"

	"github.com/kbukum/idmigrate/identity"
)

// SourceRecords returns n plaintext records keyed id01..idNN with logins
// user01..userNN and passwords pw01..pwNN.
func SourceRecords(n int) []identity.SourceRecord {
	recs := make([]identity.SourceRecord, 0, n)
	for i := 1; i <= n; i++ {
		recs = append(recs, identity.SourceRecord{
			IdentityKey: fmt.Sprintf("id%02d", i),
			LoginName:   fmt.Sprintf("user%02d", i),
			FirstName:   "First",
			LastName:    "Last",
			Email:       fmt.Sprintf("user%02d@example.com", i),
			Credential:  identity.Plaintext(fmt.Sprintf("pw%02d", i)),
		})
	}
	return recs
}

// Password returns the plaintext SourceRecords assigns to record i.
func Password(i int) string {
	return fmt.Sprintf("pw%02d", i)
}
