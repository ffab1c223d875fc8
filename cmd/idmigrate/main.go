// Command idmigrate migrates user identities from an LDAP directory (or a
// CSV export) into a relational database, re-hashing plaintext passwords
// with bcrypt.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
