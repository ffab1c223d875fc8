// Package source defines where migrated identities come from.
//
// A Source produces one lazy, single-pass stream per call to Produce. Errors
// returned by the stream's Next are classified with errors.KindOf: a
// recoverable error describes one malformed record and the stream can be
// read further; any other error ends the pass.
//
// Implementations live in subpackages (ldap, csv); Static serves fixed
// records for dry runs and tests.
package source
