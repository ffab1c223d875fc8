// Package ldap streams identities out of an LDAP directory.
//
// A pass binds once, searches the configured base with the simple paged
// results control and maps each entry through a Mapper. Entries without
// either key are skipped; entries with only one key, or with a password
// hashed under an unsupported scheme, surface as SOURCE_RECORD errors so
// the pass can continue.
package ldap
