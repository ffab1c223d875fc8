// Package store is the relational destination for migrated identities.
//
// GormStore writes to the user_identity table, whose schema ships as
// embedded SQL migrations for sqlite and mysql. The uid primary key and the
// unique username index are the last line of defence against duplicates:
// a repeated uid comes back as ErrDuplicateKey (kind Skip) and a username
// taken by a different uid as a CONFLICT (kind Fatal).
package store
