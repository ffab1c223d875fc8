// Package claim decides which worker processes an identity key when the
// same key shows up more than once.
//
// Workers claim a key before checking the destination. Memory serves a
// single process; Redis extends the guarantee to every process sharing a
// namespace, using SETNX with a TTL so a crashed owner's claims expire.
//
// A claim lives only while its key is in flight. Workers release it once the
// record is stored or skipped, leaving dedup to the destination's primary
// key, so rows deleted by hand are picked up again on the next run. Dry runs
// store nothing and keep their claims for the rest of the pass.
package claim
