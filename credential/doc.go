// Package credential hashes and verifies user passwords for the destination
// store.
//
// Passwords are peppered before hashing: the stored hash is
// bcrypt(password + pepper, cost). The pepper is a deployment secret kept out
// of the database, so a leaked table alone cannot be brute-forced.
//
//	h, err := credential.NewHasher(credential.Config{Pepper: secret, BcryptCost: 12})
//	hash, err := h.Hash("pw1")
//	err = h.Verify("pw1", hash)
package credential
