package credential

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxInputBytes is the bcrypt input limit. Longer password+pepper input is
// truncated to it, matching jBCrypt, so every directory password converts.
const MaxInputBytes = 72

// ErrMismatch is returned by Verify when the password does not match.
var ErrMismatch = errors.New("credential: password does not match")

// Hasher defines the interface for password hashing and verification.
type Hasher interface {
	// Hash returns a salted hash of the password.
	Hash(password string) (string, error)

	// Verify checks if a password matches the given hash.
	// Returns nil if they match, an error otherwise.
	Verify(password, hash string) error
}

// BcryptHasher implements Hasher using peppered bcrypt.
type BcryptHasher struct {
	cost   int
	pepper string
}

// BcryptOption configures the bcrypt hasher.
type BcryptOption func(*BcryptHasher)

// WithCost sets the bcrypt cost parameter (default: 12, range: 4-31).
// Out-of-range values are ignored.
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// WithPepper sets the secret appended to every password before hashing.
func WithPepper(pepper string) BcryptOption {
	return func(h *BcryptHasher) { h.pepper = pepper }
}

// NewBcryptHasher creates a bcrypt-based password hasher.
func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{cost: DefaultBcryptCost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int { return h.cost }

// input is the peppered password, cut to MaxInputBytes.
func (h *BcryptHasher) input(password string) []byte {
	b := []byte(password + h.pepper)
	if len(b) > MaxInputBytes {
		b = b[:MaxInputBytes]
	}
	return b
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(h.input(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("credential: hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), h.input(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("credential: verify: %w", err)
	}
}

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// IsHashed reports whether value is already a bcrypt hash and must be stored
// as-is rather than hashed again.
func IsHashed(value string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(value, p) {
			_, err := bcrypt.Cost([]byte(value))
			return err == nil
		}
	}
	return false
}

// HasSchemePrefix reports whether value carries an RFC 2307 style scheme
// such as {SSHA} or {CRYPT}. Such values are hashes in a format the
// destination cannot verify.
func HasSchemePrefix(value string) bool {
	if !strings.HasPrefix(value, "{") {
		return false
	}
	end := strings.IndexByte(value, '}')
	return end > 1 && end < 16
}
