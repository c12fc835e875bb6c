package security

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/sha3"

	"gatekeeper/backend/internal/apperr"
)

// SaltLength is the length of generated password salts.
const SaltLength = 16

// digestFactories is the fixed allow-list of supported digest algorithms.
// Unsupported names are rejected at construction, not at hash time.
var digestFactories = map[string]func() hash.Hash{
	"sha256":   sha256.New,
	"sha384":   sha512.New384,
	"sha512":   sha512.New,
	"sha3-256": sha3.New256,
	"sha3-512": sha3.New512,
}

// Hasher computes deterministic salted password digests. Callers must not log
// or persist plaintext passwords.
type Hasher struct {
	algorithm string
	newHash   func() hash.Hash
	random    RandomSource
}

// NewHasher returns a Hasher for the named algorithm, validated against the
// allow-list. random supplies salt material.
func NewHasher(algorithm string, random RandomSource) (*Hasher, error) {
	factory, ok := digestFactories[algorithm]
	if !ok {
		return nil, apperr.IllegalArgument("unsupported digest algorithm %q", algorithm)
	}
	return &Hasher{algorithm: algorithm, newHash: factory, random: random}, nil
}

// Hash returns the hex-encoded digest of password||salt.
func (h *Hasher) Hash(password, salt string) string {
	d := h.newHash()
	d.Write([]byte(password))
	d.Write([]byte(salt))
	return hex.EncodeToString(d.Sum(nil))
}

// Verify reports whether password and salt produce the stored digest, using a
// constant-time comparison.
func (h *Hasher) Verify(password, salt, storedDigest string) bool {
	computed := h.Hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedDigest)) == 1
}

// GenerateSalt draws a fresh salt from the random source. A new salt is
// generated on every password-bearing update; there is no partial password
// update.
func (h *Hasher) GenerateSalt() (string, error) {
	return h.random.RandomString(SaltLength)
}
