package security

import (
	"crypto/rand"
	"math/big"

	"gatekeeper/backend/internal/apperr"
)

// charPool is the printable alphabet salts and refresh tokens draw from.
const charPool = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomSource produces random strings for salts and refresh tokens. The two
// share one generator but use independent length parameters.
type RandomSource interface {
	RandomString(length int) (string, error)
}

// CryptoRandomSource draws from crypto/rand over the fixed printable pool.
type CryptoRandomSource struct{}

// RandomString returns a random string of the given length. Rejection-free:
// each position is an independent uniform draw from the pool.
func (CryptoRandomSource) RandomString(length int) (string, error) {
	if length <= 0 {
		return "", apperr.IllegalArgument("random string length must be positive")
	}
	max := big.NewInt(int64(len(charPool)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = charPool[n.Int64()]
	}
	return string(out), nil
}
