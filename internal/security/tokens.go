package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gatekeeper/backend/internal/apperr"
)

var (
	// ErrInvalidToken is the soft verification failure: expired, malformed, or
	// bad signature. Callers treat the presenter as unauthenticated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrAlgorithmMismatch is the hard verification failure: the token header
	// names an algorithm outside the pinned set for this secret. This is
	// escalated rather than treated as an anonymous caller because it signals
	// an algorithm-confusion attempt, not a stale credential.
	ErrAlgorithmMismatch = errors.New("token algorithm not permitted for this secret")
)

// signingMethods is the allow-list of HMAC algorithms a codec may pin.
var signingMethods = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// IdentityClaims is the signed claim set of an identity token. The token is
// stateless; the engine never trusts it without confirming the referenced
// session still exists.
type IdentityClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// TokenCodec signs and verifies identity tokens with a shared HMAC secret.
// Verification pins the algorithm chosen at construction.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
}

// NewTokenCodec returns a TokenCodec for the named HMAC algorithm
// (HS256, HS384, or HS512). Unsupported names are rejected.
func NewTokenCodec(secret []byte, algorithm string) (*TokenCodec, error) {
	method, ok := signingMethods[algorithm]
	if !ok {
		return nil, apperr.IllegalArgument("unsupported signing algorithm %q", algorithm)
	}
	if len(secret) == 0 {
		return nil, apperr.IllegalArgument("signing secret must not be empty")
	}
	return &TokenCodec{secret: secret, method: method}, nil
}

// Sign issues an identity token for sessionID. A zero expiresAt omits the
// expiry claim, producing an unbounded token.
func (c *TokenCodec) Sign(sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt.UTC()),
		},
		SessionID: sessionID,
	}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt.UTC())
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Verify parses and validates an identity token. A token signed with an
// algorithm other than the pinned one returns ErrAlgorithmMismatch; every
// other failure returns ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, ErrAlgorithmMismatch
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, ErrAlgorithmMismatch) {
			return nil, ErrAlgorithmMismatch
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
