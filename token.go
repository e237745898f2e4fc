package auth

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	goerrors "github.com/goliatone/go-errors"
)

// tokenEntropyBytes gives 256 bits of randomness per token, well above the
// 128-bit floor required for the token to be unguessable.
const tokenEntropyBytes = 32

// TokenSource produces opaque access and password reset tokens
type TokenSource interface {
	NewToken() (string, error)
}

// RandomTokenSource reads tokens from a cryptographically secure source.
// The zero value uses crypto/rand; the Reader field exists so tests can
// inject a deterministic source.
type RandomTokenSource struct {
	Reader io.Reader
}

// NewRandomTokenSource returns a TokenSource backed by crypto/rand
func NewRandomTokenSource() *RandomTokenSource {
	return &RandomTokenSource{Reader: rand.Reader}
}

// NewToken returns a URL and header safe opaque token
func (s *RandomTokenSource) NewToken() (string, error) {
	r := s.Reader
	if r == nil {
		r = rand.Reader
	}

	buf := make([]byte, tokenEntropyBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random bytes for token")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
