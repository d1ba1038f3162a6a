package confirm

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"strings"
)

// keyAlphabet avoids visually ambiguous characters (0/O, 1/I/l) so keys
// survive being retyped from a chat window.
const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewKey generates a random challenge key of the given length.
func NewKey(length int) (string, error) {
	if length < 4 || length > 64 {
		return "", errors.New("invalid confirmation key length")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(keyAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(keyAlphabet[n.Int64()])
	}

	return b.String(), nil
}

// Equal compares a provided response against the issued key in constant
// time.
func Equal(issued, provided string) bool {
	if len(issued) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(issued), []byte(provided)) == 1
}
