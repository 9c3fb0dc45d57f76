package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// newOneTimeToken generates a high-entropy single-use token, returning the
// plaintext for out-of-band delivery and the hash for storage. The plaintext
// never touches persistence or logs.
func newOneTimeToken() (plain, hash string, err error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(buf[:])
	return plain, hashOneTimeToken(plain), nil
}

func hashOneTimeToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

func compareOneTimeHash(expected, plain string) bool {
	actual := hashOneTimeToken(plain)
	if len(expected) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
