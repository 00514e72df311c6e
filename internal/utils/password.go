package utils

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// TruncatePassword keeps at most 72 characters and never more than 72
// bytes, cutting on a rune boundary.
func TruncatePassword(plain string) string {
	n, runes := 0, 0
	for n < len(plain) && runes < MaxPasswordBytes {
		_, size := utf8.DecodeRuneInString(plain[n:])
		if n+size > MaxPasswordBytes {
			break
		}
		n += size
		runes++
	}
	return plain[:n]
}

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(TruncatePassword(plain)), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(TruncatePassword(plain))) == nil
}
