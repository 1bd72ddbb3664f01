package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateRandomNumber returns a uniformly distributed number in [min, max].
func GenerateRandomNumber(min, max int) (int, error) {
	if max < min {
		return 0, fmt.Errorf("invalid range [%d, %d]", min, max)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		return 0, err
	}
	return min + int(n.Int64()), nil
}

// GenerateOTPCode returns a 6-digit numeric code in [100000, 999999].
func GenerateOTPCode() (string, error) {
	n, err := GenerateRandomNumber(100000, 999999)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}

// GenerateSecureToken returns byteLen random bytes hex encoded (2*byteLen chars).
func GenerateSecureToken(byteLen int) (string, error) {
	bytes := make([]byte, byteLen)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// HashToken returns the SHA-256 hex digest used to store tokens at rest.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
