package util

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// MinPasswordLength is the minimum length accepted for account passwords.
const MinPasswordLength = 8

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a plain text password matches a hashed password
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// PasswordStrengthError returns the first complexity rule the password breaks,
// or an empty string. Rules: minimum length, at least one letter, upper and lower
// case letters, a digit and a symbol.
func PasswordStrengthError(password string) string {
	if len([]rune(password)) < MinPasswordLength {
		return "must be at least 8 characters"
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper && !hasLower:
		return "must contain at least one letter"
	case !hasUpper || !hasLower:
		return "must contain at least one uppercase and one lowercase letter"
	case !hasDigit:
		return "must contain at least one number"
	case !hasSymbol:
		return "must contain at least one symbol"
	}
	return ""
}
