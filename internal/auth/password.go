package auth

import (
	"log"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash for the given password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error generating bcrypt hash: %v", err)
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if err != bcrypt.ErrMismatchedHashAndPassword {
			// Log unexpected errors, but still return false for security
			log.Printf("Error comparing password hash: %v", err)
		}
		return false
	}
	return true
}

// --- Password Policy ---

// MinPasswordLength is the minimum number of characters in a password.
const MinPasswordLength = 8

// Password policy rule descriptions, in the order they are checked.
const (
	RuleMinLength = "at least 8 characters"
	RuleUppercase = "one uppercase letter"
	RuleDigit     = "one number"
)

// CheckPasswordPolicy returns the rules the password fails, or nil if it passes.
func CheckPasswordPolicy(password string) []string {
	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}

	var failed []string
	if len([]rune(password)) < MinPasswordLength {
		failed = append(failed, RuleMinLength)
	}
	if !hasUpper {
		failed = append(failed, RuleUppercase)
	}
	if !hasDigit {
		failed = append(failed, RuleDigit)
	}
	return failed
}
