// ABOUTME: Password hashing and verification using bcrypt
// ABOUTME: Enforces the minimum password length before hashing

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// ErrPasswordTooShort is returned when a password fails the length check.
var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)

// dummyHash is a valid bcrypt hash of a throwaway value, compared against on
// failed lookups to keep login timing uniform across unknown usernames and
// wrong passwords.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword hashes a password with bcrypt at the default cost.
// Passwords shorter than MinPasswordLength are rejected before hashing.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a password against a stored bcrypt hash. A mismatch
// returns (false, nil); an error is returned only when the stored hash is
// structurally invalid.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verifying password: %w", err)
}

// DummyCompare burns one bcrypt comparison against a fixed hash.
func DummyCompare(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
