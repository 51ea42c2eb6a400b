package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the fixed work factor for password hashes
const BcryptCost = 10

// HashPassword generates a salted bcrypt hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks if password matches hash.
// A mismatch is (false, nil); a malformed hash is an error.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
