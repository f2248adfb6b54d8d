package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt hashing
var BcryptCost = bcrypt.DefaultCost

// MinPasswordLength is the shortest password accepted on create or change
const MinPasswordLength = 6

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// VerifyPassword verifies a password against a bcrypt hash
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidatePassword checks the minimum length
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return validationError("password", fmt.Sprintf("must be at least %d characters long", MinPasswordLength))
	}
	return nil
}
