package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// HashCost is the bcrypt cost used for new hashes
var HashCost = 12

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword compares a password with a hash
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidPassword checks the password meets the length requirement
func ValidPassword(password string) bool {
	return len(password) >= MinPasswordLength
}
