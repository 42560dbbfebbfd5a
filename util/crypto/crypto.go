// Package crypto provides password hashing and token digest utilities.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/modelhub/modelhub/config"

	"golang.org/x/crypto/bcrypt"
)

// HashPasswordAsBcrypt generates a bcrypt hash of the given password
// using the configured work factor.
func HashPasswordAsBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), config.GetBcryptCost())
	return string(hash), err
}

// CheckPasswordHash verifies if the given password matches the bcrypt hash.
func CheckPasswordHash(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// TokenDigest returns the hex SHA-256 of a bearer token. Only this
// digest is ever persisted; the raw token stays with the client.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
