package utils

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashAPIKey returns the bcrypt hash of a plaintext API key.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckAPIKey compares a plaintext API key against a stored bcrypt hash.
func CheckAPIKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// NewAPIKey generates a random API key with the devboard prefix. The
// plaintext is returned once; only its hash is persisted.
func NewAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "dvb_" + hex.EncodeToString(buf), nil
}
