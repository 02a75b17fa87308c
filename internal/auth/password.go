package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is lowered by tests.
var hashCost = bcrypt.DefaultCost

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// HashPassword hashes plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash.
func VerifyPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// burnPassword performs a comparison of the same cost as VerifyPassword
// against a hash that never matches.
func burnPassword(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unused-login-placeholder"), hashCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
