// Package auth issues and verifies restaurant API keys and the cron
// secret.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// KeyPrefix starts every restaurant API key.
const KeyPrefix = "ml_"

// ErrInvalidKey is returned when a key does not match its hash.
var ErrInvalidKey = errors.New("invalid api key")

// Signer hashes and verifies secrets.
type Signer interface {
	Sign(secret string) (string, error)
	Verify(hash, secret string) error
}

// Bcrypt is the production Signer.
type Bcrypt struct {
	Cost int // 0 means bcrypt.DefaultCost
}

func (b Bcrypt) Sign(secret string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}

func (b Bcrypt) Verify(hash, secret string) error {
	if hash == "" || !strings.HasPrefix(secret, KeyPrefix) {
		return ErrInvalidKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return ErrInvalidKey
	}
	return nil
}

// NewAPIKey returns a fresh random API key and its hash. The key is shown
// to the owner once; only the hash is stored.
func NewAPIKey(s Signer) (key, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate api key: %w", err)
	}
	key = KeyPrefix + hex.EncodeToString(buf)
	hash, err = s.Sign(key)
	if err != nil {
		return "", "", err
	}
	return key, hash, nil
}

// BearerMatches reports whether the Authorization header value carries
// the expected bearer token. An empty secret never matches.
func BearerMatches(header, secret string) bool {
	if secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(secret)) == 1
}
