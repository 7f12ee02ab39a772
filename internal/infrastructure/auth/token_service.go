package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/fardapack/fardapack-crm/domain"
)

// tokenBytes is the entropy of a session token; hex encoding doubles it
const tokenBytes = 32

// TokenServiceImpl implements domain.TokenGenerator
type TokenServiceImpl struct{}

// NewTokenService creates a new session token generator
func NewTokenService() domain.TokenGenerator {
	return TokenServiceImpl{}
}

// Generate implements domain.TokenGenerator
func (TokenServiceImpl) Generate() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
