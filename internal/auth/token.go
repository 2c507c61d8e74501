// Package auth implements the capability-token scheme trips are protected
// with. There are no user accounts or sessions at this layer: holding a
// trip's access token grants access, and a longer creator token, issued once
// and stored only as a bcrypt hash, authorizes destructive operations.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenLen  = 24
	creatorTokenLen = 48
)

// ErrInvalidCreatorToken means the presented creator token does not match the
// trip's stored hash.
var ErrInvalidCreatorToken = errors.New("invalid creator token")

// NewAccessToken returns a random URL-safe token identifying a trip.
func NewAccessToken() (string, error) {
	return randomToken(accessTokenLen)
}

// NewCreatorToken returns a random token authorizing a trip's destructive
// operations. It is shown to the creator exactly once.
func NewCreatorToken() (string, error) {
	return randomToken(creatorTokenLen)
}

func randomToken(length int) (string, error) {
	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf)[:length], nil
}

// HashToken hashes a creator token for at-rest storage.
func HashToken(token string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hashed), nil
}

// VerifyToken compares a presented creator token against the stored hash.
func VerifyToken(hash, token string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		return ErrInvalidCreatorToken
	}
	return nil
}
