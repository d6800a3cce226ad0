// Package auth verifies API keys presented by staff clients.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

var (
	// ErrUnknownKey is returned by repositories when no active key matches.
	ErrUnknownKey = errors.New("api key not found")
	// ErrUnauthorized is returned when a presented key cannot be verified.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a valid key lacks the required scope.
	ErrForbidden = errors.New("forbidden")
)

// Scopes granted to API keys.
const (
	// ScopeOrders allows checkout on behalf of customer sessions.
	ScopeOrders = "orders"
	// ScopeStaff allows payment verification and order status changes.
	ScopeStaff = "staff"
)

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key was granted scope.
func (i *APIKeyInfo) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// HashKey returns the hex HMAC-SHA256 of key under pepper, the form keys are
// stored in.
func HashKey(pepper []byte, key string) string {
	return hex.EncodeToString(hashKey(pepper, key))
}

func hashKey(pepper []byte, key string) []byte {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return mac.Sum(nil)
}

// Verifier authenticates raw API keys against a Repository.
type Verifier struct {
	keys   Repository
	pepper []byte
}

// NewVerifier creates a Verifier with the given key repository and HMAC pepper.
func NewVerifier(keys Repository, pepper []byte) *Verifier {
	return &Verifier{keys: keys, pepper: pepper}
}

// Verify looks up the key by its hash and re-checks the stored hash in
// constant time.
func (v *Verifier) Verify(ctx context.Context, key string) (*APIKeyInfo, error) {
	if key == "" {
		return nil, ErrUnauthorized
	}
	hash := hashKey(v.pepper, key)

	info, err := v.keys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		if errors.Is(err, ErrUnknownKey) {
			return nil, ErrUnauthorized
		}
		return nil, errors.Wrap(err, "find api key")
	}

	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if subtle.ConstantTimeCompare(hash, stored) != 1 {
		return nil, ErrUnauthorized
	}
	return info, nil
}
