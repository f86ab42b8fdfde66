// Package id generates URL-safe identifiers for stored records and share links.
//
// Record identifiers are UUIDv4 bytes encoded as lowercase base32 (RFC 4648)
// with no padding: 26 characters, safe for URLs and file paths.
package id

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a fresh record identifier.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(u[:])), nil
}

// TokenBytes is the entropy of a share token.
const TokenBytes = 24

// NewToken returns an unguessable URL-safe token for public share links.
func NewToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
