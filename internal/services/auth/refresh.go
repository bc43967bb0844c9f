package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewOpaqueToken returns byteLen random bytes hex-encoded. Refresh tokens
// and session ids are opaque on purpose: they carry no claims and only
// mean something to the session store.
func NewOpaqueToken(byteLen int) (string, error) {
	if byteLen <= 0 {
		return "", fmt.Errorf("invalid token size")
	}

	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// NewRefreshToken mints the single-use token handed out next to each
// access token. Rotation invalidates it on first use.
func NewRefreshToken() (string, error) {
	return NewOpaqueToken(32)
}

// NewSessionID names one device login so logout can revoke it alone.
func NewSessionID() (string, error) {
	return NewOpaqueToken(20)
}
