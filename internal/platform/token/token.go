// Package token signs and verifies dot separated HMAC-SHA256 tokens
//
// A token is its fields joined with "." followed by the hex MAC over them.
// Fields must not contain ".".
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Errors returned by Verify
var (
	ErrNoSecret  = errors.New("token: no secret configured")
	ErrMalformed = errors.New("token: malformed")
	ErrSignature = errors.New("token: bad signature")
	ErrExpired   = errors.New("token: expired")
)

// Signer holds the shared secret
type Signer struct{ secret []byte }

// New returns a Signer, an empty secret yields a Signer that refuses everything
func New(secret string) Signer { return Signer{secret: []byte(secret)} }

// Enabled reports whether a secret is configured
func (s Signer) Enabled() bool { return len(s.secret) > 0 }

func (s Signer) mac(payload string) string {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(payload))
	return hex.EncodeToString(m.Sum(nil))
}

// Sign joins fields and appends their MAC
func (s Signer) Sign(fields ...string) (string, error) {
	if !s.Enabled() {
		return "", ErrNoSecret
	}
	for _, f := range fields {
		if f == "" || strings.Contains(f, ".") {
			return "", ErrMalformed
		}
	}
	payload := strings.Join(fields, ".")
	return payload + "." + s.mac(payload), nil
}

// Verify checks the MAC and returns the n signed fields
func (s Signer) Verify(tok string, n int) ([]string, error) {
	if !s.Enabled() {
		return nil, ErrNoSecret
	}
	parts := strings.Split(strings.TrimSpace(tok), ".")
	if len(parts) != n+1 {
		return nil, ErrMalformed
	}
	for _, p := range parts {
		if p == "" {
			return nil, ErrMalformed
		}
	}
	payload := strings.Join(parts[:n], ".")
	if !hmac.Equal([]byte(parts[n]), []byte(s.mac(payload))) {
		return nil, ErrSignature
	}
	return parts[:n], nil
}

// Expiry renders t as unix seconds for use as a field
func Expiry(t time.Time) string { return strconv.FormatInt(t.Unix(), 10) }

// CheckExpiry parses a unix seconds field and rejects it at or after now
func CheckExpiry(field string, now time.Time) (time.Time, error) {
	sec, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return time.Time{}, ErrMalformed
	}
	exp := time.Unix(sec, 0)
	if !now.Before(exp) {
		return exp, ErrExpired
	}
	return exp, nil
}
