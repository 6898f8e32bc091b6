// Package otp issues and checks the one-time codes used to confirm an email
// address before signup.
package otp

import (
	"context"
	"crypto/subtle"
	"strings"
)

// Verifier sends a code to an email address and later checks it.
type Verifier interface {
	Send(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (bool, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func codesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
