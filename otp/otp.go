// Package otp generates and hashes the short-lived numeric one-time codes
// used for account verification and password reset. Codes are exactly six
// ASCII digits; only their SHA-256 hash is ever stored, the plaintext goes
// out of band to the principal's contact channel.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
	"strings"
	"time"
)

// Purpose names the flow a code belongs to. A code issued for one purpose
// never validates for another.
type Purpose string

const (
	// PurposeVerify marks account-verification codes.
	PurposeVerify Purpose = "verify"
	// PurposeReset marks password-reset codes.
	PurposeReset Purpose = "reset"
)

// Digits is the fixed code length. The wire format is exactly this many
// ASCII digits; anything else fast-rejects before any store lookup.
const Digits = 6

// ErrBadFormat marks input that is not a well-formed code.
var ErrBadFormat = errors.New("malformed one-time code")

// Vault generates codes and computes their storage hashes. All state lives
// on the principal record; the Vault itself is immutable and safe for
// concurrent use.
type Vault struct {
	verifyTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// NewVault returns a Vault with the given per-purpose lifetimes. now is
// injectable for tests; nil means time.Now.
func NewVault(verifyTTL, resetTTL time.Duration, now func() time.Time) (*Vault, error) {
	if verifyTTL <= 0 || resetTTL <= 0 {
		return nil, errors.New("one-time code TTLs must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Vault{verifyTTL: verifyTTL, resetTTL: resetTTL, now: now}, nil
}

// Issue generates a fresh code for the given purpose and returns its
// plaintext, storage hash, and expiry.
func (v *Vault) Issue(purpose Purpose) (code string, hash [32]byte, expiresAt time.Time, err error) {
	ttl, err := v.ttl(purpose)
	if err != nil {
		return "", hash, time.Time{}, err
	}

	code, err = generate(Digits)
	if err != nil {
		return "", hash, time.Time{}, err
	}

	return code, Hash(code), v.now().Add(ttl), nil
}

// Expired reports whether a code stamped with expiresAt is no longer valid.
func (v *Vault) Expired(expiresAt time.Time) bool {
	return !v.now().Before(expiresAt)
}

func (v *Vault) ttl(purpose Purpose) (time.Duration, error) {
	switch purpose {
	case PurposeVerify:
		return v.verifyTTL, nil
	case PurposeReset:
		return v.resetTTL, nil
	default:
		return 0, errors.New("unknown one-time code purpose")
	}
}

// Hash returns the storage hash of a plaintext code.
func Hash(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}

// ValidFormat reports whether code is exactly six ASCII digits. Callers use
// it to reject malformed input without a store round trip.
func ValidFormat(code string) bool {
	if len(code) != Digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func generate(digits int) (string, error) {
	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}
