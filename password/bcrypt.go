package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPassBytes = 8
	maxPassBytes = 72
)

// Config holds bcrypt tuning parameters.
type Config struct {
	Cost int
}

// Hasher hashes and verifies credentials using bcrypt.
type Hasher struct {
	config Config
}

// NewHasher validates cfg and returns a [Hasher].
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Hasher{config: cfg}, nil
}

// Hash returns the bcrypt hash of password. Passwords shorter than 8 bytes
// are rejected; longer than 72 bytes are truncated.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minPassBytes {
		return "", errors.New("password must be at least 8 bytes")
	}

	raw := []byte(password)
	if len(raw) > maxPassBytes {
		raw = raw[:maxPassBytes]
	}

	out, err := bcrypt.GenerateFromPassword(raw, h.config.Cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether password matches encodedHash. The comparison is
// constant-time with respect to the derived key. A malformed stored hash is
// an error, not a mismatch.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	raw := []byte(password)
	if len(raw) > maxPassBytes {
		raw = raw[:maxPassBytes]
	}

	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), raw)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// NeedsRehash reports whether encodedHash was produced with a cost below
// the configured one.
func (h *Hasher) NeedsRehash(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, err
	}
	return cost < h.config.Cost, nil
}
