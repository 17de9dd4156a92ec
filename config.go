package authcore

import (
	"bytes"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config defines the engine's tunable behavior. Construct it from
// defaultConfig via [Builder.WithConfig] overrides and treat it as
// immutable after [Builder.Build].
type Config struct {
	Token     TokenConfig
	Password  PasswordConfig
	Lockout   LockoutConfig
	RateLimit RateLimitConfig
	Codes     CodeConfig
	Refresh   RefreshConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// TokenConfig holds signing secrets and lifetimes. Access and refresh
// secrets must differ: a leaked access secret must not forge refresh
// tokens, nor the reverse. Guest tokens sign with the access secret.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte

	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	RememberRefreshTTL time.Duration
	GuestTTL           time.Duration

	Issuer string
}

// PasswordConfig holds bcrypt tuning.
type PasswordConfig struct {
	Cost           int
	UpgradeOnLogin bool
}

// LockoutConfig controls the consecutive-failure account lock.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// RateLimitConfig holds the sliding-window budgets. Login and guest-start
// share the request budget keyed by client address; password-reset requests
// are additionally keyed by identifier so rotating source addresses cannot
// target one account; code consumption gets its own tighter budget because
// six-digit codes are guessable in a way passwords are not.
type RateLimitConfig struct {
	Window time.Duration
	Max    int

	ResetWindow time.Duration
	ResetMax    int

	CodeConsumeWindow time.Duration
	CodeConsumeMax    int
}

// CodeConfig holds one-time code lifetimes.
type CodeConfig struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

// RefreshConfig bounds the per-principal refresh-token allow-list.
type RefreshConfig struct {
	MaxActiveTokens int
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counter set.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:          15 * time.Minute,
			RefreshTTL:         7 * 24 * time.Hour,
			RememberRefreshTTL: 30 * 24 * time.Hour,
			GuestTTL:           10 * time.Minute,
		},
		Password: PasswordConfig{
			Cost:           12,
			UpgradeOnLogin: true,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Window:            15 * time.Minute,
			Max:               5,
			ResetWindow:       15 * time.Minute,
			ResetMax:          3,
			CodeConsumeWindow: 15 * time.Minute,
			CodeConsumeMax:    10,
		},
		Codes: CodeConfig{
			VerificationTTL: time.Hour,
			ResetTTL:        10 * time.Minute,
		},
		Refresh: RefreshConfig{
			MaxActiveTokens: 5,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run safely with.
func (c Config) Validate() error {
	if len(c.Token.AccessSecret) == 0 {
		return errors.New("Token.AccessSecret is required")
	}
	if len(c.Token.RefreshSecret) == 0 {
		return errors.New("Token.RefreshSecret is required")
	}
	if bytes.Equal(c.Token.AccessSecret, c.Token.RefreshSecret) {
		return errors.New("Token secrets must be distinct")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 || c.Token.RememberRefreshTTL <= 0 {
		return errors.New("Token TTLs must be positive")
	}
	if c.Token.GuestTTL <= 0 {
		return errors.New("Token.GuestTTL must be positive")
	}
	if c.Token.RememberRefreshTTL < c.Token.RefreshTTL {
		return errors.New("Token.RememberRefreshTTL must not be shorter than RefreshTTL")
	}
	if c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost {
		return errors.New("Password.Cost out of bcrypt range")
	}
	if c.Lockout.Threshold < 1 {
		return errors.New("Lockout.Threshold must be at least 1")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout.Duration must be positive")
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.Max < 1 {
		return errors.New("RateLimit login budget invalid")
	}
	if c.RateLimit.ResetWindow <= 0 || c.RateLimit.ResetMax < 1 {
		return errors.New("RateLimit reset budget invalid")
	}
	if c.RateLimit.CodeConsumeWindow <= 0 || c.RateLimit.CodeConsumeMax < 1 {
		return errors.New("RateLimit code-consume budget invalid")
	}
	if c.Codes.VerificationTTL <= 0 || c.Codes.ResetTTL <= 0 {
		return errors.New("Codes TTLs must be positive")
	}
	if c.Refresh.MaxActiveTokens < 1 {
		return errors.New("Refresh.MaxActiveTokens must be at least 1")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return errors.New("Audit.BufferSize must be at least 1 when enabled")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	out.Token.AccessSecret = cloneBytes(c.Token.AccessSecret)
	out.Token.RefreshSecret = cloneBytes(c.Token.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
