package authcore

import (
	"testing"
	"time"
)

func validConfig() Config {
	cfg := defaultConfig()
	cfg.Token.AccessSecret = []byte("access-secret-for-config-tests0")
	cfg.Token.RefreshSecret = []byte("refresh-secret-for-config-tests")
	return cfg
}

func TestDefaultsValidateWithSecrets(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("defaults with secrets should validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing access secret", func(c *Config) { c.Token.AccessSecret = nil }},
		{"missing refresh secret", func(c *Config) { c.Token.RefreshSecret = nil }},
		{"shared secret", func(c *Config) { c.Token.RefreshSecret = c.Token.AccessSecret }},
		{"zero access ttl", func(c *Config) { c.Token.AccessTTL = 0 }},
		{"zero guest ttl", func(c *Config) { c.Token.GuestTTL = 0 }},
		{"remember shorter than base", func(c *Config) { c.Token.RememberRefreshTTL = time.Hour }},
		{"bcrypt cost too low", func(c *Config) { c.Password.Cost = 1 }},
		{"zero lockout threshold", func(c *Config) { c.Lockout.Threshold = 0 }},
		{"negative lockout duration", func(c *Config) { c.Lockout.Duration = -time.Minute }},
		{"zero login budget", func(c *Config) { c.RateLimit.Max = 0 }},
		{"zero reset window", func(c *Config) { c.RateLimit.ResetWindow = 0 }},
		{"zero code budget", func(c *Config) { c.RateLimit.CodeConsumeMax = 0 }},
		{"zero code ttl", func(c *Config) { c.Codes.VerificationTTL = 0 }},
		{"zero refresh cap", func(c *Config) { c.Refresh.MaxActiveTokens = 0 }},
		{"audit enabled without buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigDetachesSecrets(t *testing.T) {
	cfg := validConfig()
	clone := cloneConfig(cfg)

	clone.Token.AccessSecret[0] ^= 0xff
	if cfg.Token.AccessSecret[0] == clone.Token.AccessSecret[0] {
		t.Fatal("clone shares the access secret backing array")
	}
}
