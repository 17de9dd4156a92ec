package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/samudra-sahayak/authcore/otp"
	"github.com/samudra-sahayak/authcore/password"
	"github.com/samudra-sahayak/authcore/rate"
	"github.com/samudra-sahayak/authcore/token"
)

// Builder assembles an [Engine]. A builder is single-use: Build consumes
// it. Without WithRedis or WithLimiterStore the rate limiter runs on an
// in-process store, which is fine for one instance and wrong for a fleet.
type Builder struct {
	config Config

	store        PrincipalStore
	notifier     Notifier
	redis        redis.UniversalClient
	limiterStore rate.Store
	auditSink    AuditSink
	clock        func() time.Time

	built bool
}

// New creates a Builder with defaults applied.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecrets sets the two signing secrets without touching the rest of
// the configuration.
func (b *Builder) WithSecrets(access, refresh []byte) *Builder {
	b.config.Token.AccessSecret = cloneBytes(access)
	b.config.Token.RefreshSecret = cloneBytes(refresh)
	return b
}

// WithPrincipalStore wires the account database. Required.
func (b *Builder) WithPrincipalStore(store PrincipalStore) *Builder {
	b.store = store
	return b
}

// WithNotifier wires one-time code delivery. Required.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithRedis backs the rate limiter with Redis so the sliding windows are
// shared across instances.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLimiterStore injects a custom rate-limit store. Takes precedence
// over WithRedis.
func (b *Builder) WithLimiterStore(store rate.Store) *Builder {
	b.limiterStore = store
	return b
}

// WithAuditSink enables audit dispatch to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithClock overrides the time source. Test hook.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("principal store required")
	}
	if b.notifier == nil {
		return nil, errors.New("notifier required")
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}

	hasher, err := password.NewHasher(password.Config{Cost: cfg.Password.Cost})
	if err != nil {
		return nil, err
	}

	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:       cfg.Token.AccessSecret,
		RefreshSecret:      cfg.Token.RefreshSecret,
		AccessTTL:          cfg.Token.AccessTTL,
		RefreshTTL:         cfg.Token.RefreshTTL,
		RememberRefreshTTL: cfg.Token.RememberRefreshTTL,
		Issuer:             cfg.Token.Issuer,
		Now:                now,
	})
	if err != nil {
		return nil, err
	}

	guest, err := token.NewGuest(cfg.Token.AccessSecret, cfg.Token.GuestTTL, now)
	if err != nil {
		return nil, err
	}

	limiterStore := b.limiterStore
	if limiterStore == nil {
		if b.redis != nil {
			limiterStore = rate.NewRedisStore(b.redis, "")
		} else {
			limiterStore = rate.NewMemoryStore()
		}
	}
	limiter, err := rate.NewLimiter(limiterStore, now)
	if err != nil {
		return nil, err
	}

	vault, err := otp.NewVault(cfg.Codes.VerificationTTL, cfg.Codes.ResetTTL, now)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:     cfg,
		store:      b.store,
		notifier:   b.notifier,
		hasher:     hasher,
		issuer:     issuer,
		guest:      guest,
		classifier: token.NewClassifier(issuer, guest),
		limiter:    limiter,
		vault:      vault,
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:    NewMetrics(cfg.Metrics),
		now:        now,
	}, nil
}
