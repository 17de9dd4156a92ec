package authcore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/samudra-sahayak/authcore/otp"
	"github.com/samudra-sahayak/authcore/password"
	"github.com/samudra-sahayak/authcore/rate"
	"github.com/samudra-sahayak/authcore/ring"
	"github.com/samudra-sahayak/authcore/token"
)

// Engine is the session and credential engine. Build one through
// [Builder]; it is immutable and safe for concurrent use after Build.
type Engine struct {
	config     Config
	store      PrincipalStore
	notifier   Notifier
	hasher     *password.Hasher
	issuer     *token.Issuer
	guest      *token.Guest
	classifier *token.Classifier
	limiter    *rate.Limiter
	vault      *otp.Vault
	audit      *auditDispatcher
	metrics    *Metrics
	now        func() time.Time
}

// Close stops the audit dispatcher, draining any buffered events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, eventType, principalID, identifier string, success bool, opErr error) {
	if e == nil || e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp:   e.now(),
		EventType:   eventType,
		PrincipalID: principalID,
		Identifier:  identifier,
		IP:          clientIPFromContext(ctx),
		Success:     success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.Emit(ctx, event)
}

// checkLimit consults the sliding window under key. A refused attempt
// comes back as *RateLimitError; a broken limiter store comes back as
// ErrInternal so an outage cannot masquerade as throttling.
func (e *Engine) checkLimit(ctx context.Context, key string, window time.Duration, max int) error {
	if e.limiter == nil {
		return nil
	}
	res, err := e.limiter.Check(ctx, key, window, max)
	if err != nil {
		return internalErr(err)
	}
	if !res.Allowed {
		return &RateLimitError{RetryAfter: res.RetryAfter}
	}
	return nil
}

// limitKey prefers the caller's network address and falls back to the
// identifier so unattributed requests still share a budget.
func limitKey(ctx context.Context, op, identifier string) string {
	if ip := clientIPFromContext(ctx); ip != "" {
		return op + ":ip:" + ip
	}
	return op + ":id:" + identifier
}

// Login verifies the identifier and secret and, on success, issues an
// access token and a refresh token. The refresh token is recorded on the
// principal's allow-list; remember extends its lifetime. Failures against
// an existing account count toward lockout; the lock is checked before
// the password so a locked account leaks nothing about the secret.
func (e *Engine) Login(ctx context.Context, identifier, secret string, remember bool) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	kind, canonical := DetectIdentifier(identifier)
	if kind == IdentifierInvalid {
		return nil, ErrInvalidIdentifier
	}

	if err := e.checkLimit(ctx, limitKey(ctx, "login", canonical), e.config.RateLimit.Window, e.config.RateLimit.Max); err != nil {
		if errors.Is(err, ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, "login", "", canonical, false, err)
		}
		return nil, err
	}

	p, err := e.store.FindByIdentifier(ctx, canonical)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, "login", "", canonical, false, ErrInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		return nil, internalErr(err)
	}

	if err := e.authenticate(ctx, p, secret); err != nil {
		e.emitAudit(ctx, "login", p.ID, canonical, false, err)
		return nil, err
	}

	if !p.Verified {
		e.emitAudit(ctx, "login", p.ID, canonical, false, ErrVerificationRequired)
		return nil, ErrVerificationRequired
	}
	if p.Role == RoleOfficial && !p.OfficialVerified {
		e.emitAudit(ctx, "login", p.ID, canonical, false, ErrOfficialVerificationPending)
		return nil, ErrOfficialVerificationPending
	}

	result, err := e.issueSession(ctx, p, remember)
	if err != nil {
		return nil, err
	}

	loginAt := e.now()
	if err := e.store.SetLastLogin(ctx, p.ID, loginAt); err != nil {
		// Best effort; the session is already valid.
		log.Printf("authcore: set last login for %s: %v", p.ID, err)
	} else {
		result.Principal.LastLogin = loginAt
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, "login", p.ID, canonical, true, nil)
	return result, nil
}

// authenticate runs the lockout-aware password check and maintains the
// failure counter. The caller holds a fresh principal record.
func (e *Engine) authenticate(ctx context.Context, p *Principal, secret string) error {
	now := e.now()

	if p.Locked(now) {
		e.metricInc(MetricAccountLocked)
		return &AccountLockedError{Until: p.LockUntil}
	}

	ok, err := e.hasher.Verify(secret, p.PasswordHash)
	if err != nil {
		return internalErr(err)
	}
	if !ok {
		failed := p.FailedAttempts + 1
		lockUntil := p.LockUntil
		if failed >= e.config.Lockout.Threshold {
			// The lock itself is the penalty; the counter starts over
			// so one slip after the lock expires does not re-lock.
			lockUntil = now.Add(e.config.Lockout.Duration)
			failed = 0
			e.metricInc(MetricLockoutTriggered)
		}
		if err := e.store.SetLockState(ctx, p.ID, failed, lockUntil); err != nil {
			return internalErr(err)
		}
		e.metricInc(MetricLoginFailure)
		return ErrInvalidCredentials
	}

	if p.FailedAttempts > 0 || !p.LockUntil.IsZero() {
		if err := e.store.SetLockState(ctx, p.ID, 0, time.Time{}); err != nil {
			return internalErr(err)
		}
	}

	if e.config.Password.UpgradeOnLogin {
		if stale, err := e.hasher.NeedsRehash(p.PasswordHash); err == nil && stale {
			if upgraded, err := e.hasher.Hash(secret); err == nil {
				if err := e.store.SetPasswordHash(ctx, p.ID, upgraded); err != nil {
					log.Printf("authcore: hash upgrade for %s: %v", p.ID, err)
				}
			}
		}
	}

	return nil
}

// mintPair signs an access and refresh token pair without touching the
// store.
func (e *Engine) mintPair(p *Principal, remember bool) (*LoginResult, error) {
	access, err := e.issuer.IssueAccess(p.ID, string(p.Role), p.Email)
	if err != nil {
		return nil, internalErr(err)
	}
	refresh, err := e.issuer.IssueRefresh(p.ID, remember)
	if err != nil {
		return nil, internalErr(err)
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Principal:    summarize(p),
	}, nil
}

// issueSession mints the token pair and records the refresh token.
func (e *Engine) issueSession(ctx context.Context, p *Principal, remember bool) (*LoginResult, error) {
	result, err := e.mintPair(p, remember)
	if err != nil {
		return nil, err
	}

	entry := ring.Entry{Token: result.RefreshToken, IssuedAt: e.now()}
	if err := e.store.PushRefreshToken(ctx, p.ID, entry, e.config.Refresh.MaxActiveTokens); err != nil {
		return nil, internalErr(err)
	}

	return result, nil
}

// Refresh rotates a refresh token: the presented token must verify and
// still sit on the principal's allow-list, and it is replaced by a new
// one in the same operation. A token evicted by newer logins fails here
// exactly like a forged or expired one.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	// Expired, forged, and revoked tokens all answer identically, so a
	// caller cannot probe which state a stolen token is in.
	claims, err := e.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrTokenInvalid
	}

	p, err := e.store.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			e.metricInc(MetricRefreshFailure)
			return nil, ErrTokenInvalid
		}
		return nil, internalErr(err)
	}

	// The replacement pair is signed before the allow-list changes, so
	// a signing failure leaves the presented token usable.
	result, err := e.mintPair(p, false)
	if err != nil {
		return nil, err
	}

	// Revoked and expired must be indistinguishable, so eviction from
	// the allow-list reports the same error as a bad signature. A store
	// failure between the pull and the push below fails closed: the
	// presented token is spent and the device must log in again.
	removed, err := e.store.PullRefreshToken(ctx, p.ID, refreshToken)
	if err != nil {
		return nil, internalErr(err)
	}
	if !removed {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, "refresh", p.ID, "", false, ErrTokenInvalid)
		return nil, ErrTokenInvalid
	}

	entry := ring.Entry{Token: result.RefreshToken, IssuedAt: e.now()}
	if err := e.store.PushRefreshToken(ctx, p.ID, entry, e.config.Refresh.MaxActiveTokens); err != nil {
		return nil, internalErr(err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, "refresh", p.ID, "", true, nil)
	return result, nil
}

// Logout revokes a single device's refresh token. The access token stays
// valid until it expires; only the refresh grant is withdrawn. Revoking a
// token that is already gone is not an error.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	claims, err := e.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return ErrTokenInvalid
	}

	if _, err := e.store.PullRefreshToken(ctx, claims.ID, refreshToken); err != nil {
		return internalErr(err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, "logout", claims.ID, "", true, nil)
	return nil
}
