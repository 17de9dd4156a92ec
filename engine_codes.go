package authcore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/samudra-sahayak/authcore/otp"
)

// issueCode generates a fresh one-time code for purpose, stores its hash
// on the principal, and dispatches it. Storing before sending keeps a
// delivery failure from leaving a live code the caller never saw.
func (e *Engine) issueCode(ctx context.Context, p *Principal, purpose otp.Purpose) error {
	code, hash, expiresAt, err := e.vault.Issue(purpose)
	if err != nil {
		return internalErr(err)
	}

	challenge := &CodeChallenge{Hash: hash, ExpiresAt: expiresAt}
	if err := e.store.SetCode(ctx, p.ID, purpose, challenge); err != nil {
		return internalErr(err)
	}

	if err := e.notifier.SendCode(ctx, p.Email, code, purpose); err != nil {
		// Delivery is best effort; the caller can re-request the code.
		log.Printf("authcore: send %s code for %s: %v", purpose, p.ID, err)
	}

	e.metricInc(MetricCodeIssued)
	return nil
}

// IssueVerificationCode sends a fresh verification code to the account.
// Any earlier verification code stops working the moment the new one is
// stored.
func (e *Engine) IssueVerificationCode(ctx context.Context, identifier string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	kind, canonical := DetectIdentifier(identifier)
	if kind == IdentifierInvalid {
		return ErrInvalidIdentifier
	}

	if err := e.checkLimit(ctx, "verify-issue:id:"+canonical, e.config.RateLimit.ResetWindow, e.config.RateLimit.ResetMax); err != nil {
		return err
	}

	p, err := e.store.FindByIdentifier(ctx, canonical)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return ErrPrincipalNotFound
		}
		return internalErr(err)
	}
	if p.Verified {
		return ErrAlreadyVerified
	}

	if err := e.issueCode(ctx, p, otp.PurposeVerify); err != nil {
		return err
	}

	e.emitAudit(ctx, "verification_code_issued", p.ID, canonical, true, nil)
	return nil
}

// ResendVerification is an alias for [Engine.IssueVerificationCode] kept
// for callers that expose resend as a separate endpoint.
func (e *Engine) ResendVerification(ctx context.Context, identifier string) error {
	return e.IssueVerificationCode(ctx, identifier)
}

// ConfirmVerification consumes a verification code. The code is single
// use: it is cleared before the verified flag flips, so a concurrent
// retry of the same digits fails.
//
// The guess budget is keyed by the caller's address, so ctx should carry
// one via [WithClientIP]. Without it every caller shares a single
// anonymous bucket.
func (e *Engine) ConfirmVerification(ctx context.Context, code string) (*PrincipalSummary, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.checkLimit(ctx, limitKey(ctx, "code-consume", "anonymous"), e.config.RateLimit.CodeConsumeWindow, e.config.RateLimit.CodeConsumeMax); err != nil {
		return nil, err
	}

	p, err := e.consumeCode(ctx, otp.PurposeVerify, code)
	if err != nil {
		return nil, err
	}

	if err := e.store.SetVerified(ctx, p.ID, true); err != nil {
		return nil, internalErr(err)
	}
	p.Verified = true

	e.metricInc(MetricCodeConsumed)
	e.emitAudit(ctx, "verification_confirmed", p.ID, p.Email, true, nil)

	summary := summarize(p)
	return &summary, nil
}

// consumeCode resolves a presented code to its principal and clears the
// stored challenge. Wrong digits, an unknown hash, an expired challenge,
// and a reused code all collapse into ErrCodeInvalidOrExpired.
func (e *Engine) consumeCode(ctx context.Context, purpose otp.Purpose, code string) (*Principal, error) {
	if !otp.ValidFormat(code) {
		e.metricInc(MetricCodeRejected)
		return nil, ErrCodeInvalidOrExpired
	}

	hash := otp.Hash(code)
	p, err := e.store.FindByCodeHash(ctx, purpose, hash)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			e.metricInc(MetricCodeRejected)
			return nil, ErrCodeInvalidOrExpired
		}
		return nil, internalErr(err)
	}

	var challenge *CodeChallenge
	switch purpose {
	case otp.PurposeVerify:
		challenge = p.VerificationCode
	case otp.PurposeReset:
		challenge = p.ResetCode
	}
	if challenge == nil || e.vault.Expired(challenge.ExpiresAt) {
		e.metricInc(MetricCodeRejected)
		return nil, ErrCodeInvalidOrExpired
	}

	if err := e.store.SetCode(ctx, p.ID, purpose, nil); err != nil {
		return nil, internalErr(err)
	}

	return p, nil
}

// RequestPasswordReset starts the reset flow. The response is uniform
// whether or not the identifier matches an account, so the endpoint
// cannot be used to enumerate accounts. The budget is keyed by the
// identifier as well as the caller's address.
func (e *Engine) RequestPasswordReset(ctx context.Context, identifier string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	kind, canonical := DetectIdentifier(identifier)
	if kind == IdentifierInvalid {
		return ErrInvalidIdentifier
	}

	if err := e.checkLimit(ctx, "reset-request:id:"+canonical, e.config.RateLimit.ResetWindow, e.config.RateLimit.ResetMax); err != nil {
		return err
	}
	if ip := clientIPFromContext(ctx); ip != "" {
		if err := e.checkLimit(ctx, "reset-request:ip:"+ip, e.config.RateLimit.ResetWindow, e.config.RateLimit.ResetMax); err != nil {
			return err
		}
	}

	e.metricInc(MetricResetRequested)

	p, err := e.store.FindByIdentifier(ctx, canonical)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			// Same acknowledgement as the found path.
			e.emitAudit(ctx, "reset_requested", "", canonical, true, nil)
			return nil
		}
		return internalErr(err)
	}

	if err := e.issueCode(ctx, p, otp.PurposeReset); err != nil {
		return err
	}

	e.emitAudit(ctx, "reset_requested", p.ID, canonical, true, nil)
	return nil
}

// ResetPassword consumes a reset code and installs a new secret. Every
// refresh token is revoked and any account lock is cleared, so the reset
// doubles as a recovery path for a locked-out owner.
//
// As with [Engine.ConfirmVerification], the guess budget is keyed by the
// caller's address from [WithClientIP]; callers that omit it share one
// anonymous bucket.
func (e *Engine) ResetPassword(ctx context.Context, code, newSecret string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.checkLimit(ctx, limitKey(ctx, "code-consume", "anonymous"), e.config.RateLimit.CodeConsumeWindow, e.config.RateLimit.CodeConsumeMax); err != nil {
		return err
	}

	hash, err := e.hasher.Hash(newSecret)
	if err != nil {
		return ErrPasswordPolicy
	}

	p, err := e.consumeCode(ctx, otp.PurposeReset, code)
	if err != nil {
		return err
	}

	if err := e.store.SetPasswordHash(ctx, p.ID, hash); err != nil {
		return internalErr(err)
	}
	if err := e.store.ClearRefreshTokens(ctx, p.ID); err != nil {
		return internalErr(err)
	}
	if err := e.store.SetLockState(ctx, p.ID, 0, time.Time{}); err != nil {
		return internalErr(err)
	}

	e.metricInc(MetricCodeConsumed)
	e.metricInc(MetricResetCompleted)
	e.emitAudit(ctx, "reset_completed", p.ID, p.Email, true, nil)
	return nil
}
