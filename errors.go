package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited rejects a request that exceeded its sliding-window
	// budget. Retryable after the delay carried by [RateLimitError].
	ErrRateLimited = errors.New("too many requests")
	// ErrAccountLocked rejects credential checks against a locked account.
	// Distinct from rate limiting so clients can render different messaging;
	// the lock deadline is carried by [AccountLockedError].
	ErrAccountLocked = errors.New("account locked")
	// ErrInvalidCredentials rejects a failed identifier/secret pair without
	// revealing which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenExpired marks a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid marks a malformed, tampered, or revoked token. The
	// refresh path reports revoked-by-removal and expired alike as this
	// error, so allow-list state never leaks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrCodeInvalidOrExpired rejects a one-time code that is malformed,
	// unknown, already used, or past its expiry.
	ErrCodeInvalidOrExpired = errors.New("code invalid or expired")
	// ErrVerificationRequired blocks login until the account's contact
	// channel is verified. A pending-state signal, not an input error.
	ErrVerificationRequired = errors.New("account verification required")
	// ErrOfficialVerificationPending blocks login for official-role accounts
	// awaiting administrator review.
	ErrOfficialVerificationPending = errors.New("official verification pending")
	// ErrPrincipalNotFound is returned by [PrincipalStore] lookups that
	// match nothing.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrAccountExists rejects registration against an existing verified
	// account.
	ErrAccountExists = errors.New("account already exists")
	// ErrAlreadyVerified rejects verification-code issuance for an account
	// that is already verified.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrInvalidIdentifier rejects input that is neither a well-formed email
	// address nor a phone number.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrPasswordPolicy rejects a new secret that fails hashing policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrInvalidArgument rejects malformed registration input: a missing
	// name, an unknown role, or official fields absent for an official.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInternal marks an unexpected collaborator fault (store or signing
	// failure). The operation aborts with no partial state mutation.
	ErrInternal = errors.New("internal failure")
	// ErrEngineNotReady marks use of an engine that was not built through
	// [Builder.Build].
	ErrEngineNotReady = errors.New("engine not ready")
)

// RateLimitError carries the delay after which a rate-limited request may
// be retried. It unwraps to [ErrRateLimited].
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many requests, retry after %ds", e.RetryAfterSeconds())
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RetryAfterSeconds returns the retry delay in whole seconds, rounded up.
func (e *RateLimitError) RetryAfterSeconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	s := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		s++
	}
	return s
}

// AccountLockedError carries the instant a locked account unlocks. It
// unwraps to [ErrAccountLocked].
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.UTC().Format(time.RFC3339))
}

func (e *AccountLockedError) Unwrap() error { return ErrAccountLocked }

func internalErr(err error) error {
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
