package authcore

import (
	"context"
	"time"

	"github.com/samudra-sahayak/authcore/otp"
	"github.com/samudra-sahayak/authcore/ring"
)

// Role is the authorization tier carried inside access tokens.
type Role string

const (
	// RoleCitizen is the default role for self-registered accounts.
	RoleCitizen Role = "citizen"
	// RoleOfficial requires manual verification before privileged access.
	RoleOfficial Role = "official"
	// RoleAdmin is never self-assignable through Register.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleOfficial, RoleAdmin:
		return true
	}
	return false
}

// CodeChallenge is the stored form of a one-time code: the SHA-256 of the
// six digits plus an absolute expiry. The plaintext is never persisted.
type CodeChallenge struct {
	Hash      [32]byte
	ExpiresAt time.Time
}

// Principal is the full account record the engine operates on. Stores own
// the canonical copy; the engine mutates it only through the narrow
// [PrincipalStore] update methods so concurrent writers cannot clobber
// unrelated fields.
type Principal struct {
	ID       string
	FullName string
	Email    string
	Phone    string
	Role     Role

	Verified         bool
	OfficialVerified bool

	PasswordHash   string
	FailedAttempts int
	LockUntil      time.Time

	RefreshTokens ring.Ring

	VerificationCode *CodeChallenge
	ResetCode        *CodeChallenge

	OfficialID   string
	Organization string

	CreatedAt time.Time
	UpdatedAt time.Time
	LastLogin time.Time
}

// Locked reports whether the account lock is still in force at now.
func (p *Principal) Locked(now time.Time) bool {
	return !p.LockUntil.IsZero() && now.Before(p.LockUntil)
}

// PrincipalStore is the persistence interface callers implement to wire
// the engine to their database. Lookups return [ErrPrincipalNotFound]
// when no record matches. Update methods are field-scoped so a store backed by a
// document database can translate each into a targeted partial update.
type PrincipalStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
	FindByCodeHash(ctx context.Context, purpose otp.Purpose, hash [32]byte) (*Principal, error)

	Create(ctx context.Context, p *Principal) (*Principal, error)
	Update(ctx context.Context, p *Principal) error

	// PushRefreshToken appends entry to the principal's allow-list and
	// trims to the newest limit entries in the same write.
	PushRefreshToken(ctx context.Context, id string, entry ring.Entry, limit int) error
	// PullRefreshToken removes one matching token. Reports whether a
	// matching entry existed.
	PullRefreshToken(ctx context.Context, id string, token string) (bool, error)
	ClearRefreshTokens(ctx context.Context, id string) error

	SetLockState(ctx context.Context, id string, failedAttempts int, lockUntil time.Time) error
	SetPasswordHash(ctx context.Context, id string, hash string) error
	// SetCode stores or, when challenge is nil, clears the code slot for
	// the given purpose.
	SetCode(ctx context.Context, id string, purpose otp.Purpose, challenge *CodeChallenge) error
	SetVerified(ctx context.Context, id string, verified bool) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}

// Notifier delivers one-time codes out of band. Implementations must not
// log the code. Delivery is best effort: a failure is logged, never
// surfaced, and the caller can request a fresh code.
type Notifier interface {
	SendCode(ctx context.Context, email string, code string, purpose otp.Purpose) error
}

// PrincipalSummary is the token-safe projection of a [Principal] returned
// alongside credentials. It never carries hashes, codes, or lock state.
type PrincipalSummary struct {
	ID               string
	FullName         string
	Email            string
	Phone            string
	Role             Role
	Verified         bool
	OfficialVerified bool
	LastLogin        time.Time
}

func summarize(p *Principal) PrincipalSummary {
	return PrincipalSummary{
		ID:               p.ID,
		FullName:         p.FullName,
		Email:            p.Email,
		Phone:            p.Phone,
		Role:             p.Role,
		Verified:         p.Verified,
		OfficialVerified: p.OfficialVerified,
		LastLogin:        p.LastLogin,
	}
}

// LoginResult is returned by [Engine.Login] and [Engine.Refresh].
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Principal    PrincipalSummary
}

// RegisterRequest is the input for [Engine.Register]. Email, Password and
// FullName are required. Role defaults to [RoleCitizen]; officials must
// also supply OfficialID and Organization.
type RegisterRequest struct {
	FullName     string
	Email        string
	Phone        string
	Password     string
	Role         Role
	OfficialID   string
	Organization string
}

// RegisterResult is returned by [Engine.Register]. The account starts
// unverified; no tokens are issued until verification completes.
type RegisterResult struct {
	Principal PrincipalSummary
}

// GuestSession is returned by [Engine.StartGuestSession].
type GuestSession struct {
	Token     string
	ExpiresIn int
}
