// Package memstore is an in-memory authcore.PrincipalStore. It backs the
// engine's tests and the demo server; production deployments implement
// the interface over a real database.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	authcore "github.com/samudra-sahayak/authcore"
	"github.com/samudra-sahayak/authcore/otp"
	"github.com/samudra-sahayak/authcore/ring"
)

// Store keeps principals in a map guarded by one mutex. All reads return
// deep copies so callers can never alias the canonical record.
type Store struct {
	mu         sync.Mutex
	principals map[string]*authcore.Principal
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		principals: make(map[string]*authcore.Principal),
	}
}

var _ authcore.PrincipalStore = (*Store)(nil)

func clonePrincipal(p *authcore.Principal) *authcore.Principal {
	out := *p
	out.RefreshTokens = p.RefreshTokens.Clone()
	if p.VerificationCode != nil {
		c := *p.VerificationCode
		out.VerificationCode = &c
	}
	if p.ResetCode != nil {
		c := *p.ResetCode
		out.ResetCode = &c
	}
	return &out
}

// FindByIdentifier matches the canonical email or phone.
func (s *Store) FindByIdentifier(_ context.Context, identifier string) (*authcore.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.principals {
		if p.Email == identifier || (p.Phone != "" && p.Phone == identifier) {
			return clonePrincipal(p), nil
		}
	}
	return nil, authcore.ErrPrincipalNotFound
}

// FindByID looks up a principal by its ID.
func (s *Store) FindByID(_ context.Context, id string) (*authcore.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.principals[id]
	if !ok {
		return nil, authcore.ErrPrincipalNotFound
	}
	return clonePrincipal(p), nil
}

// FindByCodeHash scans for a principal whose stored challenge for purpose
// matches hash. Expiry is the engine's concern, not the store's.
func (s *Store) FindByCodeHash(_ context.Context, purpose otp.Purpose, hash [32]byte) (*authcore.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.principals {
		var challenge *authcore.CodeChallenge
		switch purpose {
		case otp.PurposeVerify:
			challenge = p.VerificationCode
		case otp.PurposeReset:
			challenge = p.ResetCode
		}
		if challenge != nil && challenge.Hash == hash {
			return clonePrincipal(p), nil
		}
	}
	return nil, authcore.ErrPrincipalNotFound
}

// Create stores a copy of p under a fresh ID and returns the stored form.
func (s *Store) Create(_ context.Context, p *authcore.Principal) (*authcore.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clonePrincipal(p)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.principals[stored.ID] = stored
	return clonePrincipal(stored), nil
}

// Update replaces the stored record wholesale.
func (s *Store) Update(_ context.Context, p *authcore.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.principals[p.ID]; !ok {
		return authcore.ErrPrincipalNotFound
	}
	s.principals[p.ID] = clonePrincipal(p)
	return nil
}

func (s *Store) locked(id string) (*authcore.Principal, error) {
	p, ok := s.principals[id]
	if !ok {
		return nil, authcore.ErrPrincipalNotFound
	}
	return p, nil
}

// PushRefreshToken appends entry and trims to the newest limit entries in
// one locked step.
func (s *Store) PushRefreshToken(_ context.Context, id string, entry ring.Entry, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.locked(id)
	if err != nil {
		return err
	}
	if p.RefreshTokens.Capacity() != limit {
		r := ring.New(limit)
		for _, e := range p.RefreshTokens.Entries() {
			r.Push(e)
		}
		p.RefreshTokens = r
	}
	p.RefreshTokens.Push(entry)
	return nil
}

// PullRefreshToken removes one matching token, reporting whether it was
// present.
func (s *Store) PullRefreshToken(_ context.Context, id string, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.locked(id)
	if err != nil {
		return false, err
	}
	return p.RefreshTokens.Remove(token), nil
}

// ClearRefreshTokens empties the allow-list.
func (s *Store) ClearRefreshTokens(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.locked(id)
	if err != nil {
		return err
	}
	p.RefreshTokens.Clear()
	return nil
}

// SetLockState writes the failure counter and lock deadline.
func (s *Store) SetLockState(_ context.Context, id string, failedAttempts int, lockUntil time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.locked(id)
	if err != nil {
		return err
	}
	p.FailedAttempts = failedAttempts
	p.LockUntil = lockUntil
	return nil
}

// SetPasswordHash replaces the stored credential hash.
func (s *Store) SetPasswordHash(_ context.Context, id string, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.locked(id)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

// SetCode stores or clears the challenge slot for purpose.
func (s *Store) SetCode(_ context.Context, id string, purpose otp.Purpose, challenge *authcore.CodeChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.locked(id)
	if err != nil {
		return err
	}

	var copied *authcore.CodeChallenge
	if challenge != nil {
		c := *challenge
		copied = &c
	}
	switch purpose {
	case otp.PurposeVerify:
		p.VerificationCode = copied
	case otp.PurposeReset:
		p.ResetCode = copied
	}
	return nil
}

// SetVerified flips the contact-verified flag.
func (s *Store) SetVerified(_ context.Context, id string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.locked(id)
	if err != nil {
		return err
	}
	p.Verified = verified
	return nil
}

// SetLastLogin stamps the most recent successful login.
func (s *Store) SetLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.locked(id)
	if err != nil {
		return err
	}
	p.LastLogin = at
	return nil
}
