package token

import (
	"strings"
	"time"
)

// Kind discriminates the identity union produced by [Classifier.Classify].
type Kind uint8

const (
	// KindAnonymous is a caller presenting no credential at all.
	KindAnonymous Kind = iota
	// KindGuest is a valid, identity-less guest session.
	KindGuest
	// KindAuthenticated is a valid access token bound to a principal.
	KindAuthenticated
)

// Identity is the boundary decision about a presented credential, made
// exactly once. Downstream code switches on Kind and never re-parses raw
// token text.
type Identity struct {
	Kind Kind

	// GuestID and GuestExpiresAt are set when Kind is KindGuest.
	GuestID        string
	GuestExpiresAt time.Time

	// Claims is set when Kind is KindAuthenticated.
	Claims *Claims
}

// Classifier turns a raw bearer credential into an [Identity]. The guest
// prefix routes to guest verification; everything else is treated as an
// access token.
type Classifier struct {
	issuer *Issuer
	guest  *Guest
}

// NewClassifier returns a Classifier over the given issuer and guest
// manager.
func NewClassifier(issuer *Issuer, guest *Guest) *Classifier {
	return &Classifier{issuer: issuer, guest: guest}
}

// Classify decides what the raw credential is. An empty credential is
// KindAnonymous with a nil error: unauthenticated read-only access is a
// supported state, not a failure. A present-but-bad credential returns
// [ErrInvalid] or [ErrExpired].
func (c *Classifier) Classify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{Kind: KindAnonymous}, nil
	}

	if strings.HasPrefix(raw, GuestPrefix) {
		claims, err := c.guest.Verify(raw)
		if err != nil {
			return Identity{}, err
		}
		return Identity{
			Kind:           KindGuest,
			GuestID:        claims.RegisteredClaims.ID,
			GuestExpiresAt: claims.ExpiresAt.Time,
		}, nil
	}

	claims, err := c.issuer.VerifyAccess(raw)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Kind: KindAuthenticated, Claims: claims}, nil
}
