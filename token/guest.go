package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GuestPrefix marks a guest session token on the wire. Boundary code strips
// it before signature verification, so a guest credential never reaches the
// authenticated-token error path.
const GuestPrefix = "guest_"

// GuestClaims is the reduced claim set of a guest session token.
type GuestClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Guest mints and verifies identity-less guest session tokens. Guest
// sessions are stateless: nothing is persisted, the token is the session.
type Guest struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewGuest returns a Guest manager signing with the given secret (shared
// with the access-token secret) and session lifetime.
func NewGuest(secret []byte, ttl time.Duration, now func() time.Time) (*Guest, error) {
	if len(secret) == 0 {
		return nil, errors.New("guest signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("guest session TTL must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Guest{secret: secret, ttl: ttl, now: now}, nil
}

// Issue mints a new guest session token, prefixed for wire transport, and
// returns it with the session lifetime in whole seconds.
func (g *Guest) Issue() (token string, expiresIn int, err error) {
	nowAt := g.now()
	claims := GuestClaims{
		TokenType: typeGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(nowAt.Add(g.ttl)),
			IssuedAt:  jwt.NewNumericDate(nowAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", 0, err
	}

	return GuestPrefix + signed, int(g.ttl / time.Second), nil
}

// Verify checks a prefixed guest token and returns its claims. A token
// without the guest prefix fails with [ErrInvalid].
func (g *Guest) Verify(raw string) (*GuestClaims, error) {
	stripped, ok := strings.CutPrefix(raw, GuestPrefix)
	if !ok {
		return nil, ErrInvalid
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
	)
	parsed, err := parser.ParseWithClaims(stripped, &GuestClaims{}, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*GuestClaims)
	if !ok || !parsed.Valid || claims.TokenType != typeGuest {
		return nil, ErrInvalid
	}

	return claims, nil
}
