package token

import (
	"bytes"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type claim values.
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
	typeGuest   = "guest"
)

var (
	// ErrInvalid marks a token that is malformed, carries a bad signature,
	// or is of the wrong kind for the verification path used.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired marks a well-formed, correctly signed token past its expiry.
	ErrExpired = errors.New("token expired")
)

// Config holds the signing material and lifetimes for the [Issuer].
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte

	AccessTTL          time.Duration // access token lifetime (15m)
	RefreshTTL         time.Duration // refresh lifetime without remember-device (7d)
	RememberRefreshTTL time.Duration // refresh lifetime with remember-device (30d)

	Issuer string

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

// Claims is the signed claim bundle carried by access and refresh tokens.
// Access tokens carry {id, role, email}; refresh tokens carry only {id}.
type Claims struct {
	ID        string `json:"id"`
	Role      string `json:"role,omitempty"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies access and refresh tokens. Immutable after
// construction and safe for concurrent use.
type Issuer struct {
	config Config
	now    func() time.Time
}

// NewIssuer validates cfg and returns an [Issuer].
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("access and refresh secrets are required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.RememberRefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Issuer{config: cfg, now: now}, nil
}

// IssueAccess mints an access token bound to the principal's id, role, and
// email.
func (i *Issuer) IssueAccess(id, role, email string) (string, error) {
	return i.sign(i.config.AccessSecret, Claims{
		ID:        id,
		Role:      role,
		Email:     email,
		TokenType: typeAccess,
	}, i.config.AccessTTL)
}

// IssueRefresh mints a refresh token carrying only the principal's id.
// remember selects the long lifetime.
func (i *Issuer) IssueRefresh(id string, remember bool) (string, error) {
	ttl := i.config.RefreshTTL
	if remember {
		ttl = i.config.RememberRefreshTTL
	}
	return i.sign(i.config.RefreshSecret, Claims{
		ID:        id,
		TokenType: typeRefresh,
	}, ttl)
}

// VerifyAccess checks signature, expiry, and kind of an access token.
func (i *Issuer) VerifyAccess(raw string) (*Claims, error) {
	return i.verify(raw, i.config.AccessSecret, typeAccess)
}

// VerifyRefresh checks signature, expiry, and kind of a refresh token.
func (i *Issuer) VerifyRefresh(raw string) (*Claims, error) {
	return i.verify(raw, i.config.RefreshSecret, typeRefresh)
}

func (i *Issuer) sign(secret []byte, claims Claims, ttl time.Duration) (string, error) {
	now := i.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    i.config.Issuer,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (i *Issuer) verify(raw string, secret []byte, wantType string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.TokenType != wantType {
		return nil, ErrInvalid
	}

	return claims, nil
}
