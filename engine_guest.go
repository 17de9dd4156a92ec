package authcore

import (
	"context"
	"errors"

	"github.com/samudra-sahayak/authcore/token"
)

// StartGuestSession mints a short-lived anonymous token. Guests share the
// login rate budget so an unauthenticated caller cannot switch surfaces
// to dodge the window.
func (e *Engine) StartGuestSession(ctx context.Context) (*GuestSession, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.checkLimit(ctx, limitKey(ctx, "guest", "anonymous"), e.config.RateLimit.Window, e.config.RateLimit.Max); err != nil {
		return nil, err
	}

	tok, expiresIn, err := e.guest.Issue()
	if err != nil {
		return nil, internalErr(err)
	}

	e.metricInc(MetricGuestSessionStarted)
	e.emitAudit(ctx, "guest_session", "", "", true, nil)

	return &GuestSession{Token: tok, ExpiresIn: expiresIn}, nil
}

// Classify resolves a raw bearer token into one of three identity kinds:
// absent input is anonymous, a guest-prefixed token verifies as a guest,
// anything else must verify as an access token.
func (e *Engine) Classify(raw string) (token.Identity, error) {
	if e == nil {
		return token.Identity{}, ErrEngineNotReady
	}

	ident, err := e.classifier.Classify(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return token.Identity{}, ErrTokenExpired
		}
		return token.Identity{}, ErrTokenInvalid
	}
	return ident, nil
}

// PrincipalFromIdentity loads the full record behind an authenticated
// identity. Guest and anonymous identities have no principal.
func (e *Engine) PrincipalFromIdentity(ctx context.Context, ident token.Identity) (*Principal, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if ident.Kind != token.KindAuthenticated || ident.Claims == nil {
		return nil, ErrTokenInvalid
	}

	p, err := e.store.FindByID(ctx, ident.Claims.ID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, internalErr(err)
	}
	return p, nil
}
