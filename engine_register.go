package authcore

import (
	"context"
	"errors"
	"strings"

	"github.com/samudra-sahayak/authcore/otp"
	"github.com/samudra-sahayak/authcore/ring"
)

// Register creates an unverified account and dispatches its first
// verification code. Registering an email that already belongs to a
// verified account fails; an unverified account is treated as abandoned
// and is overwritten in place, so a typo victim cannot squat the address.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.checkLimit(ctx, limitKey(ctx, "register", req.Email), e.config.RateLimit.Window, e.config.RateLimit.Max); err != nil {
		return nil, err
	}

	normalized, err := normalizeRegisterRequest(req)
	if err != nil {
		return nil, err
	}

	hash, err := e.hasher.Hash(normalized.Password)
	if err != nil {
		return nil, ErrPasswordPolicy
	}

	existing, err := e.store.FindByIdentifier(ctx, normalized.Email)
	switch {
	case err == nil:
		if existing.Verified {
			e.metricInc(MetricRegisterDuplicate)
			return nil, ErrAccountExists
		}
		return e.reRegister(ctx, existing, normalized, hash)
	case errors.Is(err, ErrPrincipalNotFound):
		// First registration for this address.
	default:
		return nil, internalErr(err)
	}

	if normalized.Phone != "" {
		if byPhone, err := e.store.FindByIdentifier(ctx, normalized.Phone); err == nil && byPhone.Verified {
			e.metricInc(MetricRegisterDuplicate)
			return nil, ErrAccountExists
		} else if err != nil && !errors.Is(err, ErrPrincipalNotFound) {
			return nil, internalErr(err)
		}
	}

	now := e.now()
	p := &Principal{
		FullName:      normalized.FullName,
		Email:         normalized.Email,
		Phone:         normalized.Phone,
		Role:          normalized.Role,
		PasswordHash:  hash,
		RefreshTokens: ring.New(e.config.Refresh.MaxActiveTokens),
		OfficialID:    normalized.OfficialID,
		Organization:  normalized.Organization,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := e.store.Create(ctx, p)
	if err != nil {
		return nil, internalErr(err)
	}

	if err := e.issueCode(ctx, created, otp.PurposeVerify); err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, "register", created.ID, created.Email, true, nil)

	return &RegisterResult{Principal: summarize(created)}, nil
}

// reRegister reuses an unverified record for a fresh registration
// attempt. The old verification code dies with the overwrite.
func (e *Engine) reRegister(ctx context.Context, existing *Principal, req RegisterRequest, hash string) (*RegisterResult, error) {
	existing.FullName = req.FullName
	existing.Phone = req.Phone
	existing.Role = req.Role
	existing.PasswordHash = hash
	existing.OfficialID = req.OfficialID
	existing.Organization = req.Organization
	existing.VerificationCode = nil
	existing.UpdatedAt = e.now()

	if err := e.store.Update(ctx, existing); err != nil {
		return nil, internalErr(err)
	}

	if err := e.issueCode(ctx, existing, otp.PurposeVerify); err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, "register", existing.ID, existing.Email, true, nil)

	return &RegisterResult{Principal: summarize(existing)}, nil
}

func normalizeRegisterRequest(req RegisterRequest) (RegisterRequest, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return req, ErrInvalidArgument
	}

	kind, canonical := DetectIdentifier(req.Email)
	if kind != IdentifierEmail {
		return req, ErrInvalidIdentifier
	}
	req.Email = canonical

	if strings.TrimSpace(req.Phone) != "" {
		kind, canonical := DetectIdentifier(req.Phone)
		if kind != IdentifierPhone {
			return req, ErrInvalidIdentifier
		}
		req.Phone = canonical
	} else {
		req.Phone = ""
	}

	if req.Role == "" {
		req.Role = RoleCitizen
	}
	switch req.Role {
	case RoleCitizen:
		req.OfficialID = ""
		req.Organization = ""
	case RoleOfficial:
		if strings.TrimSpace(req.OfficialID) == "" || strings.TrimSpace(req.Organization) == "" {
			return req, ErrInvalidArgument
		}
	default:
		// Admin accounts are provisioned out of band, never self-registered.
		return req, ErrInvalidArgument
	}

	return req, nil
}
