package token

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	at time.Time
}

func (c *fakeClock) Now() time.Time          { return c.at }
func (c *fakeClock) Advance(d time.Duration) { c.at = c.at.Add(d) }

func testIssuer(t *testing.T, clock *fakeClock) *Issuer {
	t.Helper()
	iss, err := NewIssuer(Config{
		AccessSecret:       []byte("access-secret-for-tests"),
		RefreshSecret:      []byte("refresh-secret-for-tests"),
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         7 * 24 * time.Hour,
		RememberRefreshTTL: 30 * 24 * time.Hour,
		Now:                clock.Now,
	})
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	return iss
}

func TestAccessRoundTrip(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss := testIssuer(t, clock)

	raw, err := iss.IssueAccess("p1", "citizen", "a@example.com")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	claims, err := iss.VerifyAccess(raw)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.ID != "p1" || claims.Role != "citizen" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAccessExpires(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss := testIssuer(t, clock)

	raw, err := iss.IssueAccess("p1", "citizen", "a@example.com")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	// Still valid just inside the 15 minute window.
	clock.Advance(14 * time.Minute)
	if _, err := iss.VerifyAccess(raw); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}

	clock.Advance(2 * time.Minute)
	_, err = iss.VerifyAccess(raw)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired after the window, got %v", err)
	}
}

func TestRefreshLifetimes(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss := testIssuer(t, clock)

	short, err := iss.IssueRefresh("p1", false)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}
	long, err := iss.IssueRefresh("p1", true)
	if err != nil {
		t.Fatalf("IssueRefresh remember failed: %v", err)
	}

	// Past the 7 day window but inside the 30 day one.
	clock.Advance(8 * 24 * time.Hour)

	if _, err := iss.VerifyRefresh(short); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected short refresh expired, got %v", err)
	}
	claims, err := iss.VerifyRefresh(long)
	if err != nil {
		t.Fatalf("expected remember refresh still valid, got %v", err)
	}
	if claims.ID != "p1" {
		t.Fatalf("unexpected refresh claims: %+v", claims)
	}
	if claims.Role != "" || claims.Email != "" {
		t.Fatal("refresh tokens must carry only the principal id")
	}
}

func TestTokenKindsDoNotCross(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss := testIssuer(t, clock)

	access, _ := iss.IssueAccess("p1", "citizen", "a@example.com")
	refresh, _ := iss.IssueRefresh("p1", false)

	if _, err := iss.VerifyRefresh(access); !errors.Is(err, ErrInvalid) {
		t.Fatalf("access token on refresh path: expected ErrInvalid, got %v", err)
	}
	if _, err := iss.VerifyAccess(refresh); !errors.Is(err, ErrInvalid) {
		t.Fatalf("refresh token on access path: expected ErrInvalid, got %v", err)
	}
}

func TestTamperedTokenInvalid(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss := testIssuer(t, clock)

	raw, _ := iss.IssueAccess("p1", "citizen", "a@example.com")
	tampered := raw[:len(raw)-2] + "xx"

	if _, err := iss.VerifyAccess(tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for tampered token, got %v", err)
	}
	if _, err := iss.VerifyAccess("not-a-jwt"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for garbage, got %v", err)
	}
}

func TestNewIssuerConfigValidation(t *testing.T) {
	base := Config{
		AccessSecret:       []byte("a-secret"),
		RefreshSecret:      []byte("r-secret"),
		AccessTTL:          time.Minute,
		RefreshTTL:         time.Hour,
		RememberRefreshTTL: 2 * time.Hour,
	}

	same := base
	same.RefreshSecret = same.AccessSecret
	if _, err := NewIssuer(same); err == nil {
		t.Fatal("expected error for identical secrets")
	}

	empty := base
	empty.AccessSecret = nil
	if _, err := NewIssuer(empty); err == nil {
		t.Fatal("expected error for missing access secret")
	}

	badTTL := base
	badTTL.AccessTTL = 0
	if _, err := NewIssuer(badTTL); err == nil {
		t.Fatal("expected error for zero TTL")
	}
}
