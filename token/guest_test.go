package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testGuest(t *testing.T, clock *fakeClock) *Guest {
	t.Helper()
	g, err := NewGuest([]byte("access-secret-for-tests"), 10*time.Minute, clock.Now)
	if err != nil {
		t.Fatalf("NewGuest failed: %v", err)
	}
	return g
}

func TestGuestIssueAndVerify(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := testGuest(t, clock)

	raw, expiresIn, err := g.Issue()
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if expiresIn != 600 {
		t.Fatalf("expected 600 second lifetime, got %d", expiresIn)
	}
	if !strings.HasPrefix(raw, GuestPrefix) {
		t.Fatalf("guest token must carry the %q prefix, got %q", GuestPrefix, raw[:12])
	}

	claims, err := g.Verify(raw)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.RegisteredClaims.ID == "" {
		t.Fatal("guest claims must carry a session id")
	}
}

func TestGuestValidForFullWindowThenRejected(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := testGuest(t, clock)

	raw, _, err := g.Issue()
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	clock.Advance(9*time.Minute + 59*time.Second)
	if _, err := g.Verify(raw); err != nil {
		t.Fatalf("expected guest token valid inside the window, got %v", err)
	}

	clock.Advance(2 * time.Second)
	if _, err := g.Verify(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired once the window elapses, got %v", err)
	}
}

func TestGuestVerifyRequiresPrefix(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := testGuest(t, clock)

	raw, _, _ := g.Issue()
	if _, err := g.Verify(strings.TrimPrefix(raw, GuestPrefix)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unprefixed token, got %v", err)
	}
}

func TestGuestRejectsAccessToken(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := testGuest(t, clock)
	iss := testIssuer(t, clock)

	access, _ := iss.IssueAccess("p1", "citizen", "a@example.com")
	if _, err := g.Verify(GuestPrefix + access); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for prefixed access token, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss := testIssuer(t, clock)
	g := testGuest(t, clock)
	c := NewClassifier(iss, g)

	// Missing credential is anonymous, not an error.
	id, err := c.Classify("")
	if err != nil {
		t.Fatalf("Classify empty failed: %v", err)
	}
	if id.Kind != KindAnonymous {
		t.Fatalf("expected KindAnonymous, got %v", id.Kind)
	}

	guestTok, _, _ := g.Issue()
	id, err = c.Classify(guestTok)
	if err != nil {
		t.Fatalf("Classify guest failed: %v", err)
	}
	if id.Kind != KindGuest || id.GuestID == "" {
		t.Fatalf("expected guest identity, got %+v", id)
	}

	access, _ := iss.IssueAccess("p1", "official", "o@example.com")
	id, err = c.Classify(access)
	if err != nil {
		t.Fatalf("Classify access failed: %v", err)
	}
	if id.Kind != KindAuthenticated || id.Claims == nil || id.Claims.ID != "p1" {
		t.Fatalf("expected authenticated identity, got %+v", id)
	}

	if _, err := c.Classify("garbage-token"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for garbage credential, got %v", err)
	}
}
