package memstore

import (
	"context"
	"testing"
	"time"

	authcore "github.com/samudra-sahayak/authcore"
	"github.com/samudra-sahayak/authcore/otp"
	"github.com/samudra-sahayak/authcore/ring"
)

func seed(t *testing.T, s *Store) *authcore.Principal {
	t.Helper()
	p, err := s.Create(context.Background(), &authcore.Principal{
		FullName: "Asha Rao",
		Email:    "asha@example.org",
		Phone:    "+919876543210",
		Role:     authcore.RoleCitizen,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return p
}

func TestFindByIdentifier(t *testing.T) {
	s := New()
	p := seed(t, s)

	byEmail, err := s.FindByIdentifier(context.Background(), "asha@example.org")
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if byEmail.ID != p.ID {
		t.Fatalf("by email ID = %q, want %q", byEmail.ID, p.ID)
	}

	byPhone, err := s.FindByIdentifier(context.Background(), "+919876543210")
	if err != nil {
		t.Fatalf("by phone: %v", err)
	}
	if byPhone.ID != p.ID {
		t.Fatalf("by phone ID = %q, want %q", byPhone.ID, p.ID)
	}

	if _, err := s.FindByIdentifier(context.Background(), "nobody@example.org"); err != authcore.ErrPrincipalNotFound {
		t.Fatalf("miss: err = %v, want ErrPrincipalNotFound", err)
	}
}

func TestReadsAreCopies(t *testing.T) {
	s := New()
	p := seed(t, s)

	got, err := s.FindByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	got.Email = "tampered@example.org"
	got.RefreshTokens.Push(ring.Entry{Token: "tampered"})

	again, err := s.FindByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("refind: %v", err)
	}
	if again.Email != "asha@example.org" {
		t.Fatalf("stored email mutated: %q", again.Email)
	}
	if again.RefreshTokens.Len() != 0 {
		t.Fatal("stored ring mutated through a read copy")
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	s := New()
	p := seed(t, s)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		entry := ring.Entry{Token: string(rune('a' + i)), IssuedAt: time.Unix(int64(i), 0)}
		if err := s.PushRefreshToken(ctx, p.ID, entry, 5); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	got, err := s.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.RefreshTokens.Len() != 5 {
		t.Fatalf("ring length = %d, want 5", got.RefreshTokens.Len())
	}
	if got.RefreshTokens.Contains("a") || got.RefreshTokens.Contains("b") {
		t.Fatal("oldest entries should have been evicted")
	}

	removed, err := s.PullRefreshToken(ctx, p.ID, "f")
	if err != nil || !removed {
		t.Fatalf("pull existing: removed=%v err=%v", removed, err)
	}
	removed, err = s.PullRefreshToken(ctx, p.ID, "f")
	if err != nil || removed {
		t.Fatalf("pull again: removed=%v err=%v", removed, err)
	}

	if err := s.ClearRefreshTokens(ctx, p.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = s.FindByID(ctx, p.ID)
	if got.RefreshTokens.Len() != 0 {
		t.Fatalf("ring not cleared: %d entries", got.RefreshTokens.Len())
	}
}

func TestCodeSlots(t *testing.T) {
	s := New()
	p := seed(t, s)
	ctx := context.Background()

	hash := otp.Hash("123456")
	challenge := &authcore.CodeChallenge{Hash: hash, ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.SetCode(ctx, p.ID, otp.PurposeVerify, challenge); err != nil {
		t.Fatalf("set code: %v", err)
	}

	found, err := s.FindByCodeHash(ctx, otp.PurposeVerify, hash)
	if err != nil {
		t.Fatalf("find by hash: %v", err)
	}
	if found.ID != p.ID {
		t.Fatalf("found ID = %q, want %q", found.ID, p.ID)
	}

	// The same hash under the other purpose must miss.
	if _, err := s.FindByCodeHash(ctx, otp.PurposeReset, hash); err != authcore.ErrPrincipalNotFound {
		t.Fatalf("cross-purpose lookup: err = %v", err)
	}

	if err := s.SetCode(ctx, p.ID, otp.PurposeVerify, nil); err != nil {
		t.Fatalf("clear code: %v", err)
	}
	if _, err := s.FindByCodeHash(ctx, otp.PurposeVerify, hash); err != authcore.ErrPrincipalNotFound {
		t.Fatalf("cleared code still resolves: err = %v", err)
	}
}

func TestUpdateUnknownPrincipal(t *testing.T) {
	s := New()
	err := s.Update(context.Background(), &authcore.Principal{ID: "missing"})
	if err != authcore.ErrPrincipalNotFound {
		t.Fatalf("err = %v, want ErrPrincipalNotFound", err)
	}
}
