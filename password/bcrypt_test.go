package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testHasher(t *testing.T, cost int) *Hasher {
	t.Helper()
	h, err := NewHasher(Config{Cost: cost})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := testHasher(t, bcrypt.MinCost)

	hash, err := h.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	ok, err := h.Verify("correct-horse-battery", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = h.Verify("wrong-password-00", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("expected mismatching password to fail verification")
	}
}

func TestHashRejectsShortPasswords(t *testing.T) {
	h := testHasher(t, bcrypt.MinCost)

	if _, err := h.Hash("short"); err == nil {
		t.Fatal("expected error for password below 8 bytes")
	}
}

func TestLongPasswordsTruncateConsistently(t *testing.T) {
	h := testHasher(t, bcrypt.MinCost)

	long := strings.Repeat("a", 100)
	hash, err := h.Hash(long)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	// Everything beyond 72 bytes is ignored on both sides.
	ok, err := h.Verify(strings.Repeat("a", 72)+"different-tail", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Fatal("expected truncated comparison to match")
	}
}

func TestVerifyMalformedHashIsError(t *testing.T) {
	h := testHasher(t, bcrypt.MinCost)

	if _, err := h.Verify("whatever-password", "not-a-bcrypt-hash"); err == nil {
		t.Fatal("expected error for malformed stored hash")
	}
}

func TestNeedsRehash(t *testing.T) {
	low := testHasher(t, bcrypt.MinCost)
	high := testHasher(t, bcrypt.MinCost+2)

	hash, err := low.Hash("some-long-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	needs, err := high.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash failed: %v", err)
	}
	if !needs {
		t.Fatal("expected hash at lower cost to need rehash")
	}

	needs, err = low.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash failed: %v", err)
	}
	if needs {
		t.Fatal("hash at configured cost must not need rehash")
	}
}

func TestNewHasherRejectsBadCost(t *testing.T) {
	if _, err := NewHasher(Config{Cost: bcrypt.MaxCost + 1}); err == nil {
		t.Fatal("expected error for cost above bcrypt maximum")
	}
}
