package ring

import (
	"fmt"
	"testing"
	"time"
)

func entry(token string) Entry {
	return Entry{Token: token, IssuedAt: time.Now()}
}

func TestPushEvictsOldest(t *testing.T) {
	r := New(5)

	for i := 1; i <= 8; i++ {
		r.Push(entry(fmt.Sprintf("t%d", i)))
	}

	if r.Len() != 5 {
		t.Fatalf("expected len 5 after 8 pushes, got %d", r.Len())
	}

	// The five most recent tokens survive, oldest first.
	want := []string{"t4", "t5", "t6", "t7", "t8"}
	got := r.Entries()
	for i, w := range want {
		if got[i].Token != w {
			t.Fatalf("entry %d: expected %s, got %s", i, w, got[i].Token)
		}
	}

	if r.Contains("t1") || r.Contains("t3") {
		t.Fatal("evicted tokens must not remain in the ring")
	}
}

func TestRemoveDeletesExactlyOne(t *testing.T) {
	r := New(5)
	r.Push(entry("a"))
	r.Push(entry("b"))
	r.Push(entry("c"))

	if !r.Remove("b") {
		t.Fatal("expected Remove to report success for a present token")
	}
	if r.Remove("b") {
		t.Fatal("second Remove of the same token must report false")
	}
	if r.Len() != 2 {
		t.Fatalf("expected len 2, got %d", r.Len())
	}
	if !r.Contains("a") || !r.Contains("c") {
		t.Fatal("untouched tokens must remain")
	}
}

func TestRemoveMissingToken(t *testing.T) {
	r := New(3)
	r.Push(entry("a"))

	if r.Remove("nope") {
		t.Fatal("Remove of absent token must report false")
	}
	if r.Len() != 1 {
		t.Fatalf("expected len 1, got %d", r.Len())
	}
}

func TestClear(t *testing.T) {
	r := New(3)
	r.Push(entry("a"))
	r.Push(entry("b"))
	r.Clear()

	if r.Len() != 0 {
		t.Fatalf("expected empty ring after Clear, got len %d", r.Len())
	}
	if r.Capacity() != 3 {
		t.Fatalf("Clear must not change capacity, got %d", r.Capacity())
	}

	// The ring stays usable after Clear.
	r.Push(entry("c"))
	if !r.Contains("c") {
		t.Fatal("push after Clear failed")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := New(3)
	r.Push(entry("a"))

	c := r.Clone()
	c.Push(entry("b"))

	if r.Len() != 1 {
		t.Fatalf("mutating the clone must not affect the original, len %d", r.Len())
	}
	if c.Len() != 2 {
		t.Fatalf("expected clone len 2, got %d", c.Len())
	}
}

func TestMinimumCapacity(t *testing.T) {
	r := New(0)
	r.Push(entry("a"))
	r.Push(entry("b"))

	if r.Len() != 1 {
		t.Fatalf("capacity floor is one entry, got len %d", r.Len())
	}
	if !r.Contains("b") {
		t.Fatal("newest entry must win under capacity pressure")
	}
}
