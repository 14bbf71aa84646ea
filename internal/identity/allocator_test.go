package identity

import (
	"math/rand"
	"regexp"
	"strconv"
	"sync"
	"testing"
)

var generatedPattern = regexp.MustCompile(`^web-\d{1,5}$`)

func TestAllocate_GeneratesForMissingOrUnknown(t *testing.T) {
	a := NewAllocator(rand.NewSource(1))

	for _, in := range []string{"", Unknown} {
		got := a.Allocate(in)
		if !generatedPattern.MatchString(got) {
			t.Fatalf("Allocate(%q) = %q, want web-<n>", in, got)
		}
	}
}

func TestAllocate_KeepsRequestedVerbatim(t *testing.T) {
	a := NewAllocator(rand.NewSource(1))

	for _, in := range []string{"bob", "Unknown", "client:alice", "  spaced  ", "+15551234567"} {
		if got := a.Allocate(in); got != in {
			t.Fatalf("Allocate(%q) = %q", in, got)
		}
	}
}

func TestAllocate_DeterministicWithSeededSource(t *testing.T) {
	want := "web-" + strconv.Itoa(rand.New(rand.NewSource(42)).Intn(100000))

	a := NewAllocator(rand.NewSource(42))
	if got := a.Allocate(""); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestAllocate_ConcurrentUse(t *testing.T) {
	a := NewAllocator(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := a.Allocate(""); !generatedPattern.MatchString(got) {
					t.Errorf("unexpected identity %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
