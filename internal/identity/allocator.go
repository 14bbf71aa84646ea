package identity

import (
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// Unknown is the sentinel browser clients send when they have no identity yet.
const Unknown = "unknown"

const (
	generatedPrefix = "web-"
	generatedSpace  = 100000
)

// Allocator hands out client identities for session bootstrap.
//
// Caller-supplied identities are trusted verbatim. Generated identities are
// best-effort unique; collisions are possible and accepted.
type Allocator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAllocator builds an allocator over src. A nil src seeds from the clock.
func NewAllocator(src rand.Source) *Allocator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Allocator{rng: rand.New(src)}
}

func (a *Allocator) Allocate(requested string) string {
	if requested != "" && requested != Unknown {
		return requested
	}

	a.mu.Lock()
	n := a.rng.Intn(generatedSpace)
	a.mu.Unlock()

	return generatedPrefix + strconv.Itoa(n)
}
