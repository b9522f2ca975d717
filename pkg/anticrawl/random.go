package anticrawl

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// Source yields the pseudo-random numbers behind every selection decision:
// signature draws, random proxy draws, locale and referrer choices, and
// delay sampling. Implementations must be safe for concurrent use.
type Source interface {
	// IntN returns a uniform int in [0, n). n must be positive.
	IntN(n int) int

	// Float64 returns a uniform float64 in [0.0, 1.0).
	Float64() float64
}

// defaultSource draws from the shared math/rand/v2 generator, which is
// already safe for concurrent use.
type defaultSource struct{}

func (defaultSource) IntN(n int) int   { return rand.IntN(n) }
func (defaultSource) Float64() float64 { return rand.Float64() }

// DefaultSource returns the production random source.
func DefaultSource() Source {
	return defaultSource{}
}

// seededSource wraps a deterministic generator behind a mutex so concurrent
// draws stay valid during tests.
type seededSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededSource returns a deterministic Source. Two sources built from the
// same seed produce the same draw sequence, which makes identity bundles
// reproducible for replay-based testing.
func NewSeededSource(seed uint64) Source {
	return &seededSource{r: rand.New(rand.NewPCG(seed, seed))}
}

func (s *seededSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Cursor is the monotonically advancing rotation cursor shared by all
// workers drawing from one sequential pool. Each pool owns its own Cursor;
// there is no process-wide rotation state. The zero value starts at
// position zero.
type Cursor struct {
	n atomic.Uint64
}

// Next atomically claims the current position and advances the cursor,
// returning the claimed position reduced modulo size. Concurrent callers
// each receive a distinct position until the cursor wraps past size.
func (c *Cursor) Next(size int) int {
	return int((c.n.Add(1) - 1) % uint64(size))
}

// Pos reports the number of positions claimed so far.
func (c *Cursor) Pos() uint64 {
	return c.n.Load()
}
