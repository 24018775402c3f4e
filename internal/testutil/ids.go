package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns predetermined node IDs in order, then falls back
// to "extra-N" once they are used up.
//
// This makes builder and session tests deterministic: the IDs a test expects
// are written down next to the edits that create them.
//
// Implements builder.IDGenerator. Safe for concurrent use.
type FixedIDGenerator struct {
	mu    sync.Mutex
	ids   []string
	idx   int
	extra int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedIDGenerator("root", "c1")
//	gen.Generate() // "root"
//	gen.Generate() // "c1"
//	gen.Generate() // "extra-1"
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx < len(g.ids) {
		id := g.ids[g.idx]
		g.idx++
		return id
	}
	g.extra++
	return fmt.Sprintf("extra-%d", g.extra)
}
