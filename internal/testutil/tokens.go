package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/samwire/internal/engine"
)

var _ engine.TokenGenerator = (*SequenceTokens)(nil)

// SequenceTokens generates cancellation tokens "<prefix>-1", "<prefix>-2"
// and so on. Unlike engine.FixedGenerator it never runs out, which suits
// scenarios whose length is not known up front.
//
// Thread-safety: safe for concurrent use.
type SequenceTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceTokens creates a generator. An empty prefix means "tok".
func NewSequenceTokens(prefix string) *SequenceTokens {
	if prefix == "" {
		prefix = "tok"
	}
	return &SequenceTokens{prefix: prefix}
}

// Generate implements engine.TokenGenerator.
func (g *SequenceTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence.
func (g *SequenceTokens) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
