package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator issues the token a cancellable proposal is checked
// against before it may reach accept.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator issues UUIDv7 tokens. Later tokens sort after earlier
// ones, which keeps journaled traces readable. The zero value is ready
// and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a fresh hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out a scripted list of tokens, for tests that
// assert on token values.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	next   int
}

// NewFixedGenerator returns a generator issuing tokens in order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next scripted token. Running out is a test bug and
// panics.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.next == len(g.tokens) {
		panic(fmt.Sprintf("samwire: fixed token generator exhausted after %d tokens", len(g.tokens)))
	}
	tok := g.tokens[g.next]
	g.next++
	return tok
}

// Remaining reports how many scripted tokens are left.
func (g *FixedGenerator) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tokens) - g.next
}
