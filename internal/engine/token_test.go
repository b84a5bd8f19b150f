package engine

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/samwire/internal/model"
)

func TestUUIDv7Generator_IssuesVersion7(t *testing.T) {
	parsed, err := uuid.Parse(UUIDv7Generator{}.Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_UniqueAcrossGoroutines(t *testing.T) {
	const n = 64
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok := UUIDv7Generator{}.Generate()
			mu.Lock()
			seen[tok] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestUUIDv7Generator_SortsByIssueOrder(t *testing.T) {
	var toks []string
	for i := 0; i < 10; i++ {
		toks = append(toks, UUIDv7Generator{}.Generate())
	}
	assert.True(t, sort.StringsAreSorted(toks))
}

func TestFixedGenerator_ScriptedOrder(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, 2, gen.Remaining())
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Equal(t, 0, gen.Remaining())
	assert.PanicsWithValue(t, "samwire: fixed token generator exhausted after 2 tokens", func() { gen.Generate() })
}

func TestFixedGenerator_OnlyCancellableProposalsConsume(t *testing.T) {
	gen := NewFixedGenerator("only")
	p := NewPipeline(
		func(context.Context, model.Object) error { return nil },
		func(context.Context, Phase) error { return nil },
		WithTokens(gen),
		WithScheduler(NewLoop()),
	)
	ctx := context.Background()
	_, err := p.Propose(ctx, Proposal{Name: "plain", Value: Resolved(nil)})
	require.NoError(t, err)
	assert.Equal(t, 1, gen.Remaining())

	_, err = p.Propose(ctx, Proposal{Name: "route", Value: Resolved(nil), Cancellable: true})
	require.NoError(t, err)
	assert.Equal(t, 0, gen.Remaining())
}
