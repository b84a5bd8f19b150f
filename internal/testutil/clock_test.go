package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/samwire/internal/engine"
)

func TestDeterministicClock_StartsAtOne(t *testing.T) {
	c := NewDeterministicClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestDeterministicClock_ResetRewindsToStart(t *testing.T) {
	c := NewDeterministicClockAt(100)
	assert.Equal(t, int64(101), c.Next())
	c.Next()
	c.Reset()
	assert.Equal(t, int64(100), c.Current())
	assert.Equal(t, int64(101), c.Next())
}

func TestDeterministicClock_Concurrent(t *testing.T) {
	c := NewDeterministicClock()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Next()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), c.Current())
}

func TestDeterministicClock_StampsBus(t *testing.T) {
	c := NewDeterministicClock()
	rec := NewRecorder()
	bus := engine.NewBus(c, rec)
	bus.Emit(engine.Event{Kind: engine.KindRender})
	bus.Emit(engine.Event{Kind: engine.KindProposal, Outcome: engine.OutcomeEmpty})

	evs := rec.Events()
	assert.Equal(t, int64(1), evs[0].Seq)
	assert.Equal(t, int64(2), evs[1].Seq)
	assert.Equal(t, []engine.Outcome{engine.OutcomeEmpty}, rec.Outcomes())

	rec.Reset()
	assert.Empty(t, rec.Events())
}
