package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceTokens(t *testing.T) {
	g := NewSequenceTokens("")
	assert.Equal(t, "tok-1", g.Generate())
	assert.Equal(t, "tok-2", g.Generate())
	g.Reset()
	assert.Equal(t, "tok-1", g.Generate())

	assert.Equal(t, "nav-1", NewSequenceTokens("nav").Generate())
}
