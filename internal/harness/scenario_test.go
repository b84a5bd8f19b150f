package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(scenarioPath("manifest_filter"))
	require.NoError(t, err)

	assert.Equal(t, "manifest_filter", s.Name)
	assert.Equal(t, filepath.Join("..", "..", "testdata", "manifests", "todos.cue"), s.Manifest)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "filter", s.Steps[0].Call)
	assert.Equal(t, []any{"someday"}, s.Steps[0].Args)
	assert.Equal(t, "active", s.Steps[1].Fire.Text)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: has a typo
step:
  - call: clear
assertions:
  - type: event_count
    kind: render
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing name", `
description: d
steps: [{call: clear}]
assertions: [{type: event_count, kind: render}]
`, "name is required"},
		{"missing description", `
name: n
steps: [{call: clear}]
assertions: [{type: event_count, kind: render}]
`, "description is required"},
		{"no steps", `
name: n
description: d
assertions: [{type: event_count, kind: render}]
`, "steps list is required"},
		{"no assertions", `
name: n
description: d
steps: [{call: clear}]
`, "assertions list is required"},
		{"early without ssr", `
name: n
description: d
early: [{type: click, id: x}]
steps: [{call: clear}]
assertions: [{type: event_count, kind: render}]
`, "require ssr"},
		{"two step kinds", `
name: n
description: d
steps: [{call: clear, navigate: {from: "/", to: "/a"}}]
assertions: [{type: event_count, kind: render}]
`, "exactly one of call, fire and navigate"},
		{"fire without target", `
name: n
description: d
steps: [{fire: {type: click}}]
assertions: [{type: event_count, kind: render}]
`, "exactly one of id and action"},
		{"navigate without to", `
name: n
description: d
steps: [{navigate: {from: "/"}}]
assertions: [{type: event_count, kind: render}]
`, "from and to are required"},
		{"unknown assertion", `
name: n
description: d
steps: [{call: clear}]
assertions: [{type: vibes}]
`, "unknown assertion type"},
		{"outcome_count without outcome", `
name: n
description: d
steps: [{call: clear}]
assertions: [{type: outcome_count, count: 1}]
`, "outcome is required"},
		{"missing manifest", `
name: n
description: d
manifest: nope.cue
steps: [{call: clear}]
assertions: [{type: event_count, kind: render}]
`, "manifest file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
