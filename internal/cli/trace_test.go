package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceCommand_RequiresDB(t *testing.T) {
	_, err := execute(t, "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestTraceCommand_ScenarioThenRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	scenario := filepath.Join(scenariosDir, "hydrate_replay.yaml")

	out, err := execute(t, "trace", "--db", db, "--scenario", scenario)
	require.NoError(t, err)
	assert.Contains(t, out, "Run: hydrate_replay")
	assert.Contains(t, out, "replay")
	assert.Contains(t, out, "Events: 8 (proposals 2, renders 5, replays 1)")
	assert.Contains(t, out, "accepted: 2")

	out, err = execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "hydrate_replay\n", out)

	out, err = execute(t, "trace", "--db", db, "--run", "hydrate_replay", "--kind", "replay", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 1)
	assert.Equal(t, "add", resp.Data.Timeline[0].Name)
	assert.Equal(t, 8, resp.Data.Stats.TotalEvents)
	assert.Equal(t, 2, resp.Data.Stats.Outcomes["accepted"])
}

func TestTraceCommand_UnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	out, err := execute(t, "trace", "--db", db, "--run", "nope")
	require.NoError(t, err)
	assert.Contains(t, out, "No events found for run: nope")

	out, err = execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs journaled.")
}
