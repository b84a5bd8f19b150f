package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRender_Text(t *testing.T) {
	out, err := execute(t, "render", "--propose", `{"add": "milk"}`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `<span class="text">milk</span>`)
}

func TestRender_JSON(t *testing.T) {
	out, err := execute(t, "render", "--format", "json", "--path", "/index?filter=done")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			HTML  string         `json:"html"`
			Model map[string]any `json:"model"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "done", resp.Data.Model["filter"])
	assert.Equal(t, "index", resp.Data.Model["page"])
	assert.Contains(t, resp.Data.HTML, `data-filter="done"`)
}

func TestRender_Manifest(t *testing.T) {
	out, err := execute(t, "render", "--manifest", "../../testdata/manifests/todos.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Shopping</title>")
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"missing manifest", []string{"--manifest", "/nonexistent.cue"}, ExitCommandError, "manifest not found"},
		{"bad proposal", []string{"--propose", "{nope"}, ExitCommandError, "invalid --propose[0]"},
		{"rejected proposal", []string{"--propose", `{"toggle": 4}`}, ExitFailure, "render failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"render"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
