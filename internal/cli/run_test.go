package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_MissingArg(t *testing.T) {
	_, err := execute(t, "", "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestRunCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "", "run", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}

func TestRunCommand_TextTrace(t *testing.T) {
	path := writeFile(t, t.TempDir(), "net.yaml", passingScenario)

	out, err := execute(t, "", "run", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Scenario: net_activations")
	assert.Contains(t, out, "dispatch")
	assert.Contains(t, out, "activate:A, activate:A")
	assert.Contains(t, out, "cancelled")
	assert.Contains(t, out, "Requests: 1  Success: 4  Failure: 0  Cancelled: 1")
	assert.Contains(t, out, "✓ expectations met")
}

func TestRunCommand_FailingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong.yaml", failingScenario)

	out, err := execute(t, "", "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Assertion failed: batches")
	assert.Contains(t, out, "✗ expectations failed")
}

func TestRunCommand_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "net.yaml", passingScenario)

	out, err := execute(t, "", "--format", "json", "run", path)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Name   string `json:"name"`
			Result struct {
				Pass    bool       `json:"pass"`
				Batches [][]string `json:"batches"`
			} `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "net_activations", resp.Data.Name)
	assert.True(t, resp.Data.Result.Pass)
	assert.Equal(t, [][]string{{"activate:A", "activate:A"}}, resp.Data.Result.Batches)
}
