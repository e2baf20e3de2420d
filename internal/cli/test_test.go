package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommand_MissingArgs(t *testing.T) {
	_, err := execute(t, "", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommand_NonExistentPath(t *testing.T) {
	_, err := execute(t, "", "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "path not found")
}

func TestTestCommand_EmptyDir(t *testing.T) {
	out, err := execute(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommand_PassAndFail(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_pass.yaml", passingScenario)
	writeFile(t, dir, "b_fail.yml", failingScenario)
	writeFile(t, dir, "notes.txt", "ignored")

	out, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ net_activations")
	assert.Contains(t, out, "✗ wrong_expectation")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_pass.yaml", passingScenario)
	writeFile(t, dir, "b_fail.yaml", failingScenario)

	out, err := execute(t, "", "test", dir, "--filter", "a_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_GoldenUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "scenarios/net.yaml", passingScenario)
	golden := filepath.Join(dir, "golden")

	_, err := execute(t, "", "test", scenario, "--golden-dir", golden, "--update")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(golden, "net_activations.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"net_activations"`)

	_, err = execute(t, "", "test", scenario, "--golden-dir", golden)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(golden, "net_activations.golden"), []byte("{}"), 0o644))
	out, err := execute(t, "", "test", scenario, "--golden-dir", golden)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_UpdateRequiresGoldenDir(t *testing.T) {
	_, err := execute(t, "", "test", t.TempDir(), "--update")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--update requires --golden-dir")
}

func TestTestCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_pass.yaml", passingScenario)
	writeFile(t, dir, "b_fail.yaml", failingScenario)

	out, err := execute(t, "", "--format", "json", "test", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}
