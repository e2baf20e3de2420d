package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mixedActions = `[
  {"type":"activate","targetId":"A"},
  {"type":"activate","targetId":"A"},
  {"type":"activate","targetId":"A"},
  {"type":"deactivate","targetId":"A"},
  {"type":"addItem","ownerId":"u1","itemId":"x"},
  {"type":"removeItem","ownerId":"u1","itemId":"x"}
]`

func TestOptimizeCommand_TextFromStdin(t *testing.T) {
	out, err := execute(t, mixedActions, "optimize")
	require.NoError(t, err)

	assert.Contains(t, out, "activate x2")
	assert.Contains(t, out, "u1:x")
	assert.Contains(t, out, "6 action(s) -> 2 record(s): activate:A, activate:A")
}

func TestOptimizeCommand_FullCancel(t *testing.T) {
	out, err := execute(t, `[{"type":"addItem","ownerId":"u1","itemId":"x"},{"type":"removeItem","ownerId":"u1","itemId":"x"}]`, "optimize", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "2 action(s) cancel out; nothing would be sent.")
}

func TestOptimizeCommand_JSONFromFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "actions.json", mixedActions)

	out, err := execute(t, "", "--format", "json", "optimize", path)
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Actions   int         `json:"actions"`
			Groups    []PlanGroup `json:"groups"`
			Cancelled int         `json:"cancelled"`
			Dispatch  []struct {
				Type     string `json:"type"`
				TargetID string `json:"targetId"`
			} `json:"dispatch"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 6, resp.Data.Actions)
	assert.Equal(t, 4, resp.Data.Cancelled)
	assert.Equal(t, []PlanGroup{
		{Key: "A", Positive: 3, Negative: 1, Net: 2, Kind: "activate"},
		{Key: "u1:x", Positive: 1, Negative: 1, Net: 0},
	}, resp.Data.Groups)
	require.Len(t, resp.Data.Dispatch, 2)
	assert.Equal(t, "A", resp.Data.Dispatch[0].TargetID)
}

func TestOptimizeCommand_BadInput(t *testing.T) {
	_, err := execute(t, `[{"type":"fly"}]`, "optimize")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
