package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionResult_RoundTripsIdentity(t *testing.T) {
	r := ResultFor(RemoveItem("u1", "x"), false, "not owned")
	assert.Equal(t, "removeItem", r.Type)
	assert.Equal(t, "not owned", r.Error)

	a, err := r.Action()
	require.NoError(t, err)
	assert.Equal(t, RemoveItem("u1", "x"), a)
}

func TestActionResult_ActionRejectsBadIdentity(t *testing.T) {
	_, err := ActionResult{Type: "activate"}.Action()
	assert.Error(t, err)

	_, err = ActionResult{Type: "nope", TargetID: "a"}.Action()
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	results := []ActionResult{
		ResultFor(Activate("a"), true, ""),
		ResultFor(Activate("a"), false, "capacity exceeded"),
		ResultFor(AddItem("u", "x"), true, ""),
	}
	assert.Equal(t, Summary{Total: 3, Success: 2, Errors: 1}, Summarize(results))
	assert.Equal(t, Summary{}, Summarize(nil))

	assert.True(t, BatchOutcome{Results: results}.HasFailures())
	assert.False(t, BatchOutcome{Results: results[:1]}.HasFailures())
}

func TestResultConstructors(t *testing.T) {
	ok := Succeeded("b-1")
	assert.True(t, ok.Success)
	assert.Equal(t, "b-1", ok.BatchID)

	bad := Failed("b-2", "boom")
	assert.False(t, bad.Success)
	assert.Equal(t, "boom", bad.Error)
}
