package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

func TestApplyBatch_PartialSuccess(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seed(t, s, action.UserItem{ID: "ui-1", OwnerID: "u1", ItemID: "x", Quantity: 1})

	outcome, replayed, err := s.ApplyBatch(ctx, action.BatchRequest{
		BatchID: "b-1",
		Actions: []action.Action{
			action.Activate("ui-1"),
			action.Activate("ui-1"),
			action.AddItem("u1", "y"),
		},
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	require.Len(t, outcome.Results, 3)
	assert.True(t, outcome.Results[0].Success)
	assert.False(t, outcome.Results[1].Success)
	assert.Equal(t, "capacity exceeded", outcome.Results[1].Error)
	assert.True(t, outcome.Results[2].Success)
	assert.Equal(t, action.Summary{Total: 3, Success: 2, Errors: 1}, outcome.Summary)

	items, err := s.ListOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestApplyBatch_ReplayIsIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	req := action.BatchRequest{
		BatchID: "b-7",
		Actions: []action.Action{action.AddItem("u1", "x"), action.AddItem("u1", "x")},
	}

	first, replayed, err := s.ApplyBatch(ctx, req)
	require.NoError(t, err)
	require.False(t, replayed)

	second, replayed, err := s.ApplyBatch(ctx, req)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first, second)

	items, err := s.ListOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity, "replay applied nothing")
}

func TestApplyBatch_AuditLog(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b-1", "b-2"} {
		_, _, err := s.ApplyBatch(ctx, action.BatchRequest{
			BatchID: id,
			Actions: []action.Action{action.RemoveItem("u1", "x")},
		})
		require.NoError(t, err)
	}

	recs, err := s.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1), recs[0].Seq)
	assert.Equal(t, int64(2), recs[1].Seq)
	assert.Equal(t, action.Summary{Total: 1, Errors: 1}, recs[1].Summary)

	rec, err := s.GetBatch(ctx, "b-2")
	require.NoError(t, err)
	assert.Equal(t, "b-2", rec.ID)
	require.Len(t, rec.Outcome.Results, 1)
	assert.Contains(t, rec.Outcome.Results[0].Error, "not found")

	_, err = s.GetBatch(ctx, "b-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyBatch_RequiresID(t *testing.T) {
	s := createTestStore(t)
	_, _, err := s.ApplyBatch(context.Background(), action.BatchRequest{})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestApplyRecords_RejectedKeepsOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rejected := action.ActionResult{Type: "fly", Error: "invalid action"}
	outcome, replayed, err := s.ApplyRecords(ctx, "b-r", []Record{
		{Action: action.AddItem("u1", "x")},
		{Rejected: &rejected},
		{Action: action.RemoveItem("u1", "x")},
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	require.Len(t, outcome.Results, 3)
	assert.Equal(t, "addItem", outcome.Results[0].Type)
	assert.Equal(t, rejected, outcome.Results[1])
	assert.Equal(t, "removeItem", outcome.Results[2].Type)
	assert.Equal(t, action.Summary{Total: 3, Success: 2, Errors: 1}, outcome.Summary)

	again, replayed, err := s.ApplyRecords(ctx, "b-r", nil)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, outcome, again)
}
