package inventory

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/engine"
	"github.com/Jujulu67/djlarian-react-sub002/internal/testutil"
)

func testOptions(clk *testutil.ManualClock) []Option {
	return []Option{
		WithScheduler(clk),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithEngineOptions(engine.WithBatchIDs(testutil.NewSequentialIDs("b"))),
	}
}

func seedItems() []action.UserItem {
	return []action.UserItem{
		{ID: "ui-1", OwnerID: "u1", ItemID: "x", Quantity: 2},
		{ID: "ui-2", OwnerID: "u1", ItemID: "y", Quantity: 1, ActivatedQuantity: 1},
		{ID: "ui-3", OwnerID: "u2", ItemID: "x", Quantity: 1},
	}
}

func newAdmin(t *testing.T, ep *testutil.Endpoint, clk *testutil.ManualClock) *Admin {
	t.Helper()
	a := NewAdmin(ep, ep, testOptions(clk)...)
	require.NoError(t, a.Resync(context.Background()))
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func newLive(t *testing.T, owner string, ep *testutil.Endpoint, clk *testutil.ManualClock) *Live {
	t.Helper()
	l := NewLive(owner, ep, ep, testOptions(clk)...)
	require.NoError(t, l.Resync(context.Background()))
	t.Cleanup(func() { _ = l.Close(context.Background()) })
	return l
}

func settled(t *testing.T, c *engine.Call) action.Result {
	t.Helper()
	select {
	case <-c.Done():
		return c.Result()
	default:
		t.Fatalf("call %s not settled", c.Action())
		return action.Result{}
	}
}
