package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/server"
	"github.com/Jujulu67/djlarian-react-sub002/internal/store"
)

func newEndpoint(t *testing.T, token string, items ...action.UserItem) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	for _, it := range items {
		require.NoError(t, st.PutItem(context.Background(), it))
	}
	srv := httptest.NewServer(server.New(st, server.Config{
		Token:  token,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}))
	t.Cleanup(srv.Close)
	return srv, st
}

func TestSendCommand_Success(t *testing.T) {
	srv, st := newEndpoint(t, "secret",
		action.UserItem{ID: "ui-1", OwnerID: "u1", ItemID: "x", Quantity: 3},
	)

	out, err := execute(t, `[
		{"type":"activate","targetId":"ui-1"},
		{"type":"activate","targetId":"ui-1"},
		{"type":"deactivate","targetId":"ui-1"},
		{"type":"addItem","ownerId":"u1","itemId":"y"}
	]`, "send", "--url", srv.URL, "--token", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "activate:ui-1")
	assert.Contains(t, out, "cancelled")

	it, err := st.GetItem(context.Background(), "ui-1")
	require.NoError(t, err)
	assert.Equal(t, 1, it.ActivatedQuantity)

	items, err := st.ListOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSendCommand_RecordFailureExitsOne(t *testing.T) {
	srv, _ := newEndpoint(t, "")

	out, err := execute(t, `[{"type":"removeItem","ownerId":"u1","itemId":"ghost"}]`, "send", "--url", srv.URL)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed:")
}

func TestSendCommand_Unauthorized(t *testing.T) {
	srv, _ := newEndpoint(t, "secret")

	out, err := execute(t, `[{"type":"addItem","ownerId":"u1","itemId":"x"}]`, "--format", "json", "send", "--url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, out, "TRANSPORT_FAILURE")
	assert.Contains(t, out, "E_CALLS_FAILED")
}
