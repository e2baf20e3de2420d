package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/batchclient"
	"github.com/Jujulu67/djlarian-react-sub002/internal/engine"
	"github.com/Jujulu67/djlarian-react-sub002/internal/inventory"
	"github.com/Jujulu67/djlarian-react-sub002/internal/store"
	"github.com/Jujulu67/djlarian-react-sub002/internal/testutil"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cfg Config, items ...action.UserItem) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	for _, it := range items {
		require.NoError(t, st.PutItem(context.Background(), it))
	}

	cfg.Logger = discard()
	srv := httptest.NewServer(New(st, cfg))
	t.Cleanup(srv.Close)
	return srv, st
}

func post(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload.Code
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, Config{Token: "secret"})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health needs no token")
}

func TestServer_BatchAppliesUnits(t *testing.T) {
	srv, st := newTestServer(t, Config{},
		action.UserItem{ID: "ui-1", OwnerID: "u1", ItemID: "x", Quantity: 1},
	)

	resp := post(t, srv.URL+"/api/inventory/batch", "", `{"batchId":"b-1","actions":[
		{"type":"activate","targetId":"ui-1"},
		{"type":"activate","targetId":"ui-1"},
		{"type":"addItem","ownerId":"u1","itemId":"y"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var outcome action.BatchOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	assert.Equal(t, action.Summary{Total: 3, Success: 2, Errors: 1}, outcome.Summary)
	assert.Equal(t, "capacity exceeded", outcome.Results[1].Error)

	it, err := st.GetItem(context.Background(), "ui-1")
	require.NoError(t, err)
	assert.Equal(t, 1, it.ActivatedQuantity)
}

func TestServer_BatchReplay(t *testing.T) {
	srv, st := newTestServer(t, Config{})
	body := `{"batchId":"b-9","actions":[{"type":"addItem","ownerId":"u1","itemId":"x"}]}`

	first := post(t, srv.URL+"/api/inventory/batch", "", body)
	require.Equal(t, http.StatusOK, first.StatusCode)
	assert.Empty(t, first.Header.Get("Idempotent-Replayed"))

	second := post(t, srv.URL+"/api/inventory/batch", "", body)
	require.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))

	items, err := st.ListOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestServer_BatchRejectsBadRequests(t *testing.T) {
	srv, _ := newTestServer(t, Config{MaxBodyBytes: 128})
	url := srv.URL + "/api/inventory/batch"

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"invalid json", `{`, http.StatusBadRequest, "bad_request"},
		{"actions not a list", `{"batchId":"b","actions":{"type":"activate"}}`, http.StatusBadRequest, "bad_request"},
		{"no batch id", `{"actions":[{"type":"activate","targetId":"A"}]}`, http.StatusBadRequest, "bad_request"},
		{"empty actions", `{"batchId":"b","actions":[]}`, http.StatusBadRequest, "bad_request"},
		{"too large", `{"batchId":"` + strings.Repeat("x", 256) + `","actions":[]}`, http.StatusRequestEntityTooLarge, "payload_too_large"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, url, "", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, resp))
		})
	}
}

func TestServer_BatchInvalidRecordFailsAlone(t *testing.T) {
	srv, st := newTestServer(t, Config{})

	resp := post(t, srv.URL+"/api/inventory/batch", "", `{"batchId":"b-mixed","actions":[
		{"type":"addItem","ownerId":"u1","itemId":"x"},
		{"type":"fly","targetId":"A"},
		{"type":"activate"},
		null,
		{"type":"addItem","ownerId":"u1","itemId":"x"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var outcome action.BatchOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	require.Len(t, outcome.Results, 5)
	assert.Equal(t, action.Summary{Total: 5, Success: 2, Errors: 3}, outcome.Summary)

	assert.True(t, outcome.Results[0].Success)
	assert.False(t, outcome.Results[1].Success)
	assert.Equal(t, "fly", outcome.Results[1].Type)
	assert.Equal(t, "A", outcome.Results[1].TargetID)
	assert.Contains(t, outcome.Results[1].Error, "invalid action")
	assert.False(t, outcome.Results[2].Success)
	assert.Contains(t, outcome.Results[2].Error, "target id is required")
	assert.False(t, outcome.Results[3].Success)
	assert.True(t, outcome.Results[4].Success)

	items, err := st.ListOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity, "valid records still applied")

	rec, err := st.GetBatch(context.Background(), "b-mixed")
	require.NoError(t, err)
	assert.Equal(t, outcome.Summary, rec.Summary)
}

func TestServer_BatchIdempotencyKeyHeader(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/inventory/batch",
		strings.NewReader(`{"actions":[{"type":"addItem","ownerId":"u1","itemId":"x"}]}`))
	require.NoError(t, err)
	req.Header.Set("Idempotency-Key", "from-header")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_TokenRequired(t *testing.T) {
	srv, _ := newTestServer(t, Config{Token: "secret"})
	body := `{"batchId":"b","actions":[{"type":"addItem","ownerId":"u1","itemId":"x"}]}`

	resp := post(t, srv.URL+"/api/inventory/batch", "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, srv.URL+"/api/inventory/batch", "wrong", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, srv.URL+"/api/inventory/batch", "secret", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Routes(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/inventory/batch")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ReadEndpointsThroughClient(t *testing.T) {
	srv, _ := newTestServer(t, Config{Token: "t"},
		action.UserItem{ID: "ui-1", OwnerID: "u1", ItemID: "x", Quantity: 2, ActivatedQuantity: 1},
		action.UserItem{ID: "ui-2", OwnerID: "u2", ItemID: "x", Quantity: 1},
	)
	client := batchclient.New(srv.URL, "t", batchclient.WithLogger(discard()))
	ctx := context.Background()

	require.NoError(t, client.Health(ctx))

	owner, err := client.FetchOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner.OwnerID)
	assert.Equal(t, []action.UserItem{
		{ID: "ui-1", OwnerID: "u1", ItemID: "x", Quantity: 2, ActivatedQuantity: 1},
	}, owner.Items)

	all, err := client.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	empty, err := client.FetchOwner(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestServer_AdminBatches(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	post(t, srv.URL+"/api/inventory/batch", "", `{"batchId":"b-1","actions":[{"type":"removeItem","ownerId":"u1","itemId":"x"}]}`)

	resp, err := http.Get(srv.URL + "/api/admin/batches")
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload struct {
		Batches []batchSummary `json:"batches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Batches, 1)
	assert.Equal(t, "b-1", payload.Batches[0].ID)
	assert.Equal(t, 1, payload.Batches[0].Summary.Errors)
}

// End to end: live adapter -> dispatcher -> HTTP client -> server -> SQLite.
func TestServer_LiveAdapterEndToEnd(t *testing.T) {
	srv, st := newTestServer(t, Config{Token: "t"},
		action.UserItem{ID: "ui-1", OwnerID: "u1", ItemID: "x", Quantity: 2},
	)
	client := batchclient.New(srv.URL, "t", batchclient.WithLogger(discard()))
	clk := testutil.NewManualClock()

	live := inventory.NewLive("u1", client, client,
		inventory.WithScheduler(clk),
		inventory.WithLogger(discard()),
		inventory.WithEngineOptions(engine.WithBatchIDs(testutil.NewSequentialIDs("live"))),
	)
	ctx := context.Background()
	require.NoError(t, live.Resync(ctx))

	a1 := live.Activate("ui-1")
	a2 := live.Activate("ui-1")
	d1 := live.Deactivate("ui-1")
	adds := live.AddItem("y", 2)
	clk.Advance(300 * time.Millisecond)

	for _, c := range append([]*engine.Call{a1, a2, d1}, adds...) {
		res, err := c.Wait(ctx)
		require.NoError(t, err)
		assert.True(t, res.Success, c.Action().String())
	}

	clk.Advance(50 * time.Millisecond)
	state := live.State()
	assert.Equal(t, inventory.StatusClean, live.Status())
	require.Len(t, state.Items, 2)
	x, _ := state.Line("x")
	y, _ := state.Line("y")
	assert.Equal(t, 1, x.ActivatedQuantity)
	assert.Equal(t, 2, y.Quantity)

	recs, err := st.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "live-1", recs[0].ID)
	assert.Equal(t, 3, recs[0].Summary.Total, "net: one activate, two adds")

	require.NoError(t, live.Close(ctx))
}
