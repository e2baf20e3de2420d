package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/testutil"
)

// scriptedClient answers batches in process. Records whose key string is in
// reject fail; keys in drop get no result at all.
type scriptedClient struct {
	mu       sync.Mutex
	requests []action.BatchRequest
	reject   map[string]bool
	drop     map[string]bool
	err      error
	panicV   any
	onSend   func(req action.BatchRequest)
}

func newScriptedClient() *scriptedClient {
	return &scriptedClient{reject: map[string]bool{}, drop: map[string]bool{}}
}

func (c *scriptedClient) Send(_ context.Context, req action.BatchRequest) (action.BatchOutcome, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	hook := c.onSend
	c.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if c.panicV != nil {
		panic(c.panicV)
	}
	if c.err != nil {
		return action.BatchOutcome{}, c.err
	}

	var results []action.ActionResult
	for _, a := range req.Actions {
		key := a.Key().String()
		if c.drop[key] {
			continue
		}
		if c.reject[key] {
			results = append(results, action.ResultFor(a, false, "rejected "+key))
			continue
		}
		results = append(results, action.ResultFor(a, true, ""))
	}
	return action.BatchOutcome{Results: results, Summary: action.Summarize(results)}, nil
}

func (c *scriptedClient) Requests() []action.BatchRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]action.BatchRequest(nil), c.requests...)
}

var errConnRefused = errors.New("connection refused")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(client BatchClient, clk *testutil.ManualClock, opts ...Option) *Dispatcher {
	base := []Option{
		WithScheduler(clk),
		WithBatchIDs(testutil.NewSequentialIDs("b")),
		WithLogger(discardLogger()),
		WithQuietPeriod(300 * time.Millisecond),
	}
	return New(client, append(base, opts...)...)
}

func results(calls ...*Call) []action.Result {
	out := make([]action.Result, len(calls))
	for i, c := range calls {
		select {
		case <-c.Done():
			out[i] = c.Result()
		default:
			panic("call not settled: " + c.Action().String())
		}
	}
	return out
}
