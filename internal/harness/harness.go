package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/engine"
	"github.com/Jujulu67/djlarian-react-sub002/internal/testutil"
)

// Harness is the scenario execution engine. It owns the manual clock and
// the trace of one run.
//
// Thread-safety: trace recording is guarded by a mutex; the dispatcher only
// calls back on the goroutine driving the steps.
type Harness struct {
	clock  *testutil.ManualClock
	start  time.Time
	disp   *engine.Dispatcher
	logger *slog.Logger

	mu     sync.Mutex
	seq    int64
	result *Result
	calls  []*engine.Call
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create a Dispatcher over a manual clock and the scripted client
//  2. Execute steps, recording enqueue events
//  3. Close the dispatcher so the last window settles
//  4. Check that every call settled and evaluate expectations
func Run(scenario *Scenario) (*Result, error) {
	quiet := engine.DefaultQuietPeriod
	if scenario.QuietPeriod != "" {
		d, err := time.ParseDuration(scenario.QuietPeriod)
		if err != nil {
			return nil, fmt.Errorf("quiet_period: %w", err)
		}
		quiet = d
	}

	clk := testutil.NewManualClock()
	h := &Harness{
		clock:  clk,
		start:  clk.Now(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in scenario runs
		result: NewResult(),
	}

	client := newScriptedClient(scenario.Endpoint, h.recordDispatch)
	h.disp = engine.New(client,
		engine.WithName(scenario.Name),
		engine.WithQuietPeriod(quiet),
		engine.WithScheduler(clk),
		engine.WithBatchIDs(testutil.NewSequentialIDs("batch")),
		engine.WithLogger(h.logger),
		engine.WithObserver(h.recordSettle),
	)

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step); err != nil {
			_ = h.disp.Close(ctx)
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	if err := h.disp.Close(ctx); err != nil {
		return nil, fmt.Errorf("close dispatcher: %w", err)
	}

	h.checkSettled()
	for _, msg := range EvaluateExpectations(h.result, scenario.Expect) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) executeStep(ctx context.Context, step Step) error {
	switch {
	case step.Enqueue != nil:
		a, err := step.Enqueue.Action()
		if err != nil {
			return err
		}
		n := max(step.Repeat, 1)
		for range n {
			h.enqueue(a)
		}
	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		h.clock.Advance(d)
	case step.Flush:
		// Transport failures surface through the settle events.
		_ = h.disp.FlushNow(ctx)
	}
	return nil
}

func (h *Harness) enqueue(a action.Action) {
	h.mu.Lock()
	h.appendLocked(TraceEvent{Type: EventEnqueue, Action: a.String()})
	h.mu.Unlock()

	c := h.disp.Enqueue(a)

	h.mu.Lock()
	h.calls = append(h.calls, c)
	h.mu.Unlock()
}

// recordDispatch runs inside the batch client, before the response.
func (h *Harness) recordDispatch(req action.BatchRequest) {
	names := make([]string, len(req.Actions))
	for i, a := range req.Actions {
		names[i] = a.String()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.result.Batches = append(h.result.Batches, names)
	h.appendLocked(TraceEvent{Type: EventDispatch, BatchID: req.BatchID, Actions: names})
}

// recordSettle is the dispatcher observer; it runs once every call of a
// flush has settled.
func (h *Harness) recordSettle(rep engine.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, res := range rep.Results {
		h.appendLocked(TraceEvent{
			Type:      EventSettle,
			Action:    rep.Actions[i].String(),
			BatchID:   res.BatchID,
			Success:   res.Success,
			Cancelled: res.Cancelled,
			Error:     res.Error,
		})
		switch {
		case !res.Success:
			h.result.Outcomes.Failure++
		case res.Cancelled:
			h.result.Outcomes.Success++
			h.result.Outcomes.Cancelled++
		default:
			h.result.Outcomes.Success++
		}
	}
}

func (h *Harness) appendLocked(ev TraceEvent) {
	h.seq++
	ev.Seq = h.seq
	ev.AtMillis = h.clock.Now().Sub(h.start).Milliseconds()
	h.result.Trace = append(h.result.Trace, ev)
}

// checkSettled fails the run if any enqueued call never settled.
func (h *Harness) checkSettled() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, c := range h.calls {
		select {
		case <-c.Done():
		default:
			h.result.AddError(fmt.Sprintf("call %d (%s) never settled", i+1, c.Action()))
		}
	}
}
