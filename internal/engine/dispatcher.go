package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/clock"
)

// BatchClient sends one optimized batch to the batch endpoint.
// It is never called with an empty action list.
type BatchClient interface {
	Send(ctx context.Context, req action.BatchRequest) (action.BatchOutcome, error)
}

// BatchClientFunc adapts a function to BatchClient.
type BatchClientFunc func(ctx context.Context, req action.BatchRequest) (action.BatchOutcome, error)

// Send calls f.
func (f BatchClientFunc) Send(ctx context.Context, req action.BatchRequest) (action.BatchOutcome, error) {
	return f(ctx, req)
}

// State is the dispatcher's position in its debounce cycle.
type State int

const (
	// StateIdle means nothing is queued and nothing is in flight.
	StateIdle State = iota
	// StateScheduled means a quiet-period timer is pending.
	StateScheduled
	// StateFlushing means a batch is in flight and no window is scheduled.
	StateFlushing
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

const (
	// DefaultQuietPeriod is the debounce window applied after each enqueue.
	DefaultQuietPeriod = 300 * time.Millisecond

	// DefaultRequestTimeout bounds batch requests started by the timer.
	DefaultRequestTimeout = 15 * time.Second
)

// Report describes one settled flush. Observers receive it after every
// call of the flush has settled.
type Report struct {
	Seq     int64
	BatchID string

	// Actions are the drained actions in enqueue order.
	Actions []action.Action
	Plan    Plan

	// Outcome is the endpoint response; zero when nothing was dispatched
	// or the request failed.
	Outcome action.BatchOutcome

	// Results holds the settled result of each call, parallel to Actions.
	Results []action.Result

	// Err is set when the batch client failed or panicked.
	Err error
}

// Dispatched reports whether the flush reached the batch client.
func (r Report) Dispatched() bool {
	return !r.Plan.Empty()
}

// Failed reports whether any call of the flush settled with a failure.
func (r Report) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, res := range r.Results {
		if !res.Success {
			return true
		}
	}
	return false
}

// Observer is notified once per settled flush.
type Observer func(Report)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQuietPeriod sets the debounce window. Default: 300ms.
func WithQuietPeriod(d time.Duration) Option {
	return func(disp *Dispatcher) {
		disp.quiet = d
	}
}

// WithMaxPending flushes a window as soon as it holds n calls instead of
// waiting for the quiet period. Zero disables the bound.
func WithMaxPending(n int) Option {
	return func(d *Dispatcher) {
		d.maxPending = n
	}
}

// WithRequestTimeout bounds batch requests started by the timer or by the
// pending bound. FlushNow and Close use the caller's context instead.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.requestTimeout = timeout
	}
}

// WithScheduler replaces the real timer source. Tests pass a manual clock.
func WithScheduler(s clock.Scheduler) Option {
	return func(d *Dispatcher) {
		d.sched = s
	}
}

// WithBatchIDs replaces the UUIDv7 batch id generator.
func WithBatchIDs(g BatchIDGenerator) Option {
	return func(d *Dispatcher) {
		d.ids = g
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithObserver registers fn to run after each flush settles.
func WithObserver(fn Observer) Option {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, fn)
	}
}

// WithName labels the dispatcher in logs (e.g. "admin", "live").
func WithName(name string) Option {
	return func(d *Dispatcher) {
		d.name = name
	}
}

// Dispatcher coalesces enqueued actions into debounced batches.
//
// Each feature owns one Dispatcher. Every Enqueue restarts the quiet-period
// timer; when it fires the queue is drained, optimized and sent as a single
// batch. Enqueues that arrive while a batch is in flight start a new,
// independent window.
//
// Thread-safety model:
//   - Enqueue, QueueAction, FlushNow, Close, State, Stats: safe from any
//     goroutine
//   - Enqueue never blocks on I/O
//   - Observers run on the flushing goroutine after calls settle
type Dispatcher struct {
	client         BatchClient
	name           string
	quiet          time.Duration
	maxPending     int
	requestTimeout time.Duration
	sched          clock.Scheduler
	ids            BatchIDGenerator
	logger         *slog.Logger
	observers      []Observer

	queue *callQueue
	timer *clock.Debouncer
	seq   Sequence
	stats statsCollector

	mu       sync.Mutex // guards closed, inflight and enqueue/drain ordering
	closed   bool
	inflight int
	wg       sync.WaitGroup
}

// New creates a Dispatcher sending batches through client.
func New(client BatchClient, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:         client,
		name:           "default",
		quiet:          DefaultQuietPeriod,
		requestTimeout: DefaultRequestTimeout,
		sched:          clock.Real{},
		ids:            UUIDv7Generator{},
		logger:         slog.Default(),
		queue:          newCallQueue(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.timer = clock.NewDebouncer(d.sched)
	return d
}

// Name returns the dispatcher label.
func (d *Dispatcher) Name() string {
	return d.name
}

// Enqueue appends a unit action to the current window and returns its Call.
//
// Enqueue never panics or returns an error: an invalid action, or any
// action enqueued after Close, yields a Call that has already settled with
// a failure result.
func (d *Dispatcher) Enqueue(a action.Action) *Call {
	if err := a.Validate(); err != nil {
		d.logger.Warn("rejected invalid action",
			"dispatcher", d.name,
			"error", err,
		)
		return Settled(a, action.Failed("", NewInvalidActionError(err).Error()))
	}

	c := newCall(a)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		c.settle(action.Failed("", ErrClosed.Error()))
		return c
	}

	n := d.queue.Enqueue(c)
	d.stats.enqueued.Add(1)

	if d.maxPending > 0 && n >= d.maxPending {
		d.timer.Cancel()
		calls := d.queue.Drain()
		d.beginFlushLocked()
		d.mu.Unlock()

		d.logger.Debug("pending bound reached, flushing early",
			"dispatcher", d.name,
			"pending", n,
		)
		go d.processWithTimeout(calls)
		return c
	}

	d.timer.Schedule(d.quiet, d.onQuiet)
	d.mu.Unlock()

	d.logger.Debug("action queued",
		"dispatcher", d.name,
		"action", a.String(),
		"pending", n,
	)
	return c
}

// QueueAction enqueues a and waits for its result. If ctx ends first the
// returned result is a failure carrying the context error; the action itself
// stays queued.
func (d *Dispatcher) QueueAction(ctx context.Context, a action.Action) action.Result {
	res, err := d.Enqueue(a).Wait(ctx)
	if err != nil {
		return action.Failed("", err.Error())
	}
	return res
}

// FlushNow cancels the pending timer and flushes the current window on the
// calling goroutine. Returns the transport error of that flush, if any.
// Per-record failures are reported through the calls, not here.
func (d *Dispatcher) FlushNow(ctx context.Context) error {
	report, ok := d.flush(ctx)
	if !ok {
		return nil
	}
	return report.Err
}

// Close flushes whatever is pending, waits for in-flight batches and stops
// accepting actions. Later enqueues settle with ErrClosed.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return d.waitInflight(ctx)
	}
	d.closed = true
	d.timer.Cancel()
	calls := d.queue.Drain()
	if len(calls) > 0 {
		d.beginFlushLocked()
	}
	d.mu.Unlock()

	if len(calls) > 0 {
		d.process(ctx, calls)
	}

	d.logger.Info("dispatcher closed", "dispatcher", d.name)
	return d.waitInflight(ctx)
}

// State reports the dispatcher's debounce state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.timer.Pending():
		return StateScheduled
	case d.inflight > 0:
		return StateFlushing
	default:
		return StateIdle
	}
}

// Pending returns the number of calls waiting in the current window.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return d.stats.snapshot()
}

func (d *Dispatcher) onQuiet() {
	ctx, cancel := context.WithTimeout(context.Background(), d.requestTimeout)
	defer cancel()
	d.flush(ctx)
}

func (d *Dispatcher) processWithTimeout(calls []*Call) {
	ctx, cancel := context.WithTimeout(context.Background(), d.requestTimeout)
	defer cancel()
	d.process(ctx, calls)
}

// flush drains the window and processes it. Returns false if the window
// was empty.
func (d *Dispatcher) flush(ctx context.Context) (Report, bool) {
	d.mu.Lock()
	d.timer.Cancel()
	calls := d.queue.Drain()
	if len(calls) == 0 {
		d.mu.Unlock()
		return Report{}, false
	}
	d.beginFlushLocked()
	d.mu.Unlock()

	return d.process(ctx, calls), true
}

// beginFlushLocked marks a flush as in flight. Caller must hold d.mu.
func (d *Dispatcher) beginFlushLocked() {
	d.inflight++
	d.wg.Add(1)
}

func (d *Dispatcher) endFlush() {
	d.mu.Lock()
	d.inflight--
	d.mu.Unlock()
	d.wg.Done()
}

// process optimizes one drained window, sends it and settles every call.
func (d *Dispatcher) process(ctx context.Context, calls []*Call) Report {
	defer d.endFlush()

	report := Report{
		Seq:     d.seq.Next(),
		BatchID: d.ids.Generate(),
		Actions: make([]action.Action, len(calls)),
	}
	for i, c := range calls {
		report.Actions[i] = c.Action()
	}
	report.Plan = Optimize(report.Actions)
	d.stats.flushes.Add(1)

	if report.Plan.Empty() {
		report.Results = cancelAll(report.BatchID, calls)
		d.logger.Debug("window cancelled out",
			"dispatcher", d.name,
			"batch_id", report.BatchID,
			"actions", len(calls),
		)
	} else {
		d.stats.dispatched.Add(int64(len(report.Plan.Dispatch)))
		outcome, err := d.send(ctx, report.BatchID, report.Plan.Dispatch)
		if err != nil {
			report.Err = err
			report.Results = failAll(report.BatchID, calls, err)
			d.stats.transportFailures.Add(1)
			d.logger.Warn("batch failed",
				"dispatcher", d.name,
				"batch_id", report.BatchID,
				"actions", len(calls),
				"error", err,
			)
		} else {
			report.Outcome = outcome
			report.Results = broadcast(report.BatchID, calls, report.Plan, outcome)
		}
	}
	d.stats.recordResults(report.Results)

	d.logger.Info("batch settled",
		"dispatcher", d.name,
		"seq", report.Seq,
		"batch_id", report.BatchID,
		"actions", len(calls),
		"dispatched", len(report.Plan.Dispatch),
		"cancelled", report.Plan.Cancelled(),
		"failed", report.Failed(),
	)

	for _, obs := range d.observers {
		obs(report)
	}
	return report
}

// send calls the batch client, converting errors and panics into
// BatchErrors.
func (d *Dispatcher) send(ctx context.Context, batchID string, actions []action.Action) (outcome action.BatchOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("batch client panicked",
				"dispatcher", d.name,
				"batch_id", batchID,
				"panic", r,
			)
			outcome = action.BatchOutcome{}
			err = NewPanicError(batchID, r)
		}
	}()

	outcome, err = d.client.Send(ctx, action.BatchRequest{BatchID: batchID, Actions: actions})
	if err != nil {
		return action.BatchOutcome{}, NewTransportError(batchID, err)
	}
	return outcome, nil
}

func (d *Dispatcher) waitInflight(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
