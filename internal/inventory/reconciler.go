package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Jujulu67/djlarian-react-sub002/internal/clock"
	"github.com/Jujulu67/djlarian-react-sub002/internal/engine"
)

// Status is the reconciler's position in its optimistic cycle.
type Status int

const (
	// StatusClean means local state matches the last fetch.
	StatusClean Status = iota
	// StatusSpeculative means local mutations await confirmation.
	StatusSpeculative
	// StatusReconciling means a resync fetch is in flight.
	StatusReconciling
	// StatusRolledBack means a failure restored the snapshot and a forced
	// resync has not completed yet.
	StatusRolledBack
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusSpeculative:
		return "speculative"
	case StatusReconciling:
		return "reconciling"
	case StatusRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

const (
	// DefaultResyncDelay is the debounce before a post-success resync.
	DefaultResyncDelay = 50 * time.Millisecond

	// DefaultFetchTimeout bounds resync fetches not tied to a caller context.
	DefaultFetchTimeout = 15 * time.Second
)

// Fetcher loads authoritative state.
type Fetcher[S any] func(ctx context.Context) (S, error)

// ReconcilerStats counts resync activity.
type ReconcilerStats struct {
	Resyncs   int64 `json:"resyncs"`
	Forced    int64 `json:"forced"`
	Rollbacks int64 `json:"rollbacks"`
	Dropped   int64 `json:"dropped"`
}

// Reconciler owns one feature's optimistic state.
//
// It is the only writer of that state. Mutations run under its mutex, so a
// snapshot is a Clone and a rollback is an assignment.
//
// Thread-safety: all methods are safe for concurrent use.
type Reconciler[S Cloner[S]] struct {
	name         string
	fetch        Fetcher[S]
	delay        time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger
	resync       *clock.Debouncer
	group        singleflight.Group

	mu       sync.Mutex
	state    S
	snapshot *S
	status   Status
	gen      uint64

	resyncs   atomic.Int64
	forced    atomic.Int64
	rollbacks atomic.Int64
	dropped   atomic.Int64
}

// NewReconciler creates a reconciler seeded with initial.
func NewReconciler[S Cloner[S]](name string, initial S, fetch Fetcher[S], opts ...Option) *Reconciler[S] {
	cfg := newSettings(opts)
	return &Reconciler[S]{
		name:         name,
		fetch:        fetch,
		delay:        cfg.resyncDelay,
		fetchTimeout: cfg.fetchTimeout,
		logger:       cfg.logger,
		resync:       clock.NewDebouncer(cfg.sched),
		state:        initial,
	}
}

// State returns a copy of the current local state.
func (r *Reconciler[S]) State() S {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Status returns the current cycle status.
func (r *Reconciler[S]) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// HasSnapshot reports whether a rollback snapshot is held.
func (r *Reconciler[S]) HasSnapshot() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot != nil
}

// Stats returns a snapshot of the resync counters.
func (r *Reconciler[S]) Stats() ReconcilerStats {
	return ReconcilerStats{
		Resyncs:   r.resyncs.Load(),
		Forced:    r.forced.Load(),
		Rollbacks: r.rollbacks.Load(),
		Dropped:   r.dropped.Load(),
	}
}

// Mutate applies fn to the local state. fn reports whether it changed
// anything and must leave the state untouched when it returns false. The
// first change of a cycle keeps a snapshot of the state from before it.
func (r *Reconciler[S]) Mutate(fn func(*S) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	var snap *S
	if r.snapshot == nil {
		s := r.state.Clone()
		snap = &s
	}
	if !fn(&r.state) {
		return false
	}
	if snap != nil {
		r.snapshot = snap
	}
	if r.status != StatusRolledBack {
		r.status = StatusSpeculative
	}
	return true
}

// Observe reacts to a settled flush. It is registered as the dispatcher
// observer and runs on the flushing goroutine.
func (r *Reconciler[S]) Observe(rep engine.Report) {
	if rep.Failed() {
		r.rollback(rep.BatchID)
		r.forceResync()
		return
	}
	r.resync.Schedule(r.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.fetchTimeout)
		defer cancel()
		if err := r.Resync(ctx); err != nil {
			r.logger.Warn("resync failed", "feature", r.name, "error", err)
		}
	})
}

// Resync fetches authoritative state and replaces local state with it,
// discarding the snapshot. Concurrent calls share one fetch. A fetch that
// was overtaken by a newer Resync is dropped.
func (r *Reconciler[S]) Resync(ctx context.Context) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	prev := r.status
	if r.status != StatusRolledBack {
		r.status = StatusReconciling
	}
	r.mu.Unlock()

	v, err, shared := r.group.Do(r.name, func() (any, error) {
		return r.fetch(ctx)
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen {
		r.dropped.Add(1)
		r.logger.Debug("dropped stale resync", "feature", r.name, "generation", gen, "current", r.gen)
		return nil
	}
	if err != nil {
		r.status = prev
		return fmt.Errorf("resync %s: %w", r.name, err)
	}

	r.state = v.(S).Clone()
	r.snapshot = nil
	r.status = StatusClean
	r.resyncs.Add(1)
	r.logger.Debug("resynced", "feature", r.name, "generation", gen, "shared", shared)
	return nil
}

// Close cancels any pending resync.
func (r *Reconciler[S]) Close() {
	r.resync.Cancel()
}

func (r *Reconciler[S]) rollback(batchID string) {
	r.resync.Cancel()

	r.mu.Lock()
	if r.snapshot != nil {
		r.state = *r.snapshot
		r.snapshot = nil
	}
	r.status = StatusRolledBack
	r.mu.Unlock()

	r.rollbacks.Add(1)
	r.logger.Info("rolled back optimistic state", "feature", r.name, "batch_id", batchID)
}

func (r *Reconciler[S]) forceResync() {
	r.forced.Add(1)
	// A fetch already in flight may predate the failure; start a fresh one.
	r.group.Forget(r.name)

	ctx, cancel := context.WithTimeout(context.Background(), r.fetchTimeout)
	defer cancel()
	if err := r.Resync(ctx); err != nil {
		r.logger.Warn("forced resync failed", "feature", r.name, "error", err)
	}
}
