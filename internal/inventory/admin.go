package inventory

import (
	"context"
	"log/slog"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/engine"
)

// AdminSource loads every inventory line across owners.
type AdminSource interface {
	FetchAll(ctx context.Context) (action.AdminInventory, error)
}

// Admin is the global inventory adapter used by moderators.
//
// Clamped no-ops (activating a fully active line, deactivating an inactive
// one, or touching an unknown line) never reach the dispatcher: they return
// a call already settled with a Skipped success.
type Admin struct {
	rec    *Reconciler[AdminState]
	disp   *engine.Dispatcher
	logger *slog.Logger
}

// NewAdmin creates the admin adapter. Call Resync once to load the initial
// state: until then every line is unknown and every call is skipped.
func NewAdmin(client engine.BatchClient, src AdminSource, opts ...Option) *Admin {
	cfg := newSettings(opts)
	fetch := func(ctx context.Context) (AdminState, error) {
		inv, err := src.FetchAll(ctx)
		if err != nil {
			return AdminState{}, err
		}
		return AdminState{Items: inv.Items}, nil
	}
	a := &Admin{
		rec:    NewReconciler("admin", AdminState{}, fetch, opts...),
		logger: cfg.logger,
	}
	a.disp = engine.New(client, cfg.dispatcherOptions("admin", a.rec.Observe)...)
	return a
}

// Activate activates one unit of the user item.
func (a *Admin) Activate(userItemID string) *engine.Call {
	return a.shift(action.Activate(userItemID), +1)
}

// Deactivate deactivates one unit of the user item.
func (a *Admin) Deactivate(userItemID string) *engine.Call {
	return a.shift(action.Deactivate(userItemID), -1)
}

func (a *Admin) shift(act action.Action, delta int) *engine.Call {
	unknown := false
	changed := a.rec.Mutate(func(s *AdminState) bool {
		i := indexByID(s.Items, act.TargetID())
		if i < 0 {
			unknown = true
			return false
		}
		return shiftActivated(&s.Items[i], delta)
	})
	if unknown {
		a.logger.Warn("skipped action on unknown line",
			"feature", "admin",
			"action", act.String(),
			"lines", len(a.rec.State().Items),
		)
	}
	if !changed {
		res := action.Succeeded("")
		res.Skipped = true
		return engine.Settled(act, res)
	}
	return a.disp.Enqueue(act)
}

// State returns a copy of the local state.
func (a *Admin) State() AdminState { return a.rec.State() }

// Status returns the optimistic cycle status.
func (a *Admin) Status() Status { return a.rec.Status() }

// Resync replaces local state with the server's.
func (a *Admin) Resync(ctx context.Context) error { return a.rec.Resync(ctx) }

// Flush sends the pending window immediately.
func (a *Admin) Flush(ctx context.Context) error { return a.disp.FlushNow(ctx) }

// Dispatcher exposes the underlying dispatcher.
func (a *Admin) Dispatcher() *engine.Dispatcher { return a.disp }

// Reconciler exposes the underlying reconciler.
func (a *Admin) Reconciler() *Reconciler[AdminState] { return a.rec }

// Close flushes pending actions and stops the resync timer.
func (a *Admin) Close(ctx context.Context) error {
	err := a.disp.Close(ctx)
	a.rec.Close()
	return err
}
