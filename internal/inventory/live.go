package inventory

import (
	"context"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/engine"
)

// OwnerSource loads one owner's inventory.
type OwnerSource interface {
	FetchOwner(ctx context.Context, ownerID string) (action.OwnerInventory, error)
}

// Live is the per-user inventory adapter of the live panel.
//
// Unlike Admin, Live enqueues every request even when the local clamp made
// it a no-op; the server stays the judge of capacity.
type Live struct {
	ownerID string
	rec     *Reconciler[LiveState]
	disp    *engine.Dispatcher
}

// NewLive creates the adapter for ownerID.
func NewLive(ownerID string, client engine.BatchClient, src OwnerSource, opts ...Option) *Live {
	cfg := newSettings(opts)
	fetch := func(ctx context.Context) (LiveState, error) {
		inv, err := src.FetchOwner(ctx, ownerID)
		if err != nil {
			return LiveState{}, err
		}
		return LiveState{OwnerID: ownerID, Items: inv.Items}, nil
	}
	name := "live:" + ownerID
	l := &Live{
		ownerID: ownerID,
		rec:     NewReconciler(name, LiveState{OwnerID: ownerID}, fetch, opts...),
	}
	l.disp = engine.New(client, cfg.dispatcherOptions(name, l.rec.Observe)...)
	return l
}

// OwnerID returns the owner the adapter serves.
func (l *Live) OwnerID() string { return l.ownerID }

// Activate activates one unit of the user item.
func (l *Live) Activate(userItemID string) *engine.Call {
	l.rec.Mutate(func(s *LiveState) bool {
		if i := indexByID(s.Items, userItemID); i >= 0 {
			return shiftActivated(&s.Items[i], +1)
		}
		return false
	})
	return l.disp.Enqueue(action.Activate(userItemID))
}

// Deactivate deactivates one unit of the user item.
func (l *Live) Deactivate(userItemID string) *engine.Call {
	l.rec.Mutate(func(s *LiveState) bool {
		if i := indexByID(s.Items, userItemID); i >= 0 {
			return shiftActivated(&s.Items[i], -1)
		}
		return false
	})
	return l.disp.Enqueue(action.Deactivate(userItemID))
}

// AddItem adds n units of itemID, one action per unit.
func (l *Live) AddItem(itemID string, n int) []*engine.Call {
	if n <= 0 {
		return nil
	}
	l.rec.Mutate(func(s *LiveState) bool {
		s.Items = addUnits(s.Items, l.ownerID, itemID, n)
		return true
	})
	return l.enqueueAll(action.Expand(action.AddItem(l.ownerID, itemID), n))
}

// RemoveItem removes n units of itemID, one action per unit.
func (l *Live) RemoveItem(itemID string, n int) []*engine.Call {
	if n <= 0 {
		return nil
	}
	l.rec.Mutate(func(s *LiveState) bool {
		var removed int
		s.Items, removed = removeUnits(s.Items, itemID, n)
		return removed > 0
	})
	return l.enqueueAll(action.Expand(action.RemoveItem(l.ownerID, itemID), n))
}

func (l *Live) enqueueAll(actions []action.Action) []*engine.Call {
	calls := make([]*engine.Call, len(actions))
	for i, a := range actions {
		calls[i] = l.disp.Enqueue(a)
	}
	return calls
}

// State returns a copy of the local state.
func (l *Live) State() LiveState { return l.rec.State() }

// Status returns the optimistic cycle status.
func (l *Live) Status() Status { return l.rec.Status() }

// Resync replaces local state with the server's.
func (l *Live) Resync(ctx context.Context) error { return l.rec.Resync(ctx) }

// Flush sends the pending window immediately.
func (l *Live) Flush(ctx context.Context) error { return l.disp.FlushNow(ctx) }

// Dispatcher exposes the underlying dispatcher.
func (l *Live) Dispatcher() *engine.Dispatcher { return l.disp }

// Reconciler exposes the underlying reconciler.
func (l *Live) Reconciler() *Reconciler[LiveState] { return l.rec }

// Close flushes pending actions and stops the resync timer.
func (l *Live) Close(ctx context.Context) error {
	err := l.disp.Close(ctx)
	l.rec.Close()
	return err
}
