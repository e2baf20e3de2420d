package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

// ErrTransport is returned by Endpoint.Send while transport failure is on.
var ErrTransport = errors.New("transport failure")

// Endpoint is an in-memory batch endpoint with the same unit semantics as
// the SQLite-backed server: capacity is checked per unit and removing the
// last unit drops the line. It implements engine.BatchClient and both resync
// sources.
//
// Thread-safety: all methods are safe for concurrent use.
type Endpoint struct {
	mu            sync.Mutex
	items         []action.UserItem
	reject        map[string]bool
	failTransport bool
	requests      []action.BatchRequest
	fetches       int
	nextID        int
	onFetch       func()
}

// NewEndpoint creates an endpoint holding items.
func NewEndpoint(items ...action.UserItem) *Endpoint {
	return &Endpoint{
		items:  slices.Clone(items),
		reject: make(map[string]bool),
		nextID: len(items),
	}
}

// Reject makes every record whose identity key renders as key fail.
func (e *Endpoint) Reject(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reject[key] = true
}

// FailTransport toggles whole-request failure.
func (e *Endpoint) FailTransport(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failTransport = on
}

// OnFetch registers fn to run at the start of every fetch.
func (e *Endpoint) OnFetch(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFetch = fn
}

// Requests returns every batch received, including failed ones.
func (e *Endpoint) Requests() []action.BatchRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.requests)
}

// Fetches returns how many resync fetches were served.
func (e *Endpoint) Fetches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fetches
}

// Items returns the authoritative lines.
func (e *Endpoint) Items() []action.UserItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.items)
}

// Send implements engine.BatchClient.
func (e *Endpoint) Send(_ context.Context, req action.BatchRequest) (action.BatchOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests = append(e.requests, req)
	if e.failTransport {
		return action.BatchOutcome{}, ErrTransport
	}

	results := make([]action.ActionResult, 0, len(req.Actions))
	for _, a := range req.Actions {
		if e.reject[a.Key().String()] {
			results = append(results, action.ResultFor(a, false, "rejected"))
			continue
		}
		if err := e.applyLocked(a); err != nil {
			results = append(results, action.ResultFor(a, false, err.Error()))
			continue
		}
		results = append(results, action.ResultFor(a, true, ""))
	}
	return action.BatchOutcome{Results: results, Summary: action.Summarize(results)}, nil
}

// FetchAll implements inventory.AdminSource.
func (e *Endpoint) FetchAll(_ context.Context) (action.AdminInventory, error) {
	e.beforeFetch()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetches++
	return action.AdminInventory{Items: slices.Clone(e.items)}, nil
}

// FetchOwner implements inventory.OwnerSource.
func (e *Endpoint) FetchOwner(_ context.Context, ownerID string) (action.OwnerInventory, error) {
	e.beforeFetch()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetches++
	inv := action.OwnerInventory{OwnerID: ownerID, Items: []action.UserItem{}}
	for _, it := range e.items {
		if it.OwnerID == ownerID {
			inv.Items = append(inv.Items, it)
		}
	}
	return inv, nil
}

func (e *Endpoint) beforeFetch() {
	e.mu.Lock()
	fn := e.onFetch
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *Endpoint) applyLocked(a action.Action) error {
	switch a.Kind() {
	case action.KindActivate, action.KindDeactivate:
		i := slices.IndexFunc(e.items, func(it action.UserItem) bool { return it.ID == a.TargetID() })
		if i < 0 {
			return fmt.Errorf("user item %s not found", a.TargetID())
		}
		it := &e.items[i]
		if a.Kind() == action.KindActivate {
			if it.ActivatedQuantity >= it.Quantity {
				return errors.New("capacity exceeded")
			}
			it.ActivatedQuantity++
			return nil
		}
		if it.ActivatedQuantity <= 0 {
			return errors.New("nothing to deactivate")
		}
		it.ActivatedQuantity--
		return nil

	case action.KindAddItem:
		i := e.lineLocked(a.OwnerID(), a.ItemID())
		if i < 0 {
			e.nextID++
			e.items = append(e.items, action.UserItem{
				ID:       fmt.Sprintf("ui-%d", e.nextID),
				OwnerID:  a.OwnerID(),
				ItemID:   a.ItemID(),
				Quantity: 1,
			})
			return nil
		}
		e.items[i].Quantity++
		return nil

	case action.KindRemoveItem:
		i := e.lineLocked(a.OwnerID(), a.ItemID())
		if i < 0 {
			return fmt.Errorf("item %s not owned", a.ItemID())
		}
		e.items[i].Quantity--
		if e.items[i].Quantity == 0 {
			e.items = slices.Delete(e.items, i, i+1)
			return nil
		}
		e.items[i].ActivatedQuantity = min(e.items[i].ActivatedQuantity, e.items[i].Quantity)
		return nil
	}
	return fmt.Errorf("unsupported action %s", a)
}

func (e *Endpoint) lineLocked(ownerID, itemID string) int {
	return slices.IndexFunc(e.items, func(it action.UserItem) bool {
		return it.OwnerID == ownerID && it.ItemID == itemID
	})
}
