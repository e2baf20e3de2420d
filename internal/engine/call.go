package engine

import (
	"context"
	"sync"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

// Call is one pending action together with its settlement handle.
//
// A Call settles exactly once. Later settle attempts are ignored, so the
// broadcaster and the close path can never double-resolve a caller.
//
// Thread-safety: all methods are safe for concurrent use.
type Call struct {
	action action.Action
	done   chan struct{}
	once   sync.Once
	result action.Result
}

func newCall(a action.Action) *Call {
	return &Call{action: a, done: make(chan struct{})}
}

// Settled returns a Call that is already resolved with r. Adapters use it
// for local no-ops that never reach a dispatcher.
func Settled(a action.Action, r action.Result) *Call {
	c := newCall(a)
	c.settle(r)
	return c
}

// Action returns the action the call was created for.
func (c *Call) Action() action.Action {
	return c.action
}

// Done is closed once the call has settled.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Result blocks until the call settles and returns its result.
func (c *Call) Result() action.Result {
	<-c.done
	return c.result
}

// Wait blocks until the call settles or ctx is done.
func (c *Call) Wait(ctx context.Context) (action.Result, error) {
	select {
	case <-c.done:
		return c.result, nil
	case <-ctx.Done():
		return action.Result{}, ctx.Err()
	}
}

// settle resolves the call. Returns false if it had already settled.
func (c *Call) settle(r action.Result) bool {
	settled := false
	c.once.Do(func() {
		c.result = r
		settled = true
		close(c.done)
	})
	return settled
}
