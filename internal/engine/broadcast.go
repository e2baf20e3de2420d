package engine

import (
	"encoding/json"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

// slot identifies a fungible group of calls: same key, same kind.
type slot struct {
	key  action.Key
	kind action.Kind
}

// verdict aggregates every dispatched result for one slot.
type verdict struct {
	seen   int
	failed bool
	err    string
	data   json.RawMessage
}

// broadcast settles every call of a flush against the batch outcome and
// returns the per-call results in call order.
//
// Matching is by Key and Kind. A slot succeeds only if every dispatched
// record for it succeeded; otherwise all its calls get the first error.
// Calls whose slot was not dispatched (netted away, or the minority kind of
// a key) get a synthetic cancelled success. That success does not depend on
// how the dispatched slot of the same key fared: with three activates and
// one deactivate, the deactivate succeeds even if both sent activates fail.
// A dispatched slot with fewer results than records fails with a
// missing-result error.
func broadcast(batchID string, calls []*Call, plan Plan, outcome action.BatchOutcome) []action.Result {
	dispatched := make(map[slot]int, len(plan.Dispatch))
	for _, a := range plan.Dispatch {
		dispatched[slot{key: a.Key(), kind: a.Kind()}]++
	}

	verdicts := make(map[slot]*verdict, len(dispatched))
	for _, r := range outcome.Results {
		a, err := r.Action()
		if err != nil {
			continue
		}
		s := slot{key: a.Key(), kind: a.Kind()}
		v, ok := verdicts[s]
		if !ok {
			v = &verdict{}
			verdicts[s] = v
		}
		v.seen++
		switch {
		case !r.Success && !v.failed:
			v.failed = true
			v.err = r.Error
			if v.err == "" {
				v.err = "action failed"
			}
		case r.Success && v.data == nil:
			v.data = r.Data
		}
	}

	results := make([]action.Result, len(calls))
	for i, c := range calls {
		a := c.Action()
		s := slot{key: a.Key(), kind: a.Kind()}

		var res action.Result
		want := dispatched[s]
		v := verdicts[s]
		switch {
		case want == 0:
			res = action.Succeeded(batchID)
			res.Cancelled = true
		case v == nil || (v.seen < want && !v.failed):
			res = action.Failed(batchID, NewMissingResultError(batchID, a.String()).Error())
		case v.failed:
			res = action.Failed(batchID, v.err)
		default:
			res = action.Succeeded(batchID)
			res.Data = v.data
		}
		c.settle(res)
		results[i] = res
	}
	return results
}

// failAll settles every call with the same failure.
func failAll(batchID string, calls []*Call, err error) []action.Result {
	results := make([]action.Result, len(calls))
	for i, c := range calls {
		res := action.Failed(batchID, err.Error())
		c.settle(res)
		results[i] = res
	}
	return results
}

// cancelAll settles every call of a window that netted to nothing.
func cancelAll(batchID string, calls []*Call) []action.Result {
	results := make([]action.Result, len(calls))
	for i, c := range calls {
		res := action.Succeeded(batchID)
		res.Cancelled = true
		c.settle(res)
		results[i] = res
	}
	return results
}
