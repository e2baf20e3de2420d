package engine

import "github.com/Jujulu67/djlarian-react-sub002/internal/action"

// Group is the net tally of one identity key within a window.
type Group struct {
	Key action.Key

	// Positive counts Activate/AddItem calls, Negative counts
	// Deactivate/RemoveItem calls.
	Positive int
	Negative int

	// Calls holds the indices of the input actions that mapped to Key,
	// in input order.
	Calls []int
}

// Net returns Positive - Negative.
func (g Group) Net() int {
	return g.Positive - g.Negative
}

// Kind returns the kind the group dispatches, or 0 when it nets to zero.
func (g Group) Kind() action.Kind {
	pos := g.Key.Family.PositiveKind()
	switch {
	case g.Net() > 0:
		return pos
	case g.Net() < 0:
		return pos.Opposite()
	default:
		return 0
	}
}

// Plan is the minimal equivalent of a window of actions.
type Plan struct {
	// Dispatch lists unit records grouped by key in first-seen order.
	Dispatch []action.Action

	// Groups lists one tally per key, in first-seen order.
	Groups []Group
}

// Cancelled returns how many input actions were netted away.
func (p Plan) Cancelled() int {
	total := 0
	for _, g := range p.Groups {
		total += len(g.Calls)
	}
	return total - len(p.Dispatch)
}

// Empty reports whether nothing needs to be dispatched.
func (p Plan) Empty() bool {
	return len(p.Dispatch) == 0
}

// Optimize collapses opposite actions per identity key.
//
// For every key, net = positive - negative. A positive net emits net unit
// records of the positive kind, a negative net emits |net| records of the
// opposite kind, and zero emits nothing. Records are never merged into a
// multi-unit record.
//
// Optimize is pure and deterministic: the same input always produces the
// same plan, and output order follows the first occurrence of each key.
func Optimize(actions []action.Action) Plan {
	index := make(map[action.Key]int, len(actions))
	var groups []Group

	for i, a := range actions {
		key := a.Key()
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, Group{Key: key})
		}
		g := &groups[gi]
		if a.Kind().Positive() {
			g.Positive++
		} else {
			g.Negative++
		}
		g.Calls = append(g.Calls, i)
	}

	plan := Plan{Groups: groups}
	for _, g := range groups {
		kind := g.Kind()
		if kind == 0 {
			continue
		}
		n := g.Net()
		if n < 0 {
			n = -n
		}
		plan.Dispatch = append(plan.Dispatch, action.Expand(action.FromKey(kind, g.Key), n)...)
	}
	return plan
}
