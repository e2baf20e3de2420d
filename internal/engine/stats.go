package engine

import (
	"sync/atomic"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

// Sequence hands out strictly increasing flush numbers, starting at 1.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations).
type Sequence struct {
	n atomic.Int64
}

// Next returns the next sequence number.
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

// Current returns the last number handed out, or 0.
func (s *Sequence) Current() int64 {
	return s.n.Load()
}

// Stats is a point-in-time copy of dispatcher counters.
type Stats struct {
	Enqueued          int64 `json:"enqueued"`
	Flushes           int64 `json:"flushes"`
	Dispatched        int64 `json:"dispatched"`
	Cancelled         int64 `json:"cancelled"`
	Succeeded         int64 `json:"succeeded"`
	Failed            int64 `json:"failed"`
	TransportFailures int64 `json:"transportFailures"`
}

type statsCollector struct {
	enqueued          atomic.Int64
	flushes           atomic.Int64
	dispatched        atomic.Int64
	cancelled         atomic.Int64
	succeeded         atomic.Int64
	failed            atomic.Int64
	transportFailures atomic.Int64
}

func (s *statsCollector) recordResults(results []action.Result) {
	for _, r := range results {
		switch {
		case r.Cancelled:
			s.cancelled.Add(1)
		case r.Success:
			s.succeeded.Add(1)
		default:
			s.failed.Add(1)
		}
	}
}

func (s *statsCollector) snapshot() Stats {
	return Stats{
		Enqueued:          s.enqueued.Load(),
		Flushes:           s.flushes.Load(),
		Dispatched:        s.dispatched.Load(),
		Cancelled:         s.cancelled.Load(),
		Succeeded:         s.succeeded.Load(),
		Failed:            s.failed.Load(),
		TransportFailures: s.transportFailures.Load(),
	}
}
