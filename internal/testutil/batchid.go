package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates "<prefix>-1", "<prefix>-2", ... batch ids.
//
// This enables deterministic test execution and golden trace comparison:
// the same scenario always assigns the same batch ids.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix becomes "batch".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "batch"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id. Implements engine.BatchIDGenerator.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
