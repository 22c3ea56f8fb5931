package kafka

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// seqDedupe remembers the highest sequence number applied per scheme and
// token, so replayed or reordered events are not applied twice.
type seqDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, uint64]
}

func newSeqDedupe(size int) *seqDedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, uint64](size)
	return &seqDedupe{lru: c}
}

// shouldApply returns true if seq is newer than the last one seen for key.
// A zero seq always applies; producers that do not sequence their events
// fall back to at-least-once semantics.
func (d *seqDedupe) shouldApply(key string, seq uint64) bool {
	if seq == 0 {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Get(key); ok && seq <= last {
		return false
	}
	d.lru.Add(key, seq)
	return true
}
