// ABOUTME: Bounded pool of playback sources with priority preemption
// ABOUTME: Sole owner of channel identity; Acquire never blocks
package mixer

import (
	"fmt"
	"sync"
)

// PoolStats is a snapshot of pool occupancy
type PoolStats struct {
	Total     int
	Free      int
	Assigned  int
	Preempted int64
}

// SourcePool hands out sources to players. When it is exhausted a requester
// may steal the source of the lowest-priority active player.
//
// Lock order: callers holding the manager's queue lock may call into the pool,
// never the reverse.
type SourcePool struct {
	mu       sync.Mutex
	total    int
	free     []*Source
	assigned map[int]*Player // source id -> holder

	preempted int64
}

// NewSourcePool generates sources each backed by buffersPerSource buffers of chunkBytes
func NewSourcePool(sources, buffersPerSource, chunkBytes int) (*SourcePool, error) {
	if sources <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoSources, sources)
	}
	if buffersPerSource <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoBuffers, buffersPerSource)
	}
	if chunkBytes <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunk, chunkBytes)
	}

	sp := &SourcePool{
		total:    sources,
		free:     make([]*Source, 0, sources),
		assigned: make(map[int]*Player, sources),
	}

	for i := 0; i < sources; i++ {
		sp.free = append(sp.free, newSource(i+1, i*buffersPerSource+1, buffersPerSource, chunkBytes))
	}

	return sp, nil
}

// Acquire assigns a source to p, preempting a lower-priority holder if the
// pool is exhausted. Returns nil when admission is denied.
// The caller must hold the manager's queue lock.
func (sp *SourcePool) Acquire(p *Player) *Source {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if len(sp.free) > 0 {
		s := sp.free[0]
		copy(sp.free, sp.free[1:])
		sp.free[len(sp.free)-1] = nil
		sp.free = sp.free[:len(sp.free)-1]

		sp.assigned[s.ID] = p
		p.source = s
		return s
	}

	victim := sp.lowestPriority()
	if victim == nil || victim.Priority() >= p.Priority() {
		return nil
	}

	s := victim.detachSource()
	s.reset()
	sp.assigned[s.ID] = p
	p.source = s
	sp.preempted++

	return s
}

// Release returns s to the free list. Releasing a source that is not assigned is a no-op.
func (sp *SourcePool) Release(s *Source) {
	if s == nil {
		return
	}

	sp.mu.Lock()
	defer sp.mu.Unlock()

	if _, ok := sp.assigned[s.ID]; !ok {
		return
	}

	delete(sp.assigned, s.ID)
	s.reset()
	sp.free = append(sp.free, s)
}

// Holder returns the player currently assigned source id, if any
func (sp *SourcePool) Holder(id int) *Player {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.assigned[id]
}

// Stats returns current occupancy
func (sp *SourcePool) Stats() PoolStats {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	return PoolStats{
		Total:     sp.total,
		Free:      len(sp.free),
		Assigned:  len(sp.assigned),
		Preempted: sp.preempted,
	}
}

// lowestPriority scans holders for the global minimum priority. Map iteration
// order makes the choice among equal priorities unspecified.
// Must hold sp.mu.
func (sp *SourcePool) lowestPriority() *Player {
	var victim *Player
	var min float64

	for _, p := range sp.assigned {
		prio := p.Priority()
		if victim == nil || prio < min {
			victim = p
			min = prio
		}
	}

	return victim
}
