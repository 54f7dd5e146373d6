// ABOUTME: Ordered playback queue of every player known to the manager
// ABOUTME: Insertion order is the round-robin service order
package mixer

// playbackQueue is guarded by the manager's queue lock
type playbackQueue struct {
	players []*Player
}

func (q *playbackQueue) push(p *Player) {
	q.players = append(q.players, p)
}

func (q *playbackQueue) len() int {
	return len(q.players)
}

// filter visits every player once, in order, keeping those for which keep
// returns true. Kept players retain their relative order, which is the same
// as requeueing each at the tail.
func (q *playbackQueue) filter(keep func(*Player) bool) {
	kept := q.players[:0]
	for _, p := range q.players {
		if keep(p) {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(q.players); i++ {
		q.players[i] = nil
	}
	q.players = kept
}

// find returns the first player matching, or nil
func (q *playbackQueue) find(match func(*Player) bool) *Player {
	for _, p := range q.players {
		if match(p) {
			return p
		}
	}
	return nil
}

func (q *playbackQueue) each(fn func(*Player)) {
	for _, p := range q.players {
		fn(p)
	}
}

// clear empties the queue and returns the removed players
func (q *playbackQueue) clear() []*Player {
	out := q.players
	q.players = nil
	return out
}
