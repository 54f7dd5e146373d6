// ABOUTME: Playback source (hardware channel) with a fixed ring of buffers
// ABOUTME: Producers fill free buffers, the render callback drains queued ones
package mixer

import "github.com/Sendspin/sendspin-mixer/pkg/audio"

// Buffer is one fixed-size slot in a source's ring
type Buffer struct {
	ID   int
	data []byte
	n    int // valid bytes while queued
}

// Source is one playback channel. It is owned either by the pool or by exactly
// one active player. All fields are guarded by the manager's queue lock once
// the source has been handed to a player.
type Source struct {
	ID      int
	buffers []Buffer
	head    int // oldest queued buffer
	queued  int
	offset  int // bytes of buffers[head] already rendered
	playing bool
}

func newSource(id, firstBufferID, buffers, chunkBytes int) *Source {
	s := &Source{
		ID:      id,
		buffers: make([]Buffer, buffers),
	}
	for i := range s.buffers {
		s.buffers[i] = Buffer{
			ID:   firstBufferID + i,
			data: make([]byte, chunkBytes),
		}
	}
	return s
}

// BufferIDs returns the ids of the source's buffers
func (s *Source) BufferIDs() []int {
	ids := make([]int, len(s.buffers))
	for i, b := range s.buffers {
		ids[i] = b.ID
	}
	return ids
}

// Queued returns the number of filled buffers waiting to be rendered
func (s *Source) Queued() int {
	return s.queued
}

// Playing reports whether playback has been started on the source
func (s *Source) Playing() bool {
	return s.playing
}

// nextFree returns the next buffer that can be filled, or nil when the ring is full
func (s *Source) nextFree() *Buffer {
	if s.queued == len(s.buffers) {
		return nil
	}
	return &s.buffers[(s.head+s.queued)%len(s.buffers)]
}

// queue marks the next free buffer as holding n bytes
func (s *Source) queue(n int) {
	b := s.nextFree()
	if b == nil {
		return
	}
	b.n = n
	s.queued++
}

// mixInto accumulates queued audio into p with gain, releasing fully rendered
// buffers back to the ring. Returns bytes rendered.
func (s *Source) mixInto(p []byte, gain float64) int {
	written := 0
	for s.queued > 0 && len(p)-written >= 2 {
		b := &s.buffers[s.head]
		m := audio.MixInt16LE(p[written:], b.data[s.offset:b.n], gain)
		written += m
		s.offset += m

		// a trailing odd byte can never be mixed
		if b.n-s.offset < 2 {
			b.n = 0
			s.offset = 0
			s.head = (s.head + 1) % len(s.buffers)
			s.queued--
		}
	}
	return written
}

// reset drops all queued audio and stops playback
func (s *Source) reset() {
	for i := range s.buffers {
		s.buffers[i].n = 0
	}
	s.head = 0
	s.queued = 0
	s.offset = 0
	s.playing = false
}
