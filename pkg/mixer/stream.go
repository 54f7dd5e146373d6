// ABOUTME: Stream producers fed by a producer goroutine or by a pull callback
// ABOUTME: Underruns yield short reads, never errors
package mixer

import (
	"io"
	"sync/atomic"
)

// StreamPriority is shared by fed and callback streams. It matches music so
// neither kind can evict the other.
const StreamPriority = 5.0

// streamBacklogChunks sizes the default backlog of a fed stream
const streamBacklogChunks = 16

// CallbackFunc fills p with up to len(p) bytes and returns the count written.
// It runs on the render goroutine and must return promptly. A result <= 0
// ends the stream.
type CallbackFunc func(p []byte) int

type streamProducer struct {
	bl     *backlog
	closed atomic.Bool
}

func (s *streamProducer) Produce(p []byte) (int, error) {
	// closed is read before draining so every write that preceded close is seen
	closed := s.closed.Load()
	n := s.bl.Read(p)
	if n == 0 && closed {
		return 0, io.EOF
	}
	return n, nil
}

func (s *streamProducer) Priority() float64 {
	return StreamPriority
}

func (s *streamProducer) rewind() {}

func (s *streamProducer) feed(p []byte) int {
	if s.closed.Load() {
		return 0
	}
	return s.bl.Write(p)
}

func (s *streamProducer) close() {
	s.closed.Store(true)
}

func newStreamPlayer(initial []byte, backlogSize int) *Player {
	if len(initial) > backlogSize {
		backlogSize = len(initial)
	}
	prod := &streamProducer{bl: newBacklog(backlogSize)}
	prod.bl.Write(initial)

	p := newPlayer(KindStream, prod)
	p.stream = prod
	return p
}

type callbackProducer struct {
	cb     CallbackFunc
	length int
}

func (c *callbackProducer) Produce(p []byte) (int, error) {
	if len(p) > c.length {
		p = p[:c.length]
	}
	n := c.cb(p)
	if n <= 0 {
		return 0, io.EOF
	}
	if n > len(p) {
		n = len(p)
	}
	return n, nil
}

func (c *callbackProducer) Priority() float64 {
	return StreamPriority
}

func (c *callbackProducer) rewind() {}

func newCallbackPlayer(cb CallbackFunc, length int) *Player {
	return newPlayer(KindCallbackStream, &callbackProducer{cb: cb, length: length})
}
