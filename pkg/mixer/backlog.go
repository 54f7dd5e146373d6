// ABOUTME: Bounded single-producer/single-consumer byte ring for fed streams
// ABOUTME: Synchronised with atomics, independent of the queue and pool locks
package mixer

import (
	"sync"
	"sync/atomic"
)

// backlog is a power-of-two ring buffer. Writes come from producer goroutines
// (serialised by wmu), reads only from the render thread.
type backlog struct {
	writePos atomic.Uint64
	_pad1    [56]byte
	readPos  atomic.Uint64
	_pad2    [56]byte

	wmu  sync.Mutex
	buf  []byte
	mask uint64
}

func newBacklog(minSize int) *backlog {
	size := 1
	for size < minSize {
		size <<= 1
	}
	return &backlog{
		buf:  make([]byte, size),
		mask: uint64(size - 1),
	}
}

// Write copies up to len(p) bytes and returns how many fit
func (b *backlog) Write(p []byte) int {
	b.wmu.Lock()
	defer b.wmu.Unlock()

	w := b.writePos.Load()
	r := b.readPos.Load()

	free := uint64(len(b.buf)) - (w - r)
	n := uint64(len(p))
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	pos := w & b.mask
	first := uint64(len(b.buf)) - pos
	if first >= n {
		copy(b.buf[pos:pos+n], p[:n])
	} else {
		copy(b.buf[pos:], p[:first])
		copy(b.buf[:n-first], p[first:n])
	}

	b.writePos.Store(w + n)
	return int(n)
}

// Read copies up to len(p) bytes. Only call from the render thread.
func (b *backlog) Read(p []byte) int {
	r := b.readPos.Load()
	w := b.writePos.Load()

	n := uint64(len(p))
	if avail := w - r; n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}

	pos := r & b.mask
	first := uint64(len(b.buf)) - pos
	if first >= n {
		copy(p[:n], b.buf[pos:pos+n])
	} else {
		copy(p[:first], b.buf[pos:])
		copy(p[first:n], b.buf[:n-first])
	}

	b.readPos.Store(r + n)
	return int(n)
}

// Available returns bytes waiting to be read
func (b *backlog) Available() int {
	return int(b.writePos.Load() - b.readPos.Load())
}

// Free returns bytes that can still be written
func (b *backlog) Free() int {
	return len(b.buf) - b.Available()
}
