// ABOUTME: Tests for source buffer rings
// ABOUTME: Covers queueing, partial rendering and reset
package mixer

import "testing"

func TestSourceRingFillsInOrder(t *testing.T) {
	s := newSource(1, 1, 3, 8)

	for i := 0; i < 3; i++ {
		b := s.nextFree()
		if b == nil {
			t.Fatalf("expected free buffer %d", i)
		}
		if b.ID != i+1 {
			t.Errorf("expected buffer %d, got %d", i+1, b.ID)
		}
		s.queue(8)
	}

	if s.nextFree() != nil {
		t.Error("expected full ring")
	}
	if s.Queued() != 3 {
		t.Errorf("expected 3 queued, got %d", s.Queued())
	}
}

func TestSourceMixIntoPartial(t *testing.T) {
	s := newSource(1, 1, 2, 8)
	copy(s.nextFree().data, pcm(8, 100))
	s.queue(8)
	copy(s.nextFree().data, pcm(8, 200))
	s.queue(8)

	out := make([]byte, 4)
	if n := s.mixInto(out, 1); n != 4 {
		t.Errorf("expected 4 bytes mixed, got %d", n)
	}
	if sampleAt(out, 0) != 100 || s.Queued() != 2 {
		t.Errorf("expected half of first buffer rendered, queued=%d", s.Queued())
	}

	out = make([]byte, 8)
	s.mixInto(out, 1)
	if sampleAt(out, 0) != 100 || sampleAt(out, 2) != 200 {
		t.Errorf("expected render to cross buffers, got %d %d", sampleAt(out, 0), sampleAt(out, 2))
	}
	if s.Queued() != 1 {
		t.Errorf("expected first buffer released, queued=%d", s.Queued())
	}
}

func TestSourceMixIntoOddTail(t *testing.T) {
	s := newSource(1, 1, 1, 8)
	s.queue(5)

	out := make([]byte, 8)
	if n := s.mixInto(out, 1); n != 4 {
		t.Errorf("expected 4 bytes mixed, got %d", n)
	}
	if s.Queued() != 0 {
		t.Error("expected buffer with a dangling byte to be released")
	}
}

func TestSourceReset(t *testing.T) {
	s := newSource(1, 1, 2, 8)
	s.queue(8)
	s.playing = true
	s.mixInto(make([]byte, 2), 1)

	s.reset()

	if s.Queued() != 0 || s.Playing() || s.offset != 0 || s.head != 0 {
		t.Error("expected reset to clear ring state")
	}
}
