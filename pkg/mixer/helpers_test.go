// ABOUTME: Shared fixtures for mixer tests
// ABOUTME: Manual-tick managers, PCM fixtures and invariant checks
package mixer

import (
	"encoding/binary"
	"testing"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

func testConfig(sources int) Config {
	cfg := DefaultConfig()
	cfg.Sources = sources
	cfg.TickInterval = 0
	return cfg
}

func newTestManager(t *testing.T, sources int, opts ...Option) *Manager {
	t.Helper()

	m, err := NewManager(testConfig(sources), opts...)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	m.Start()
	t.Cleanup(m.Stop)
	return m
}

// pcm returns n bytes of a constant 16-bit sample
func pcm(n int, sample int16) []byte {
	b := make([]byte, n)
	for i := 0; i+1 < n; i += 2 {
		binary.LittleEndian.PutUint16(b[i:], uint16(sample))
	}
	return b
}

func testSound(m *Manager, chunks int) *SoundData {
	return &SoundData{
		Name:   "test",
		Format: m.cfg.Format,
		PCM:    pcm(chunks*m.cfg.ChunkBytes, 1000),
	}
}

func soundAt(id, src int16, vol float64) SoundParameters {
	return SoundParameters{Identifier: id, SourceIdentifier: src, Volume: vol}
}

// endlessDecoder yields a constant sample until remaining reaches zero.
// A negative remaining never ends.
type endlessDecoder struct {
	remaining int
	format    audio.Format
	rewinds   int
}

func (d *endlessDecoder) Pull(p []byte) int {
	n := len(p)
	if d.remaining >= 0 && n > d.remaining {
		n = d.remaining
	}
	copy(p, pcm(n, 2000))
	if d.remaining >= 0 {
		d.remaining -= n
	}
	return n
}

func (d *endlessDecoder) Format() audio.Format { return d.format }

func (d *endlessDecoder) Rewind() error {
	d.rewinds++
	return nil
}

// checkInvariants verifies conservation and that no source is held twice
func checkInvariants(t *testing.T, m *Manager) {
	t.Helper()

	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	held := make(map[int]*Player)
	m.queue.each(func(p *Player) {
		if p.source == nil {
			return
		}
		if other, ok := held[p.source.ID]; ok {
			t.Errorf("source %d assigned to %s and %s", p.source.ID, other.ID, p.ID)
		}
		held[p.source.ID] = p
		if holder := m.pool.Holder(p.source.ID); holder != p {
			t.Errorf("pool holder of source %d does not match player", p.source.ID)
		}
	})

	stats := m.pool.Stats()
	if stats.Free+stats.Assigned != stats.Total {
		t.Errorf("conservation broken: free %d + assigned %d != total %d", stats.Free, stats.Assigned, stats.Total)
	}
	if stats.Assigned != len(held) {
		t.Errorf("expected %d assigned sources, got %d", len(held), stats.Assigned)
	}
}
