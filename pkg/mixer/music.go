// ABOUTME: Music producer pulling PCM from an external decoder
// ABOUTME: Runs at a fixed priority above any sound effect
package mixer

import (
	"io"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// MusicPriority exceeds the maximum sound priority (1) so sound effects
// never preempt music
const MusicPriority = 5.0

// Decoder produces PCM in the device format. Pull fills p and returns the
// bytes written; 0 means the decoder is exhausted.
type Decoder interface {
	Pull(p []byte) int
}

// formatter is implemented by decoders that know their output format
type formatter interface {
	Format() audio.Format
}

// Rewinder is implemented by decoders that can restart from the beginning
type Rewinder interface {
	Rewind() error
}

type musicProducer struct {
	dec Decoder
}

func (m *musicProducer) Produce(p []byte) (int, error) {
	n := m.dec.Pull(p)
	if n <= 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (m *musicProducer) Priority() float64 {
	return MusicPriority
}

func (m *musicProducer) rewind() {
	if r, ok := m.dec.(Rewinder); ok {
		_ = r.Rewind()
	}
}

func newMusicPlayer(dec Decoder) *Player {
	return newPlayer(KindMusic, &musicProducer{dec: dec})
}
