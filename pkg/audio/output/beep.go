// ABOUTME: Beep speaker output implementation
// ABOUTME: Exposes the renderer as a beep.Streamer played by the speaker package
package output

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// Beep output implementation using the beep speaker
type Beep struct {
	mu       sync.Mutex
	streamer *renderStreamer
}

// NewBeep creates a new Beep output
func NewBeep() Output {
	return &Beep{}
}

// Open initializes the speaker and starts streaming
func (b *Beep) Open(f audio.Format, r Renderer) error {
	if err := checkFormat(f); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.streamer != nil {
		return fmt.Errorf("beep output already open")
	}

	sr := beep.SampleRate(f.SampleRate)
	if err := speaker.Init(sr, sr.N(50*time.Millisecond)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	b.streamer = newRenderStreamer(f, r)
	speaker.Play(b.streamer)

	log.Info().Str("backend", "beep").Str("format", f.String()).Msg("audio output initialized")
	return nil
}

// Close stops the speaker
func (b *Beep) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.streamer == nil {
		return nil
	}

	speaker.Clear()
	speaker.Close()
	b.streamer = nil
	return nil
}

// renderStreamer converts rendered 16-bit PCM to beep's float frames
type renderStreamer struct {
	r        Renderer
	channels int
	buf      []byte
}

var _ beep.Streamer = (*renderStreamer)(nil)

func newRenderStreamer(f audio.Format, r Renderer) *renderStreamer {
	return &renderStreamer{r: r, channels: f.Channels}
}

func (s *renderStreamer) Stream(samples [][2]float64) (int, bool) {
	size := len(samples) * s.channels * 2
	if cap(s.buf) < size {
		s.buf = make([]byte, size)
	}
	buf := s.buf[:size]
	s.r.Render(buf)

	for i := range samples {
		left := float64(int16(binary.LittleEndian.Uint16(buf[i*s.channels*2:]))) / 32768
		right := left
		if s.channels == 2 {
			right = float64(int16(binary.LittleEndian.Uint16(buf[i*4+2:]))) / 32768
		}
		samples[i][0] = left
		samples[i][1] = right
	}

	return len(samples), true
}

func (s *renderStreamer) Err() error {
	return nil
}
