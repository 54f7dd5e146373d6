//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: The PortAudio stream callback renders mixed PCM on the device thread
package output

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog/log"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// PortAudio output implementation
type PortAudio struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []byte
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(f audio.Format, r Renderer) error {
	if err := checkFormat(f); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return fmt.Errorf("portaudio output already open")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	// 10ms per callback
	frames := f.SampleRate / 100
	p.buf = make([]byte, frames*f.FrameSize())

	stream, err := portaudio.OpenDefaultStream(0, f.Channels, float64(f.SampleRate), frames, func(out []int16) {
		buf := p.buf
		if len(out)*2 > len(buf) {
			buf = make([]byte, len(out)*2)
		}
		buf = buf[:len(out)*2]
		r.Render(buf)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
		}
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start stream: %w", err)
	}

	p.stream = stream
	log.Info().Str("backend", "portaudio").Str("format", f.String()).Msg("audio output initialized")
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}

	if err := p.stream.Stop(); err != nil {
		return err
	}
	if err := p.stream.Close(); err != nil {
		return err
	}
	p.stream = nil
	return portaudio.Terminate()
}
