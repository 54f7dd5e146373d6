// ABOUTME: Opus audio encoder
// ABOUTME: Encodes 20ms frames of 16-bit PCM into Opus packets
package encode

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// maxPacket is the largest packet libopus recommends allocating for
const maxPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder    *opus.Encoder
	frameBytes int
	pcm        []int16
	packet     []byte
}

// NewOpus creates a new Opus encoder. Opus accepts 8, 12, 16, 24 and 48kHz.
func NewOpus(f audio.Format) (*OpusEncoder, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}

	encoder, err := opus.NewEncoder(f.SampleRate, f.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	frameBytes := f.BytesFor(FrameDuration)
	return &OpusEncoder{
		encoder:    encoder,
		frameBytes: frameBytes,
		pcm:        make([]int16, frameBytes/2),
		packet:     make([]byte, maxPacket),
	}, nil
}

// Encode converts one frame to an Opus packet
func (e *OpusEncoder) Encode(pcm []byte) ([]byte, error) {
	if len(pcm) != e.frameBytes {
		return nil, ErrFrameSize
	}

	audio.Int16s(e.pcm, pcm)

	n, err := e.encoder.Encode(e.pcm, e.packet)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	return append([]byte(nil), e.packet[:n]...), nil
}

func (e *OpusEncoder) FrameBytes() int { return e.frameBytes }
func (e *OpusEncoder) Codec() string   { return "opus" }

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}
