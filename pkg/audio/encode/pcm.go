// ABOUTME: PCM passthrough encoder
// ABOUTME: Sends raw frames unchanged
package encode

import "github.com/Sendspin/sendspin-mixer/pkg/audio"

// PCMEncoder frames raw PCM
type PCMEncoder struct {
	frameBytes int
}

// NewPCM creates a new PCM encoder
func NewPCM(f audio.Format) (*PCMEncoder, error) {
	if err := checkFormat(f); err != nil {
		return nil, err
	}
	return &PCMEncoder{frameBytes: f.BytesFor(FrameDuration)}, nil
}

// Encode returns a copy of the frame
func (e *PCMEncoder) Encode(pcm []byte) ([]byte, error) {
	if len(pcm) != e.frameBytes {
		return nil, ErrFrameSize
	}
	return append([]byte(nil), pcm...), nil
}

func (e *PCMEncoder) FrameBytes() int { return e.frameBytes }
func (e *PCMEncoder) Codec() string   { return "pcm" }
func (e *PCMEncoder) Close() error    { return nil }
