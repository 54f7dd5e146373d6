// ABOUTME: Encoder interface definition
// ABOUTME: Frames 16-bit PCM for the net-mic wire
package encode

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// FrameDuration is the audio carried by one encoded frame
const FrameDuration = 20 * time.Millisecond

// ErrFrameSize is returned when Encode is given anything but one whole frame
var ErrFrameSize = errors.New("encode: input must be exactly one frame")

// Encoder turns fixed-size frames of 16-bit little-endian PCM into packets
type Encoder interface {
	// Encode converts one frame of FrameBytes() bytes
	Encode(pcm []byte) ([]byte, error)

	// FrameBytes is the input size Encode expects
	FrameBytes() int

	// Codec names the wire codec announced in the session hello
	Codec() string

	// Close releases encoder resources
	Close() error
}

// New returns the encoder for codec
func New(codec string, f audio.Format) (Encoder, error) {
	switch codec {
	case "pcm", "":
		return NewPCM(f)
	case "opus":
		return NewOpus(f)
	default:
		return nil, fmt.Errorf("unsupported codec: %s (supported: pcm, opus)", codec)
	}
}

func checkFormat(f audio.Format) error {
	if f.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth: %d (supported: 16)", f.BitDepth)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("unsupported channel count: %d (supported: 1, 2)", f.Channels)
	}
	return nil
}
