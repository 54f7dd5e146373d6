// ABOUTME: MP3 decoder
// ABOUTME: Wraps go-mp3, which always yields 16-bit stereo
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// NewMP3 decodes MP3 from r. Close closes r when it is an io.Closer.
func NewMP3(r io.ReadSeeker) (Decoder, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	s := &stream{
		format: audio.Format{SampleRate: dec.SampleRate(), Channels: 2, BitDepth: 16},
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	buf := make([]byte, 4608)
	s.next = func() ([]byte, error) {
		n, err := dec.Read(buf)
		return buf[:n], err
	}
	s.reset = func() error {
		if err := seekStart(r); err != nil {
			return err
		}
		d, err := mp3.NewDecoder(r)
		if err != nil {
			return fmt.Errorf("failed to create new decoder: %w", err)
		}
		dec = d
		return nil
	}

	return s, nil
}
