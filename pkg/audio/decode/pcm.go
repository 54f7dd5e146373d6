// ABOUTME: Raw PCM decoder
// ABOUTME: Passes headerless 16-bit little-endian PCM through unchanged
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// NewPCM reads headerless PCM in format f from r. Close closes r when it is an io.Closer.
func NewPCM(r io.ReadSeeker, f audio.Format) (Decoder, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unsupported PCM format: %s (supported: 16-bit mono or stereo)", f)
	}

	s := &stream{format: f}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	buf := make([]byte, 4096)
	s.next = func() ([]byte, error) {
		n, err := io.ReadFull(r, buf)
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		// drop a trailing partial frame
		n -= n % f.FrameSize()
		return buf[:n], err
	}
	s.reset = func() error {
		return seekStart(r)
	}

	return s, nil
}
