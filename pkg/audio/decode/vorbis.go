// ABOUTME: Ogg Vorbis decoder
// ABOUTME: Wraps jfreymuth/oggvorbis and converts float samples to 16 bits
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// NewVorbis decodes Ogg Vorbis from r. Close closes r when it is an io.Closer.
func NewVorbis(r io.ReadSeeker) (Decoder, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Vorbis: %w", err)
	}
	if err := checkChannels(dec.Channels()); err != nil {
		return nil, err
	}

	s := &stream{
		format: audio.Format{SampleRate: dec.SampleRate(), Channels: dec.Channels(), BitDepth: 16},
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	// Read counts interleaved values, not frames
	values := make([]float32, 2048*dec.Channels())
	samples := make([]int16, len(values))
	buf := make([]byte, len(values)*2)

	s.next = func() ([]byte, error) {
		n, err := dec.Read(values)
		for i := 0; i < n; i++ {
			samples[i] = audio.Float32ToInt16(values[i])
		}
		return buf[:audio.PutInt16s(buf, samples[:n])], err
	}
	s.reset = func() error {
		if err := seekStart(r); err != nil {
			return err
		}
		d, err := oggvorbis.NewReader(r)
		if err != nil {
			return fmt.Errorf("failed to create new reader: %w", err)
		}
		dec = d
		return nil
	}

	return s, nil
}
