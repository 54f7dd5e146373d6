// ABOUTME: FLAC decoder
// ABOUTME: Wraps mewkiz/flac frame parsing and scales samples to 16 bits
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
	"github.com/mewkiz/flac"
)

// NewFLAC decodes FLAC from r. Close closes r when it is an io.Closer.
func NewFLAC(r io.ReadSeeker) (Decoder, error) {
	st, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	channels := int(st.Info.NChannels)
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	bitDepth := int(st.Info.BitsPerSample)

	s := &stream{
		format: audio.Format{SampleRate: int(st.Info.SampleRate), Channels: channels, BitDepth: 16},
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	var buf []byte
	s.next = func() ([]byte, error) {
		frame, err := st.ParseNext()
		if err != nil {
			return nil, err
		}

		size := int(frame.BlockSize) * channels * 2
		if cap(buf) < size {
			buf = make([]byte, size)
		}
		buf = buf[:size]

		samples := make([]int16, 0, int(frame.BlockSize)*channels)
		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, audio.ScaleToInt16(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
		return buf[:audio.PutInt16s(buf, samples)], nil
	}
	s.reset = func() error {
		if err := seekStart(r); err != nil {
			return err
		}
		ns, err := flac.New(r)
		if err != nil {
			return fmt.Errorf("failed to create new stream: %w", err)
		}
		st = ns
		return nil
	}

	return s, nil
}
