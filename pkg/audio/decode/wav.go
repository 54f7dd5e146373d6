// ABOUTME: WAV decoder
// ABOUTME: Wraps go-audio/wav and scales integer PCM to 16 bits
package decode

import (
	"errors"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// ErrNotWAV is returned when the RIFF header is missing or malformed
var ErrNotWAV = errors.New("not a valid WAV file")

// NewWAV decodes integer PCM WAV from r. Close closes r when it is an io.Closer.
func NewWAV(r io.ReadSeeker) (Decoder, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	dec.ReadInfo()

	channels := int(dec.NumChans)
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	bitDepth := int(dec.BitDepth)

	s := &stream{
		format: audio.Format{SampleRate: int(dec.SampleRate), Channels: channels, BitDepth: 16},
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	ib := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
		Data:   make([]int, 2048*channels),
	}
	samples := make([]int16, len(ib.Data))
	buf := make([]byte, len(ib.Data)*2)

	s.next = func() ([]byte, error) {
		n, err := dec.PCMBuffer(ib)
		if n == 0 {
			if err == nil {
				err = io.EOF
			}
			return nil, err
		}
		for i := 0; i < n; i++ {
			samples[i] = audio.ScaleToInt16(int32(ib.Data[i]), bitDepth)
		}
		return buf[:audio.PutInt16s(buf, samples[:n])], err
	}
	s.reset = func() error {
		if err := seekStart(r); err != nil {
			return err
		}
		d := wav.NewDecoder(r)
		if !d.IsValidFile() {
			return ErrNotWAV
		}
		d.ReadInfo()
		dec = d
		return nil
	}

	return s, nil
}
