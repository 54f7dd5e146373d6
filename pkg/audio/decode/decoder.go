// ABOUTME: Decoder interface and the shared pull buffer behind every file decoder
// ABOUTME: Opens files by extension and decodes whole sounds into memory
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

var (
	// ErrUnsupportedFormat is returned for files no decoder handles
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrUnsupportedChannels is returned for sources with more than two channels
	ErrUnsupportedChannels = errors.New("unsupported channel count")
)

// RawFormat is assumed for headerless .pcm and .raw files
var RawFormat = audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16}

// Decoder produces interleaved signed 16-bit little-endian PCM. Pull fills p
// and returns the bytes written; 0 means the decoder is exhausted.
type Decoder interface {
	Pull(p []byte) int
	Format() audio.Format
	Close() error
}

// maxEmptyReads bounds retries when a codec returns no data and no error
const maxEmptyReads = 8

// stream adapts a block decoder to the pull contract. next returns the
// next decoded block as PCM bytes; reset restarts decoding from the top.
type stream struct {
	format  audio.Format
	next    func() ([]byte, error)
	reset   func() error
	closer  io.Closer
	pending []byte
	done    bool
	err     error
}

func (s *stream) Pull(p []byte) int {
	n := 0
	empty := 0

	for n < len(p) {
		if len(s.pending) == 0 {
			if s.done {
				break
			}

			block, err := s.next()
			if err != nil {
				s.done = true
				if !errors.Is(err, io.EOF) {
					s.err = err
				}
			}
			if len(block) == 0 && err == nil {
				empty++
				if empty > maxEmptyReads {
					break
				}
			}
			s.pending = block
			continue
		}

		c := copy(p[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}

	return n
}

func (s *stream) Format() audio.Format {
	return s.format
}

// Err returns the decode error that ended the stream early, if any
func (s *stream) Err() error {
	return s.err
}

// Rewind restarts decoding from the beginning
func (s *stream) Rewind() error {
	if s.reset == nil {
		return fmt.Errorf("rewind not supported")
	}
	if err := s.reset(); err != nil {
		s.done = true
		s.err = err
		return err
	}
	s.pending = nil
	s.done = false
	s.err = nil
	return nil
}

func (s *stream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open picks a decoder by file extension
func Open(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	var dec Decoder
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		dec, err = NewMP3(f)
	case ".flac":
		dec, err = NewFLAC(f)
	case ".ogg", ".oga":
		dec, err = NewVorbis(f)
	case ".wav":
		dec, err = NewWAV(f)
	case ".pcm", ".raw":
		dec, err = NewPCM(f, RawFormat)
	default:
		err = fmt.Errorf("%w: %s (supported: .mp3, .flac, .ogg, .wav, .pcm)", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		f.Close()
		return nil, err
	}
	return dec, nil
}

// ReadAll drains dec into memory
func ReadAll(dec Decoder) []byte {
	var out []byte
	buf := make([]byte, 16*1024)
	for {
		n := dec.Pull(buf)
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
	}
}

// Load decodes a whole file into memory
func Load(path string) ([]byte, audio.Format, error) {
	dec, err := Open(path)
	if err != nil {
		return nil, audio.Format{}, err
	}
	defer dec.Close()

	data := ReadAll(dec)
	if e, ok := dec.(interface{ Err() error }); ok && e.Err() != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), e.Err())
	}
	return data, dec.Format(), nil
}

func checkChannels(channels int) error {
	if channels != 1 && channels != 2 {
		return fmt.Errorf("%w: %d", ErrUnsupportedChannels, channels)
	}
	return nil
}

func seekStart(r io.Seeker) error {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	return nil
}
