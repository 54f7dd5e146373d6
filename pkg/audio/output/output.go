// ABOUTME: Audio output interface definition
// ABOUTME: Backends pull mixed PCM from a Renderer on the device's schedule
package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// ErrNotOpen is returned when a backend is used before Open
var ErrNotOpen = errors.New("output not initialized")

// Renderer fills p with mixed 16-bit PCM and returns the bytes written.
// It is called from the device's audio thread.
type Renderer interface {
	Render(p []byte) int
}

// Output represents an audio output device
type Output interface {
	// Open starts the device and begins pulling audio from r
	Open(f audio.Format, r Renderer) error

	// Close stops pulling and releases the device
	Close() error
}

// Names lists the backends New understands
var Names = []string{"oto", "malgo", "beep", "portaudio", "null"}

// New returns the named backend
func New(name string) (Output, error) {
	switch name {
	case "oto":
		return NewOto(), nil
	case "malgo":
		return NewMalgo(), nil
	case "beep":
		return NewBeep(), nil
	case "portaudio":
		return NewPortAudio(), nil
	case "null", "":
		return NewNull(nil), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s (supported: oto, malgo, beep, portaudio, null)", name)
	}
}

// rendererReader exposes a Renderer as an io.Reader for pull-based players
type rendererReader struct {
	r Renderer
}

// NewReader adapts r to io.Reader. Reads never fail and never return 0 for a
// non-empty buffer.
func NewReader(r Renderer) io.Reader {
	return &rendererReader{r: r}
}

func (rr *rendererReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := rr.r.Render(p)
	if n <= 0 {
		audio.Silence(p)
		n = len(p)
	}
	return n, nil
}

func checkFormat(f audio.Format) error {
	if !f.Valid() {
		return fmt.Errorf("unsupported output format: %s (supported: 16-bit mono or stereo)", f)
	}
	return nil
}
