// ABOUTME: Oto-based audio output implementation
// ABOUTME: A persistent oto player pulls mixed PCM straight from the renderer
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog/log"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	mu     sync.Mutex
	otoCtx *oto.Context
	player *oto.Player
	format audio.Format
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{}
}

// Open initializes the output device
func (o *Oto) Open(f audio.Format, r Renderer) error {
	if err := checkFormat(f); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return fmt.Errorf("oto output already open")
	}

	// oto allows one context per process, so a reopen must keep the format
	if o.otoCtx != nil && o.format != f {
		return fmt.Errorf("oto cannot reinitialize from %s to %s", o.format, f)
	}

	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   40 * time.Millisecond,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan

		o.otoCtx = ctx
		o.format = f
	} else if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}

	o.player = o.otoCtx.NewPlayer(NewReader(r))
	o.player.Play()

	log.Info().Str("backend", "oto").Str("format", f.String()).Msg("audio output initialized")
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Warn().Err(err).Msg("oto player close error")
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	return nil
}
