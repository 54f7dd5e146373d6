// ABOUTME: One-shot playback of files through the mixer
// ABOUTME: First file plays as music, the rest are triggered as sound effects
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Sendspin/sendspin-mixer/pkg/audio/decode"
	"github.com/Sendspin/sendspin-mixer/pkg/mixer"
)

const drainPoll = 20 * time.Millisecond

// ErrNoFiles is returned when Play is given nothing to play
var ErrNoFiles = errors.New("no files to play")

// Play streams files[0] as music and triggers the remaining files as local
// sound effects, interval apart. It returns once every player has retired
// or ctx is cancelled.
func (a *App) Play(ctx context.Context, files []string, interval time.Duration) error {
	if len(files) == 0 {
		return ErrNoFiles
	}

	music, err := decode.Open(files[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", files[0], err)
	}
	defer music.Close()

	sounds := make([]*mixer.SoundData, 0, len(files)-1)
	for _, path := range files[1:] {
		pcm, format, err := decode.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		sounds = append(sounds, &mixer.SoundData{Name: filepath.Base(path), Format: format, PCM: pcm})
	}

	if err := a.start(); err != nil {
		return err
	}
	defer a.stop()

	if _, err := a.mixer.PlayMusic(music); err != nil {
		return fmt.Errorf("failed to play %s: %w", files[0], err)
	}
	a.log.Info().Str("file", filepath.Base(files[0])).Msg("playing music")

	if err := a.trigger(ctx, sounds, interval); err != nil {
		return err
	}

	return a.waitDrained(ctx)
}

func (a *App) trigger(ctx context.Context, sounds []*mixer.SoundData, interval time.Duration) error {
	if len(sounds) == 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i, s := range sounds {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		p, err := a.mixer.PlaySound(s, mixer.SoundParameters{
			Identifier:       int16(i),
			SourceIdentifier: mixer.None,
			Local:            true,
		})
		if err != nil {
			return fmt.Errorf("failed to play %s: %w", s.Name, err)
		}
		if p != nil {
			a.log.Info().Str("file", s.Name).Str("player", p.ID.String()).Msg("triggered sound")
		}
	}
	return nil
}

// waitDrained blocks until the playback queue is empty
func (a *App) waitDrained(ctx context.Context) error {
	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	for {
		if a.mixer.Stats().QueueLen == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
