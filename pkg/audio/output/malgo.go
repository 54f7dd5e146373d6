// ABOUTME: Malgo-based audio output implementation
// ABOUTME: The miniaudio data callback renders mixed PCM directly into the device buffer
package output

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog/log"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format
}

// NewMalgo creates a new Malgo output
func NewMalgo() Output {
	return &Malgo{}
}

// Open initializes the output device with specified format
func (m *Malgo) Open(f audio.Format, r Renderer) error {
	if err := checkFormat(f); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("malgo output already open")
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(f.Channels)
	deviceConfig.SampleRate = uint32(f.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	frameSize := f.FrameSize()
	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		n := int(frameCount) * frameSize
		if n > len(pOutputSample) {
			n = len(pOutputSample)
		}
		r.Render(pOutputSample[:n])
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.format = f

	log.Info().Str("backend", "malgo").Str("format", f.String()).Msg("audio output initialized")
	return nil
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Warn().Err(err).Msg("malgo device stop error")
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Warn().Err(err).Msg("malgo context uninit error")
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	return nil
}
