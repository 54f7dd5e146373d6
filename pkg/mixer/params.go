// ABOUTME: Sound request parameters and audibility estimation
// ABOUTME: Defines dedup identity, sound flags and the Simulator collaborator
package mixer

import "github.com/Sendspin/sendspin-mixer/pkg/audio"

// None marks a missing identifier. A sound with SourceIdentifier None is local
// (non-spatial) and is never deduplicated.
const None int16 = -1

// SoundFlags alter admission behaviour
type SoundFlags uint16

const (
	// FlagCannotBeRestarted returns the playing instance instead of restarting it
	FlagCannotBeRestarted SoundFlags = 1 << iota
	// FlagDoesNotSelfAbort skips deduplication so instances may overlap
	FlagDoesNotSelfAbort
)

// SoundParameters describe one PlaySound request
type SoundParameters struct {
	Identifier       int16
	SourceIdentifier int16
	Flags            SoundFlags

	// Local sounds are not positioned in the world
	Local bool

	// Panning sounds carry their own global gain
	Panning    bool
	GainGlobal float64

	// Volume is the host's attenuation estimate for positioned sounds, in [0,1]
	Volume float64
}

// SoundData is a fully decoded sound held in memory
type SoundData struct {
	Name   string
	Format audio.Format
	PCM    []byte
}

// Simulator estimates how loud a request would be if played. A result <= 0
// means inaudible and the request is dropped before a player is created.
type Simulator interface {
	Simulate(params SoundParameters) float64
}

// SimulatorFunc adapts a function to Simulator
type SimulatorFunc func(params SoundParameters) float64

func (f SimulatorFunc) Simulate(params SoundParameters) float64 { return f(params) }

// GainSimulator is the default estimate: local sounds play at full volume,
// panning sounds at their global gain, positioned sounds at the host's Volume.
type GainSimulator struct{}

func (GainSimulator) Simulate(params SoundParameters) float64 {
	if params.Local && !params.Panning {
		return 1
	}
	if params.Panning {
		return params.GainGlobal
	}
	return params.Volume
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
