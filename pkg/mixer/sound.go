// ABOUTME: Sound effect producer backed by fully decoded PCM in memory
// ABOUTME: Priority follows the estimated audible volume of the request
package mixer

import "io"

type soundProducer struct {
	data []byte
	pos  int
	vol  *atomicFloat
}

func (s *soundProducer) Produce(p []byte) (int, error) {
	n := copy(p, s.data[s.pos:])
	s.pos += n
	if s.pos >= len(s.data) {
		return n, io.EOF
	}
	return n, nil
}

// Priority is the audible volume, so quiet sounds are evicted first
func (s *soundProducer) Priority() float64 {
	return clampUnit(s.vol.Load())
}

func (s *soundProducer) rewind() {
	s.pos = 0
}

func newSoundPlayer(data *SoundData, params SoundParameters, vol float64, sim Simulator) *Player {
	prod := &soundProducer{data: data.PCM}
	p := newPlayer(KindSound, prod)
	prod.vol = &p.volume

	p.identifier = params.Identifier
	p.sourceIdentifier = params.SourceIdentifier
	p.flags = params.Flags
	p.sim = sim
	p.setParameters(params, vol)
	return p
}
