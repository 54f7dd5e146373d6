// ABOUTME: Opus packet decoder
// ABOUTME: Decodes network-delivered Opus packets to 16-bit PCM bytes
package decode

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// maxOpusFrame is 120ms at 48kHz, the largest Opus frame
const maxOpusFrame = 5760

// Opus decodes individual Opus packets
type Opus struct {
	decoder *opus.Decoder
	format  audio.Format
	pcm     []int16
}

// NewOpus creates a packet decoder for the given rate and channel count
func NewOpus(sampleRate, channels int) (*Opus, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}

	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &Opus{
		decoder: dec,
		format:  audio.Format{SampleRate: sampleRate, Channels: channels, BitDepth: 16},
		pcm:     make([]int16, maxOpusFrame*channels),
	}, nil
}

// Format returns the PCM format produced by DecodePacket
func (d *Opus) Format() audio.Format {
	return d.format
}

// DecodePacket decodes one packet into little-endian PCM bytes
func (d *Opus) DecodePacket(pkt []byte) ([]byte, error) {
	n, err := d.decoder.Decode(pkt, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	samples := d.pcm[:n*d.format.Channels]
	out := make([]byte, len(samples)*2)
	audio.PutInt16s(out, samples)
	return out, nil
}
