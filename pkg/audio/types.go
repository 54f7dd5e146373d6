// ABOUTME: Audio type definitions
// ABOUTME: Defines the device PCM format and sample conversions
package audio

import (
	"fmt"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// 16-bit audio range constants
	Max16Bit = 32767
	Min16Bit = -32768
)

// Format describes a PCM stream format
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Valid reports whether the format can be mixed (interleaved signed 16-bit PCM)
func (f Format) Valid() bool {
	return f.SampleRate > 0 && (f.Channels == 1 || f.Channels == 2) && f.BitDepth == 16
}

// FrameSize returns the number of bytes per interleaved frame
func (f Format) FrameSize() int {
	return f.Channels * f.BitDepth / 8
}

// BytesFor returns the byte length of d worth of audio, aligned to whole frames
func (f Format) BytesFor(d time.Duration) int {
	frames := int(int64(f.SampleRate) * int64(d) / int64(time.Second))
	return frames * f.FrameSize()
}

// DurationOf returns the playback duration of n bytes
func (f Format) DurationOf(n int) time.Duration {
	if f.FrameSize() == 0 || f.SampleRate == 0 {
		return 0
	}
	frames := n / f.FrameSize()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// Float32ToInt16 converts a float sample in [-1,1] to int16 with clipping
func Float32ToInt16(sample float32) int16 {
	v := sample * 32768
	if v > Max16Bit {
		return Max16Bit
	}
	if v < Min16Bit {
		return Min16Bit
	}
	return int16(v)
}

// ScaleToInt16 converts a signed sample of the given bit depth to int16
func ScaleToInt16(sample int32, bitDepth int) int16 {
	switch {
	case bitDepth == 16:
		return int16(sample)
	case bitDepth > 16:
		return int16(sample >> (bitDepth - 16))
	default:
		return int16(sample << (16 - bitDepth))
	}
}
