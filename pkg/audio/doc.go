// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and PCM mixing/conversion helpers
// Package audio provides fundamental audio types used by the mixer and its backends.
//
// The mixer works on a single device format: interleaved signed 16-bit
// little-endian PCM. This package defines:
//   - Format: sample rate, channel count and bit depth of a stream
//   - MixInt16LE: saturating accumulation of one buffer into another with gain
//   - conversions from 24-bit, float and arbitrary bit depths to int16
//
// Example:
//
//	format := audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16}
//	chunk := make([]byte, format.BytesFor(20*time.Millisecond))
//	audio.MixInt16LE(out, chunk, 0.5)
package audio
