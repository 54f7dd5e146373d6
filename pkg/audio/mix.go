// ABOUTME: PCM mixing helpers
// ABOUTME: Saturating accumulation of 16-bit little-endian buffers with gain
package audio

import "encoding/binary"

// Silence zeroes p
func Silence(p []byte) {
	for i := range p {
		p[i] = 0
	}
}

// MixInt16LE adds src into dst scaled by gain, clamping to the 16-bit range.
// Both buffers hold interleaved signed 16-bit little-endian samples.
// Returns the number of bytes consumed from src (always even).
func MixInt16LE(dst, src []byte, gain float64) int {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	n &^= 1

	if gain <= 0 {
		return n
	}

	for i := 0; i < n; i += 2 {
		s := float64(int16(binary.LittleEndian.Uint16(src[i:]))) * gain
		acc := int32(int16(binary.LittleEndian.Uint16(dst[i:]))) + int32(s)
		binary.LittleEndian.PutUint16(dst[i:], uint16(Clamp16(acc)))
	}

	return n
}

// Clamp16 saturates v to the int16 range
func Clamp16(v int32) int16 {
	if v > Max16Bit {
		return Max16Bit
	}
	if v < Min16Bit {
		return Min16Bit
	}
	return int16(v)
}

// PutInt16s encodes samples as little-endian bytes into dst and returns bytes written
func PutInt16s(dst []byte, samples []int16) int {
	n := 0
	for _, s := range samples {
		if n+2 > len(dst) {
			break
		}
		binary.LittleEndian.PutUint16(dst[n:], uint16(s))
		n += 2
	}
	return n
}

// Int16s decodes little-endian bytes from src into dst and returns samples read
func Int16s(dst []int16, src []byte) int {
	n := 0
	for n < len(dst) && 2*n+1 < len(src) {
		dst[n] = int16(binary.LittleEndian.Uint16(src[2*n:]))
		n++
	}
	return n
}
