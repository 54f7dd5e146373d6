// ABOUTME: Tests for PCM mixing helpers
// ABOUTME: Verifies gain, saturation and partial buffers
package audio

import (
	"encoding/binary"
	"testing"
)

func int16Bytes(samples ...int16) []byte {
	b := make([]byte, len(samples)*2)
	PutInt16s(b, samples)
	return b
}

func sampleAt(b []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(b[i*2:]))
}

func TestMixInt16LEAccumulates(t *testing.T) {
	dst := int16Bytes(100, -100, 0, 0)
	src := int16Bytes(1000, -1000, 500, -500)

	n := MixInt16LE(dst, src, 0.5)
	if n != len(src) {
		t.Fatalf("expected %d bytes consumed, got %d", len(src), n)
	}

	expected := []int16{600, -600, 250, -250}
	for i, want := range expected {
		if got := sampleAt(dst, i); got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestMixInt16LESaturates(t *testing.T) {
	dst := int16Bytes(30000, -30000)
	src := int16Bytes(30000, -30000)

	MixInt16LE(dst, src, 1.0)

	if got := sampleAt(dst, 0); got != Max16Bit {
		t.Errorf("expected %d, got %d", Max16Bit, got)
	}
	if got := sampleAt(dst, 1); got != Min16Bit {
		t.Errorf("expected %d, got %d", Min16Bit, got)
	}
}

func TestMixInt16LEShortDestination(t *testing.T) {
	dst := make([]byte, 3)
	src := int16Bytes(1, 2, 3, 4)

	// only one whole sample fits
	if n := MixInt16LE(dst, src, 1.0); n != 2 {
		t.Errorf("expected 2 bytes consumed, got %d", n)
	}
}

func TestMixInt16LEZeroGain(t *testing.T) {
	dst := int16Bytes(7, 7)
	src := int16Bytes(1000, 1000)

	n := MixInt16LE(dst, src, 0)
	if n != 4 {
		t.Errorf("expected source consumed, got %d", n)
	}
	if sampleAt(dst, 0) != 7 || sampleAt(dst, 1) != 7 {
		t.Error("zero gain must leave destination untouched")
	}
}

func TestSilence(t *testing.T) {
	b := []byte{1, 2, 3}
	Silence(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("byte %d not zeroed", i)
		}
	}
}

func TestInt16sRoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 1234}
	buf := make([]byte, len(in)*2)
	if n := PutInt16s(buf, in); n != len(buf) {
		t.Fatalf("PutInt16s wrote %d bytes, want %d", n, len(buf))
	}

	out := make([]int16, len(in))
	if n := Int16s(out, buf); n != len(in) {
		t.Fatalf("Int16s read %d samples, want %d", n, len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d = %d, want %d", i, out[i], in[i])
		}
	}

	// a trailing odd byte is ignored
	if n := Int16s(out, buf[:5]); n != 2 {
		t.Errorf("Int16s on 5 bytes read %d samples, want 2", n)
	}
}
