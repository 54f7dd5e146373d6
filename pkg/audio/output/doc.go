// ABOUTME: Audio output package for playing the mix
// ABOUTME: Provides the Output and Renderer interfaces and device backends
// Package output bridges platform audio callbacks to the mixer.
//
// Backends: oto (default), malgo, beep, PortAudio (build with -tags
// portaudio) and null, which renders on a ticker without a device.
//
// Example:
//
//	out, err := output.New("oto")
//	err = out.Open(format, manager)
//	defer out.Close()
package output
