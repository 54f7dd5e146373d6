// Package encode frames 16-bit PCM for the net-mic websocket.
//
// Every encoder consumes exactly one 20ms frame per call, so a sender can
// pace itself by frame count. Supported codecs: pcm (passthrough) and opus.
//
// Example:
//
//	enc, err := encode.New("opus", format)
//	pkt, err := enc.Encode(frame) // len(frame) == enc.FrameBytes()
package encode
