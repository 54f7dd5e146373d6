// ABOUTME: Net-mic control message definitions
// ABOUTME: JSON text frames exchanged around the binary audio stream
package netmic

// Message types
const (
	TypeHello = "mic/hello"
	TypeReady = "mic/ready"
	TypeError = "mic/error"
	TypeEnd   = "mic/end"
)

// Codecs a client may announce
const (
	CodecPCM  = "pcm"
	CodecOpus = "opus"
)

// Envelope is decoded first to dispatch on the message type
type Envelope struct {
	Type string `json:"type"`
}

// Hello opens a session. PCM is 16-bit little-endian interleaved.
type Hello struct {
	Type       string `json:"type"`
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Name       string `json:"name,omitempty"`
}

// Ready acknowledges a hello; binary frames may follow
type Ready struct {
	Type    string `json:"type"`
	Session string `json:"session"`
}

// Error rejects a session. The server closes the connection after sending it.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
