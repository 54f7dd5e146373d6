// ABOUTME: Net-mic client streaming local audio into a remote mixer
// ABOUTME: Performs the hello handshake and sends paced, encoded 20ms frames
package netmic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
	"github.com/Sendspin/sendspin-mixer/pkg/audio/encode"
)

// ErrRejected wraps the reason a mixer refused the session
var ErrRejected = errors.New("session rejected")

// prebufferFrames are sent unpaced so the mixer's backlog starts ahead
const prebufferFrames = 3

// Puller yields 16-bit PCM; a zero return means the source is exhausted
type Puller interface {
	Pull(p []byte) int
}

// ClientConfig describes one outgoing session
type ClientConfig struct {
	URL    string
	Name   string
	Format audio.Format

	// Realtime paces frames at playback speed after the prebuffer
	Realtime bool
}

// Client is one connected net-mic session
type Client struct {
	config  ClientConfig
	conn    *websocket.Conn
	enc     encode.Encoder
	session string
	log     zerolog.Logger
}

// Dial connects to a mixer and completes the handshake
func Dial(ctx context.Context, config ClientConfig, enc encode.Encoder, log zerolog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	c := &Client{config: config, conn: conn, enc: enc, log: log}
	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake failed: %w", err)
	}

	log.Info().Str("url", config.URL).Str("session", c.session).Str("codec", enc.Codec()).Msg("net-mic session ready")
	return c, nil
}

func (c *Client) handshake() error {
	hello := Hello{
		Type:       TypeHello,
		Codec:      c.enc.Codec(),
		SampleRate: c.config.Format.SampleRate,
		Channels:   c.config.Format.Channels,
		Name:       c.config.Name,
	}
	if err := c.conn.WriteJSON(hello); err != nil {
		return fmt.Errorf("failed to send %s: %w", TypeHello, err)
	}

	c.conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read reply: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to parse reply: %w", err)
	}

	switch env.Type {
	case TypeReady:
		var ready Ready
		if err := json.Unmarshal(data, &ready); err != nil {
			return fmt.Errorf("failed to parse %s: %w", TypeReady, err)
		}
		c.session = ready.Session
		return nil
	case TypeError:
		var rejected Error
		json.Unmarshal(data, &rejected)
		return fmt.Errorf("%w: %s", ErrRejected, rejected.Message)
	default:
		return fmt.Errorf("expected %s, got %q", TypeReady, env.Type)
	}
}

// Session returns the id assigned by the mixer
func (c *Client) Session() string {
	return c.session
}

// SendFrame encodes and sends one frame of FrameBytes() PCM
func (c *Client) SendFrame(pcm []byte) error {
	pkt, err := c.enc.Encode(pcm)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, pkt)
}

// Stream sends everything src yields, then ends the session so the mixer
// plays out what it has buffered. Returns early when ctx is cancelled.
func (c *Client) Stream(ctx context.Context, src Puller) error {
	frame := make([]byte, c.enc.FrameBytes())

	var ticker *time.Ticker
	if c.config.Realtime {
		ticker = time.NewTicker(encode.FrameDuration)
		defer ticker.Stop()
	}

	sent := 0
	for {
		n := src.Pull(frame)
		if n == 0 {
			break
		}
		// the final partial frame is padded with silence
		audio.Silence(frame[n:])

		if ticker != nil && sent >= prebufferFrames {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.SendFrame(frame); err != nil {
			return fmt.Errorf("failed to send frame: %w", err)
		}
		sent++
	}

	c.log.Debug().Int("frames", sent).Msg("net-mic source exhausted")
	return c.End()
}

// End tells the mixer no more audio follows and waits for it to close
func (c *Client) End() error {
	if err := c.conn.WriteJSON(Envelope{Type: TypeEnd}); err != nil {
		return fmt.Errorf("failed to send %s: %w", TypeEnd, err)
	}

	c.conn.SetReadDeadline(time.Now().Add(helloTimeout))
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("waiting for close: %w", err)
		}
	}
}

// Close drops the connection; the mixer stops the stream immediately
func (c *Client) Close() error {
	return c.conn.Close()
}
