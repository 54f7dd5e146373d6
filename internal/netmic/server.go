// ABOUTME: Websocket endpoint that turns remote microphones into stream players
// ABOUTME: Each connection feeds decoded PCM into one mixer stream player
package netmic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
	"github.com/Sendspin/sendspin-mixer/pkg/audio/decode"
	"github.com/Sendspin/sendspin-mixer/pkg/mixer"
)

// Path is where the endpoint is mounted
const Path = "/mic"

const (
	helloTimeout    = 5 * time.Second
	shutdownTimeout = 2 * time.Second
	maxMessageSize  = 1 << 20
)

// ErrMixerStopped is reported to clients connecting while the mixer is not running
var ErrMixerStopped = errors.New("mixer not running")

// StreamMixer creates the stream players sessions feed
type StreamMixer interface {
	PlayStream(data []byte, f audio.Format) (*mixer.Player, error)
}

// Config holds server configuration
type Config struct {
	Port int
}

// Stats is a snapshot of endpoint activity
type Stats struct {
	Sessions int
	Received int64
	Dropped  int64
}

// Server accepts net-mic websocket sessions
type Server struct {
	config   Config
	mixer    StreamMixer
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	received int64
	dropped  int64

	wg sync.WaitGroup
}

type session struct {
	id     uuid.UUID
	name   string
	conn   *websocket.Conn
	player *mixer.Player
	opus   *decode.Opus
}

// New creates a server feeding m
func New(config Config, m StreamMixer, log zerolog.Logger) *Server {
	return &Server{
		config: config,
		mixer:  m,
		log:    log,
		upgrader: websocket.Upgrader{
			// microphones are local-network devices, not browsers
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[uuid.UUID]*session),
	}
}

// Handler returns the HTTP handler serving Path
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then closes every session
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: helloTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", s.config.Port).Str("path", Path).Msg("net-mic endpoint listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("net-mic server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.closeSessions()
	s.wg.Wait()

	if err != nil {
		return fmt.Errorf("net-mic shutdown failed: %w", err)
	}
	return nil
}

// Stats returns current endpoint activity
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Sessions: len(s.sessions),
		Received: s.received,
		Dropped:  s.dropped,
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	sess, err := s.handshake(conn)
	if err != nil {
		s.log.Info().Err(err).Str("remote", r.RemoteAddr).Msg("rejected net-mic session")
		s.sendError(conn, err)
		return
	}

	s.register(sess)
	defer s.unregister(sess)

	log := s.log.With().Str("session", sess.id.String()).Str("name", sess.name).Logger()
	log.Info().Str("remote", r.RemoteAddr).Msg("net-mic session started")

	s.serve(sess, log)
}

// handshake reads the hello and creates the stream player behind the session
func (s *Server) handshake(conn *websocket.Conn) (*session, error) {
	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	if msgType != websocket.TextMessage {
		return nil, errors.New("expected mic/hello text message")
	}

	var hello Hello
	if err := json.Unmarshal(data, &hello); err != nil {
		return nil, fmt.Errorf("invalid hello: %w", err)
	}
	if hello.Type != TypeHello {
		return nil, fmt.Errorf("expected %s, got %q", TypeHello, hello.Type)
	}

	sess := &session{
		id:   uuid.New(),
		name: hello.Name,
		conn: conn,
	}

	switch hello.Codec {
	case CodecPCM, "":
	case CodecOpus:
		dec, err := decode.NewOpus(hello.SampleRate, hello.Channels)
		if err != nil {
			return nil, err
		}
		sess.opus = dec
	default:
		return nil, fmt.Errorf("unsupported codec %q", hello.Codec)
	}

	format := audio.Format{SampleRate: hello.SampleRate, Channels: hello.Channels, BitDepth: 16}
	player, err := s.mixer.PlayStream(nil, format)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, ErrMixerStopped
	}
	sess.player = player

	if err := conn.WriteJSON(Ready{Type: TypeReady, Session: sess.id.String()}); err != nil {
		player.AskStop()
		return nil, fmt.Errorf("failed to send ready: %w", err)
	}

	return sess, nil
}

// serve pumps audio until the client ends the session or the connection drops
func (s *Server) serve(sess *session, log zerolog.Logger) {
	for {
		msgType, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("net-mic connection lost")
			}
			sess.player.AskStop()
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.feed(sess, data, log)

		case websocket.TextMessage:
			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				log.Debug().Err(err).Msg("ignoring malformed control message")
				continue
			}
			if env.Type == TypeEnd {
				log.Info().Msg("net-mic session ended by client")
				sess.player.CloseFeed()
				sess.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}
}

func (s *Server) feed(sess *session, data []byte, log zerolog.Logger) {
	pcm := data
	if sess.opus != nil {
		decoded, err := sess.opus.DecodePacket(data)
		if err != nil {
			log.Debug().Err(err).Msg("dropping undecodable packet")
			return
		}
		pcm = decoded
	}

	n := sess.player.FeedData(pcm)

	s.mu.Lock()
	s.received += int64(n)
	s.dropped += int64(len(pcm) - n)
	s.mu.Unlock()

	if n < len(pcm) {
		log.Debug().Int("dropped", len(pcm)-n).Msg("stream backlog full")
	}
}

func (s *Server) sendError(conn *websocket.Conn, err error) {
	conn.WriteJSON(Error{Type: TypeError, Message: err.Error()})
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""))
}

func (s *Server) register(sess *session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
}

func (s *Server) unregister(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
}

func (s *Server) lookup(id uuid.UUID) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// closeSessions drops every connection; their handlers stop the players
func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		sess.conn.Close()
	}
}
