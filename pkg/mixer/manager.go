// ABOUTME: Manager facade owning the source pool and playback queue
// ABOUTME: Admission, dedup, the render tick and the start/stop lifecycle
package mixer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
	"github.com/rs/zerolog"
)

// RewindVolumeMargin is how much quieter a re-trigger may be than the playing
// instance and still restart it
const RewindVolumeMargin = 0.1

// Config fixes the manager's resources at construction
type Config struct {
	Sources          int
	BuffersPerSource int
	// ChunkBytes is the size of every source buffer and the most one player
	// produces per tick
	ChunkBytes int
	Format     audio.Format
	// TickInterval drives the internal render loop. Zero leaves ticking to the caller.
	TickInterval  time.Duration
	DefaultVolume float64
	MusicVolume   float64
}

// DefaultConfig returns 32 sources of four 20ms buffers at 48kHz stereo
func DefaultConfig() Config {
	f := audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16}
	return Config{
		Sources:          32,
		BuffersPerSource: 4,
		ChunkBytes:       f.BytesFor(20 * time.Millisecond),
		Format:           f,
		TickInterval:     5 * time.Millisecond,
		DefaultVolume:    1.0,
		MusicVolume:      0.8,
	}
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the manager's logger
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithSimulator replaces the default GainSimulator
func WithSimulator(s Simulator) Option {
	return func(m *Manager) {
		if s != nil {
			m.sim = s
		}
	}
}

// Stats is a snapshot of manager activity
type Stats struct {
	Ticks        int64
	Admitted     int64
	Denied       int64
	Preempted    int64
	Retired      int64
	Deduplicated int64
	Dropped      int64
	QueueLen     int
	Pool         PoolStats
}

// Manager multiplexes playback requests onto a bounded pool of sources.
//
// Lock order: queueMu, then the pool's lock, then a player's parameter mutex.
type Manager struct {
	cfg  Config
	log  zerolog.Logger
	sim  Simulator
	pool *SourcePool

	queueMu sync.Mutex
	queue   playbackQueue

	defaultVolume atomicFloat
	musicVolume   atomicFloat

	lifeMu  sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	ticks        atomic.Int64
	admitted     atomic.Int64
	denied       atomic.Int64
	retired      atomic.Int64
	deduplicated atomic.Int64
	dropped      atomic.Int64
}

// NewManager validates cfg and generates the source pool. A manager is only
// returned when the pool could be created.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if !cfg.Format.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, cfg.Format)
	}
	if cfg.ChunkBytes <= 0 || cfg.ChunkBytes%cfg.Format.FrameSize() != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunk, cfg.ChunkBytes)
	}

	pool, err := NewSourcePool(cfg.Sources, cfg.BuffersPerSource, cfg.ChunkBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create source pool: %w", err)
	}

	m := &Manager{
		cfg:  cfg,
		log:  zerolog.Nop(),
		sim:  GainSimulator{},
		pool: pool,
	}
	m.defaultVolume.Store(clampUnit(cfg.DefaultVolume))
	m.musicVolume.Store(clampUnit(cfg.MusicVolume))

	for _, opt := range opts {
		opt(m)
	}

	m.log.Info().
		Int("sources", cfg.Sources).
		Int("buffers_per_source", cfg.BuffersPerSource).
		Int("chunk_bytes", cfg.ChunkBytes).
		Str("format", cfg.Format.String()).
		Msg("mixer initialized")

	return m, nil
}

// Config returns the configuration the manager was built with
func (m *Manager) Config() Config {
	return m.cfg
}

// Running reports whether the manager accepts playback requests
func (m *Manager) Running() bool {
	return m.running.Load()
}

// Start enables playback and, when TickInterval is set, the render loop.
// Calling Start on a running manager does nothing.
func (m *Manager) Start() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.running.Load() {
		return
	}
	m.running.Store(true)

	if m.cfg.TickInterval <= 0 {
		m.log.Debug().Msg("mixer started without render loop")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go m.run(ctx)

	m.log.Debug().Dur("interval", m.cfg.TickInterval).Msg("mixer started")
}

// Stop disables playback, waits for the render loop to exit and reclaims
// every source. Safe to call more than once.
func (m *Manager) Stop() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.running.Load() {
		m.running.Store(false)
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.wg.Wait()
		m.log.Debug().Msg("mixer stopped")
	}

	m.StopAllPlayers()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// PlaySound queues a sound effect. A nil player with a nil error means the
// request was dropped as inaudible or the manager is stopped. Re-triggers of
// a playing (identifier, source identifier) pair reuse the existing player.
func (m *Manager) PlaySound(data *SoundData, params SoundParameters) (*Player, error) {
	if data == nil || len(data.PCM) == 0 {
		return nil, ErrEmptySound
	}
	if data.Format != m.cfg.Format {
		return nil, fmt.Errorf("%w: sound %q is %s, device is %s", ErrFormatMismatch, data.Name, data.Format, m.cfg.Format)
	}
	if !m.running.Load() {
		return nil, nil
	}

	vol := m.sim.Simulate(params)
	if vol <= 0 {
		m.dropped.Add(1)
		return nil, nil
	}
	vol = clampUnit(vol)

	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	if params.SourceIdentifier != None && params.Flags&FlagDoesNotSelfAbort == 0 {
		identifierOnly := params.Flags&FlagCannotBeRestarted != 0
		if existing := m.findSound(params.Identifier, params.SourceIdentifier, identifierOnly); existing != nil {
			m.deduplicated.Add(1)
			if identifierOnly {
				return existing, nil
			}
			if vol+RewindVolumeMargin >= existing.Volume() {
				existing.AskRewind()
				existing.setParameters(params, vol)
				m.log.Debug().
					Int16("identifier", params.Identifier).
					Int16("source", params.SourceIdentifier).
					Msg("restarting sound")
			}
			return existing, nil
		}
	}

	p := newSoundPlayer(data, params, vol, m.sim)
	m.queue.push(p)
	return p, nil
}

// PlayMusic queues a music player pulling from dec
func (m *Manager) PlayMusic(dec Decoder) (*Player, error) {
	if dec == nil {
		return nil, ErrNilDecoder
	}
	if f, ok := dec.(formatter); ok && f.Format() != m.cfg.Format {
		return nil, fmt.Errorf("%w: decoder is %s, device is %s", ErrFormatMismatch, f.Format(), m.cfg.Format)
	}
	if !m.running.Load() {
		return nil, nil
	}

	return m.enqueue(newMusicPlayer(dec)), nil
}

// PlayStream queues a stream player seeded with data. More audio is pushed
// with FeedData on the returned player.
func (m *Manager) PlayStream(data []byte, f audio.Format) (*Player, error) {
	if f != m.cfg.Format {
		return nil, fmt.Errorf("%w: stream is %s, device is %s", ErrFormatMismatch, f, m.cfg.Format)
	}
	if !m.running.Load() {
		return nil, nil
	}

	return m.enqueue(newStreamPlayer(data, streamBacklogChunks*m.cfg.ChunkBytes)), nil
}

// PlayCallbackStream queues a player that calls cb for up to length bytes
// every tick
func (m *Manager) PlayCallbackStream(cb CallbackFunc, length int, f audio.Format) (*Player, error) {
	if cb == nil {
		return nil, ErrNilCallback
	}
	if length <= 0 || length > m.cfg.ChunkBytes {
		return nil, fmt.Errorf("%w: %d (chunk is %d)", ErrChunkTooLarge, length, m.cfg.ChunkBytes)
	}
	if f != m.cfg.Format {
		return nil, fmt.Errorf("%w: stream is %s, device is %s", ErrFormatMismatch, f, m.cfg.Format)
	}
	if !m.running.Load() {
		return nil, nil
	}

	return m.enqueue(newCallbackPlayer(cb, length)), nil
}

func (m *Manager) enqueue(p *Player) *Player {
	m.queueMu.Lock()
	m.queue.push(p)
	m.queueMu.Unlock()

	m.log.Debug().Stringer("kind", p.kind).Str("player", p.ID.String()).Msg("player queued")
	return p
}

// StopSound asks every sound matching the pair to stop. The sources are
// reclaimed on the next tick.
func (m *Manager) StopSound(identifier, sourceIdentifier int16) {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	m.queue.each(func(p *Player) {
		if p.kind == KindSound && p.identifier == identifier && p.sourceIdentifier == sourceIdentifier {
			p.AskStop()
		}
	})
}

// StopAllPlayers retires every player and returns all sources to the pool
func (m *Manager) StopAllPlayers() {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	players := m.queue.clear()
	for _, p := range players {
		p.AskStop()
		m.retire(p)
	}

	if len(players) > 0 {
		m.log.Debug().Int("players", len(players)).Msg("stopped all players")
	}
}

// GetSoundPlayer returns the live sound player for the pair, matching on
// identifier alone when identifierOnly is set
func (m *Manager) GetSoundPlayer(identifier, sourceIdentifier int16, identifierOnly bool) *Player {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	return m.findSound(identifier, sourceIdentifier, identifierOnly)
}

// findSound must hold queueMu
func (m *Manager) findSound(identifier, sourceIdentifier int16, identifierOnly bool) *Player {
	return m.queue.find(func(p *Player) bool {
		if p.kind != KindSound || p.identifier != identifier {
			return false
		}
		if !identifierOnly && p.sourceIdentifier != sourceIdentifier {
			return false
		}
		return p.State() != StateStopped && !p.stopReq.Load()
	})
}

// Tick advances every queued player by one step, in queue order
func (m *Manager) Tick() {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	m.ticks.Add(1)
	m.queue.filter(m.service)
}

// service runs one scheduler step for p and reports whether it stays queued.
// Must hold queueMu.
func (m *Manager) service(p *Player) bool {
	p.serviced.Add(1)

	if p.stopReq.Load() || p.State() == StateStopped {
		m.retire(p)
		return false
	}

	p.applyRewind()

	switch p.State() {
	case StateQueued:
		return m.admit(p)

	case StateActive:
		if _, err := p.fill(); err != nil {
			m.log.Debug().Err(err).Str("player", p.ID.String()).Msg("producer failed")
		}
		if p.drained() {
			m.retire(p)
			return false
		}
		return true
	}

	m.retire(p)
	return false
}

// admit runs the Queued to Active chain. Denial keeps the player queued;
// any other failure retires it.
// Must hold queueMu.
func (m *Manager) admit(p *Player) bool {
	if !p.IsActive() {
		m.retire(p)
		return false
	}

	if m.pool.Acquire(p) == nil {
		m.denied.Add(1)
		return true
	}

	ok, err := p.prime()
	if err != nil {
		m.log.Debug().Err(err).Str("player", p.ID.String()).Msg("failed to prime buffers")
	}
	if !ok || !p.play() {
		m.retire(p)
		return false
	}

	m.admitted.Add(1)
	m.log.Debug().
		Stringer("kind", p.kind).
		Str("player", p.ID.String()).
		Int("source", p.source.ID).
		Float64("priority", p.Priority()).
		Msg("player admitted")
	return true
}

// retire stops p and returns its source, if any, to the pool.
// Must hold queueMu.
func (m *Manager) retire(p *Player) {
	m.pool.Release(p.detachSource())
	m.retired.Add(1)
}

// Render mixes the queued audio of every playing source into p and returns
// len(p). Sources with nothing queued contribute silence.
func (m *Manager) Render(p []byte) int {
	audio.Silence(p)

	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	defVol := m.defaultVolume.Load()
	musVol := m.musicVolume.Load()

	m.queue.each(func(pl *Player) {
		if pl.State() != StateActive || pl.source == nil || !pl.source.playing {
			return
		}

		gain := pl.Volume() * defVol
		if pl.kind == KindMusic {
			gain = pl.Volume() * musVol
		}
		pl.source.mixInto(p, gain)
	})

	return len(p)
}

// Read implements io.Reader over Render for pull-based outputs
func (m *Manager) Read(p []byte) (int, error) {
	return m.Render(p), nil
}

// SetDefaultVolume sets the gain applied to sounds and streams
func (m *Manager) SetDefaultVolume(v float64) {
	m.defaultVolume.Store(clampUnit(v))
}

// DefaultVolume returns the gain applied to sounds and streams
func (m *Manager) DefaultVolume() float64 {
	return m.defaultVolume.Load()
}

// SetMusicVolume sets the gain applied to music
func (m *Manager) SetMusicVolume(v float64) {
	m.musicVolume.Store(clampUnit(v))
}

// MusicVolume returns the gain applied to music
func (m *Manager) MusicVolume() float64 {
	return m.musicVolume.Load()
}

// Stats returns a snapshot of counters, queue length and pool occupancy
func (m *Manager) Stats() Stats {
	m.queueMu.Lock()
	queueLen := m.queue.len()
	pool := m.pool.Stats()
	m.queueMu.Unlock()

	return Stats{
		Ticks:        m.ticks.Load(),
		Admitted:     m.admitted.Load(),
		Denied:       m.denied.Load(),
		Preempted:    pool.Preempted,
		Retired:      m.retired.Load(),
		Deduplicated: m.deduplicated.Load(),
		Dropped:      m.dropped.Load(),
		QueueLen:     queueLen,
		Pool:         pool,
	}
}
