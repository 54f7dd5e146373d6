// ABOUTME: Player shell shared by every playback kind
// ABOUTME: Holds the Queued/Active/Stopped state machine and per-variant producers
package mixer

import (
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is a player's lifecycle stage
type State int32

const (
	StateQueued State = iota
	StateActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Kind identifies the producer variant behind a player
type Kind int

const (
	KindSound Kind = iota
	KindMusic
	KindStream
	KindCallbackStream
)

func (k Kind) String() string {
	switch k {
	case KindSound:
		return "sound"
	case KindMusic:
		return "music"
	case KindStream:
		return "stream"
	case KindCallbackStream:
		return "callback-stream"
	default:
		return "unknown"
	}
}

// Producer fills buffers for one player. Produce returns io.EOF once the
// data is exhausted; a short read without an error is an underrun.
// The set of producers is closed to this package.
type Producer interface {
	Produce(p []byte) (int, error)
	Priority() float64
	rewind()
}

// Player is one logical playback request. Callers hold the returned handle
// while the manager's queue holds another; the source is always returned to
// the pool before the player leaves the queue.
type Player struct {
	ID uuid.UUID

	kind             Kind
	identifier       int16
	sourceIdentifier int16
	flags            SoundFlags
	prod             Producer
	sim              Simulator
	stream           *streamProducer

	// producer side
	mu        sync.Mutex
	params    SoundParameters
	volume    atomicFloat
	stopReq   atomic.Bool
	rewindReq atomic.Bool

	// written under the manager's queue lock, readable anywhere
	state    atomic.Int32
	eof      atomic.Bool
	serviced atomic.Int64

	// guarded by the manager's queue lock
	source *Source
}

func newPlayer(kind Kind, prod Producer) *Player {
	p := &Player{
		ID:               uuid.New(),
		kind:             kind,
		identifier:       None,
		sourceIdentifier: None,
		prod:             prod,
	}
	p.volume.Store(1)
	p.state.Store(int32(StateQueued))
	return p
}

// Kind returns the producer variant
func (p *Player) Kind() Kind { return p.kind }

// Identifier returns the logical sound id, or None for non-sound players
func (p *Player) Identifier() int16 { return p.identifier }

// SourceIdentifier returns the emitting entity id, or None for local sounds
func (p *Player) SourceIdentifier() int16 { return p.sourceIdentifier }

// Flags returns the sound flags the player was created with
func (p *Player) Flags() SoundFlags { return p.flags }

// State returns the current lifecycle stage
func (p *Player) State() State {
	return State(p.state.Load())
}

// Priority returns the preemption priority. Higher keeps its source.
func (p *Player) Priority() float64 {
	return p.prod.Priority()
}

// Volume returns the estimated audible volume in [0,1]
func (p *Player) Volume() float64 {
	return p.volume.Load()
}

// Serviced returns how many ticks have processed this player
func (p *Player) Serviced() int64 {
	return p.serviced.Load()
}

// AskStop requests the player be retired on the next tick. Safe to call
// repeatedly and from any goroutine.
func (p *Player) AskStop() {
	p.stopReq.Store(true)
}

// AskRewind requests playback restart from the beginning on the next tick.
// The player keeps its state and source.
func (p *Player) AskRewind() {
	p.rewindReq.Store(true)
}

// Parameters returns a copy of the current request parameters
func (p *Player) Parameters() SoundParameters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// UpdateParameters replaces the request parameters and re-estimates volume
func (p *Player) UpdateParameters(params SoundParameters) {
	vol := p.Volume()
	if p.sim != nil {
		vol = clampUnit(p.sim.Simulate(params))
	}
	p.setParameters(params, vol)
}

func (p *Player) setParameters(params SoundParameters, vol float64) {
	p.mu.Lock()
	p.params = params
	p.mu.Unlock()
	p.volume.Store(vol)
}

// IsActive reports whether the player still has data to produce and has not
// been asked to stop
func (p *Player) IsActive() bool {
	return !p.stopReq.Load() && p.State() != StateStopped && !p.eof.Load()
}

// FeedData appends PCM to a stream player's backlog and returns the bytes
// accepted. Feeding a stopped player or a non-stream player accepts nothing.
func (p *Player) FeedData(data []byte) int {
	if p.stream == nil || p.stopReq.Load() || p.State() == StateStopped {
		return 0
	}
	return p.stream.feed(data)
}

// CloseFeed marks a stream player's input as finished. The player retires
// once its backlog and buffers have drained.
func (p *Player) CloseFeed() {
	if p.stream != nil {
		p.stream.close()
	}
}

// Buffered returns the bytes waiting in a stream player's backlog
func (p *Player) Buffered() int {
	if p.stream == nil {
		return 0
	}
	return p.stream.bl.Available()
}

// detachSource stops the player and hands back its source.
// Must hold the manager's queue lock.
func (p *Player) detachSource() *Source {
	s := p.source
	p.source = nil
	p.state.Store(int32(StateStopped))
	return s
}

// fill produces one chunk into the next free buffer of the assigned source.
// Returns false when nothing was queued.
// Must hold the manager's queue lock.
func (p *Player) fill() (bool, error) {
	if p.source == nil || p.eof.Load() {
		return false, nil
	}

	b := p.source.nextFree()
	if b == nil {
		return false, nil
	}

	n, err := p.prod.Produce(b.data)
	if n > 0 {
		p.source.queue(n)
	}
	if err != nil {
		p.eof.Store(true)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}

	return n > 0, err
}

// prime fills every free buffer of a freshly assigned source. It fails only
// when nothing could be queued and the producer is already exhausted.
// Must hold the manager's queue lock.
func (p *Player) prime() (bool, error) {
	for p.source.nextFree() != nil && !p.eof.Load() {
		queued, err := p.fill()
		if err != nil {
			return false, err
		}
		if !queued {
			break
		}
	}

	return p.source.Queued() > 0 || !p.eof.Load(), nil
}

// play starts playback on the assigned source.
// Must hold the manager's queue lock.
func (p *Player) play() bool {
	if p.source == nil {
		return false
	}
	p.source.playing = true
	p.state.Store(int32(StateActive))
	return true
}

// drained reports whether an exhausted player has rendered all queued audio.
// Must hold the manager's queue lock.
func (p *Player) drained() bool {
	return p.eof.Load() && (p.source == nil || p.source.Queued() == 0)
}

// applyRewind restarts the producer if a rewind was requested.
// Must hold the manager's queue lock.
func (p *Player) applyRewind() {
	if p.rewindReq.Swap(false) {
		p.prod.rewind()
		p.eof.Store(false)
	}
}

type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}
