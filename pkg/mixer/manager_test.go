// ABOUTME: Tests for the manager facade and render tick
// ABOUTME: Covers admission, dedup, preemption, fairness, rendering and lifecycle
package mixer

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

func sampleAt(p []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(p[i*2:]))
}

func TestNewManagerInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no sources", func(c *Config) { c.Sources = 0 }, ErrNoSources},
		{"no buffers", func(c *Config) { c.BuffersPerSource = 0 }, ErrNoBuffers},
		{"zero chunk", func(c *Config) { c.ChunkBytes = 0 }, ErrInvalidChunk},
		{"partial frame chunk", func(c *Config) { c.ChunkBytes = 3 }, ErrInvalidChunk},
		{"24-bit device", func(c *Config) { c.Format.BitDepth = 24 }, ErrInvalidFormat},
		{"no sample rate", func(c *Config) { c.Format.SampleRate = 0 }, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			m, err := NewManager(cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if m != nil {
				t.Error("expected no manager on startup failure")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ChunkBytes != 3840 {
		t.Errorf("expected 20ms at 48kHz stereo = 3840 bytes, got %d", cfg.ChunkBytes)
	}
	if _, err := NewManager(cfg); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestPlayArgumentErrors(t *testing.T) {
	m := newTestManager(t, 2)
	other := audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}
	cb := func(p []byte) int { return len(p) }

	tests := []struct {
		name string
		play func() (*Player, error)
		want error
	}{
		{"nil sound", func() (*Player, error) { return m.PlaySound(nil, soundAt(1, 1, 1)) }, ErrEmptySound},
		{"empty sound", func() (*Player, error) {
			return m.PlaySound(&SoundData{Format: m.cfg.Format}, soundAt(1, 1, 1))
		}, ErrEmptySound},
		{"sound format", func() (*Player, error) {
			return m.PlaySound(&SoundData{Format: other, PCM: pcm(64, 1)}, soundAt(1, 1, 1))
		}, ErrFormatMismatch},
		{"nil decoder", func() (*Player, error) { return m.PlayMusic(nil) }, ErrNilDecoder},
		{"music format", func() (*Player, error) {
			return m.PlayMusic(&endlessDecoder{remaining: -1, format: other})
		}, ErrFormatMismatch},
		{"stream format", func() (*Player, error) { return m.PlayStream(nil, other) }, ErrFormatMismatch},
		{"nil callback", func() (*Player, error) { return m.PlayCallbackStream(nil, 64, m.cfg.Format) }, ErrNilCallback},
		{"zero length", func() (*Player, error) { return m.PlayCallbackStream(cb, 0, m.cfg.Format) }, ErrChunkTooLarge},
		{"oversized length", func() (*Player, error) {
			return m.PlayCallbackStream(cb, m.cfg.ChunkBytes+4, m.cfg.Format)
		}, ErrChunkTooLarge},
		{"callback format", func() (*Player, error) { return m.PlayCallbackStream(cb, 64, other) }, ErrFormatMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.play()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if p != nil {
				t.Error("expected nil player")
			}
		})
	}

	if n := m.Stats().QueueLen; n != 0 {
		t.Errorf("rejected requests were queued: %d", n)
	}
}

func TestPlayWhileStoppedReturnsNil(t *testing.T) {
	m, err := NewManager(testConfig(2))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	p, err := m.PlaySound(testSound(m, 1), soundAt(1, 1, 1))
	if err != nil || p != nil {
		t.Errorf("expected nil, nil from stopped manager, got %v, %v", p, err)
	}
	p, err = m.PlayMusic(&endlessDecoder{remaining: -1, format: m.cfg.Format})
	if err != nil || p != nil {
		t.Errorf("expected nil, nil from stopped manager, got %v, %v", p, err)
	}
}

func TestSilentSoundIsDropped(t *testing.T) {
	m := newTestManager(t, 2)

	p, err := m.PlaySound(testSound(m, 4), soundAt(1, 1, 0))
	if err != nil {
		t.Fatalf("PlaySound failed: %v", err)
	}
	if p != nil {
		t.Error("expected nil player for silent sound")
	}

	stats := m.Stats()
	if stats.QueueLen != 0 {
		t.Errorf("expected empty queue, got %d", stats.QueueLen)
	}
	if stats.Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", stats.Dropped)
	}
}

func TestSimulatorDecidesAudibility(t *testing.T) {
	deaf := SimulatorFunc(func(SoundParameters) float64 { return -1 })
	m := newTestManager(t, 2, WithSimulator(deaf))

	p, _ := m.PlaySound(testSound(m, 4), SoundParameters{Identifier: 1, SourceIdentifier: None, Local: true})
	if p != nil {
		t.Error("expected simulator to drop the request")
	}
}

func TestSoundPlaysToCompletion(t *testing.T) {
	m := newTestManager(t, 2)

	p, err := m.PlaySound(testSound(m, 1), soundAt(1, None, 1))
	if err != nil || p == nil {
		t.Fatalf("PlaySound failed: %v, %v", p, err)
	}
	if p.State() != StateQueued {
		t.Errorf("expected queued, got %v", p.State())
	}

	m.Tick()
	if p.State() != StateActive {
		t.Fatalf("expected active after tick, got %v", p.State())
	}
	if m.Stats().Pool.Free != 1 {
		t.Error("expected one source in use")
	}

	out := make([]byte, m.cfg.ChunkBytes)
	m.Render(out)

	m.Tick()
	if p.State() != StateStopped {
		t.Errorf("expected stopped once drained, got %v", p.State())
	}

	stats := m.Stats()
	if stats.QueueLen != 0 {
		t.Errorf("expected empty queue, got %d", stats.QueueLen)
	}
	if stats.Pool.Free != stats.Pool.Total {
		t.Errorf("source not reclaimed: %+v", stats.Pool)
	}
}

func TestExhaustedSoundWaitsForDrain(t *testing.T) {
	m := newTestManager(t, 1)

	p, _ := m.PlaySound(testSound(m, 2), soundAt(1, None, 1))
	m.Tick()
	m.Tick()

	if p.State() != StateActive {
		t.Errorf("expected active while buffers are queued, got %v", p.State())
	}
	if p.IsActive() {
		t.Error("expected IsActive false once the data is exhausted")
	}
}

func TestAskStopRetiresOnNextTick(t *testing.T) {
	m := newTestManager(t, 1)

	p, _ := m.PlaySound(testSound(m, 50), soundAt(1, None, 1))
	m.Tick()

	p.AskStop()
	p.AskStop()
	if p.State() != StateActive {
		t.Error("stop should only take effect on the next tick")
	}

	m.Tick()
	if p.State() != StateStopped {
		t.Errorf("expected stopped, got %v", p.State())
	}
	if m.Stats().Pool.Free != 1 {
		t.Error("source not reclaimed")
	}
}

func TestStopSound(t *testing.T) {
	m := newTestManager(t, 4)

	a, _ := m.PlaySound(testSound(m, 50), soundAt(1, 1, 1))
	b, _ := m.PlaySound(testSound(m, 50), soundAt(1, 2, 1))
	m.Tick()

	m.StopSound(1, 1)
	m.StopSound(9, 9)
	m.Tick()

	if a.State() != StateStopped {
		t.Error("expected matching sound stopped")
	}
	if b.State() != StateActive {
		t.Error("expected other source identifier untouched")
	}
}

func TestDedupRestartsSameSound(t *testing.T) {
	m := newTestManager(t, 4)
	data := testSound(m, 50)

	first, _ := m.PlaySound(data, soundAt(1, 7, 0.5))
	second, _ := m.PlaySound(data, soundAt(1, 7, 0.5))

	if first == nil || first != second {
		t.Fatal("expected the restart to reuse the player")
	}
	if !first.rewindReq.Load() {
		t.Error("expected rewind requested")
	}

	third, _ := m.PlaySound(data, SoundParameters{
		Identifier:       1,
		SourceIdentifier: 9,
		Flags:            FlagCannotBeRestarted,
		Volume:           1,
	})
	if third != first {
		t.Error("cannot-be-restarted request should return the playing instance")
	}
	if first.Volume() != 0.5 {
		t.Errorf("cannot-be-restarted request changed volume to %v", first.Volume())
	}

	stats := m.Stats()
	if stats.QueueLen != 1 {
		t.Errorf("expected one player, got %d", stats.QueueLen)
	}
	if stats.Deduplicated != 2 {
		t.Errorf("expected 2 deduplicated, got %d", stats.Deduplicated)
	}
}

func TestDedupVolumeMargin(t *testing.T) {
	m := newTestManager(t, 4)
	data := testSound(m, 50)

	p, _ := m.PlaySound(data, soundAt(1, 7, 0.9))

	quiet, _ := m.PlaySound(data, soundAt(1, 7, 0.5))
	if quiet != p {
		t.Fatal("expected existing player back")
	}
	if p.rewindReq.Load() || p.Volume() != 0.9 {
		t.Error("much quieter re-trigger should leave the player unchanged")
	}

	near, _ := m.PlaySound(data, soundAt(1, 7, 0.85))
	if near != p {
		t.Fatal("expected existing player back")
	}
	if !p.rewindReq.Load() || p.Volume() != 0.85 {
		t.Error("re-trigger within margin should rewind and update")
	}
	if got := p.Parameters().Volume; got != 0.85 {
		t.Errorf("expected parameters updated, got volume %v", got)
	}
}

func TestDedupExemptions(t *testing.T) {
	m := newTestManager(t, 4)
	data := testSound(m, 50)

	tests := []struct {
		name   string
		params SoundParameters
	}{
		{"local sound", soundAt(2, None, 1)},
		{"self overlapping", SoundParameters{Identifier: 3, SourceIdentifier: 4, Flags: FlagDoesNotSelfAbort, Volume: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := m.PlaySound(data, tt.params)
			b, _ := m.PlaySound(data, tt.params)
			if a == nil || b == nil || a == b {
				t.Error("expected two independent players")
			}
		})
	}
}

func TestDedupIgnoresStoppingPlayers(t *testing.T) {
	m := newTestManager(t, 4)
	data := testSound(m, 50)

	a, _ := m.PlaySound(data, soundAt(1, 7, 1))
	a.AskStop()

	b, _ := m.PlaySound(data, soundAt(1, 7, 1))
	if a == b {
		t.Error("stopping player should not be reused")
	}
}

func TestGetSoundPlayer(t *testing.T) {
	m := newTestManager(t, 4)

	p, _ := m.PlaySound(testSound(m, 50), soundAt(5, 6, 1))
	m.PlayMusic(&endlessDecoder{remaining: -1, format: m.cfg.Format})

	if got := m.GetSoundPlayer(5, 6, false); got != p {
		t.Error("expected lookup by pair to find the player")
	}
	if got := m.GetSoundPlayer(5, 99, true); got != p {
		t.Error("expected lookup by identifier to find the player")
	}
	if got := m.GetSoundPlayer(5, 99, false); got != nil {
		t.Error("expected no match for other source identifier")
	}
	if got := m.GetSoundPlayer(None, None, true); got != nil {
		t.Error("music must never match a sound lookup")
	}
}

func TestUpdateParametersResimulates(t *testing.T) {
	m := newTestManager(t, 2)

	p, _ := m.PlaySound(testSound(m, 50), soundAt(1, 1, 0.4))
	p.UpdateParameters(soundAt(1, 1, 0.7))

	if p.Volume() != 0.7 {
		t.Errorf("expected volume 0.7, got %v", p.Volume())
	}
	if p.Priority() != 0.7 {
		t.Errorf("expected priority to follow volume, got %v", p.Priority())
	}
}

func TestFairnessServicesEachPlayerOncePerTick(t *testing.T) {
	m := newTestManager(t, 3)

	var players []*Player
	for i := 0; i < 5; i++ {
		p, _ := m.PlaySound(testSound(m, 100), soundAt(int16(i), None, 0.5))
		players = append(players, p)
	}
	music, _ := m.PlayMusic(&endlessDecoder{remaining: -1, format: m.cfg.Format})
	players = append(players, music)

	out := make([]byte, m.cfg.ChunkBytes)
	for tick := int64(1); tick <= 10; tick++ {
		m.Tick()
		m.Render(out)

		for i, p := range players {
			if p.State() == StateStopped {
				continue
			}
			if p.Serviced() != tick {
				t.Errorf("tick %d: player %d serviced %d times", tick, i, p.Serviced())
			}
		}
		checkInvariants(t, m)
	}
}

func TestPreemptionScenario(t *testing.T) {
	m := newTestManager(t, 2)

	a, _ := m.PlaySound(testSound(m, 50), soundAt(1, 1, 0.3))
	b, _ := m.PlaySound(testSound(m, 50), soundAt(2, 2, 0.3))
	m.Tick()

	if a.State() != StateActive || b.State() != StateActive {
		t.Fatal("expected A and B active")
	}
	if m.Stats().Pool.Free != 0 {
		t.Fatal("expected pool exhausted")
	}

	music, _ := m.PlayMusic(&endlessDecoder{remaining: -1, format: m.cfg.Format})
	if music.Priority() != MusicPriority {
		t.Errorf("expected music priority %v, got %v", MusicPriority, music.Priority())
	}
	m.Tick()

	if music.State() != StateActive {
		t.Fatalf("expected music active, got %v", music.State())
	}

	stopped := 0
	for _, p := range []*Player{a, b} {
		if p.State() == StateStopped {
			stopped++
		}
	}
	if stopped != 1 {
		t.Errorf("expected exactly one of A, B stopped, got %d", stopped)
	}

	checkInvariants(t, m)
	if m.Stats().Preempted != 1 {
		t.Errorf("expected 1 preemption, got %d", m.Stats().Preempted)
	}

	m.Tick()
	if n := m.Stats().QueueLen; n != 2 {
		t.Errorf("expected evicted player dropped, queue length %d", n)
	}
}

func TestDeniedAdmissionStaysQueued(t *testing.T) {
	m := newTestManager(t, 1)

	music, _ := m.PlayMusic(&endlessDecoder{remaining: -1, format: m.cfg.Format})
	m.Tick()

	p, _ := m.PlaySound(testSound(m, 50), soundAt(1, None, 1))
	m.Tick()
	m.Tick()

	if p.State() != StateQueued {
		t.Errorf("expected denied sound to stay queued, got %v", p.State())
	}
	if music.State() != StateActive {
		t.Error("sound must never preempt music")
	}
	if m.Stats().Denied != 2 {
		t.Errorf("expected 2 denials, got %d", m.Stats().Denied)
	}

	music.AskStop()
	m.Tick()
	m.Tick()

	if p.State() != StateActive {
		t.Errorf("expected sound admitted once the source freed, got %v", p.State())
	}
}

func TestStopAllPlayers(t *testing.T) {
	m := newTestManager(t, 2)

	var players []*Player
	for i := 0; i < 4; i++ {
		p, _ := m.PlaySound(testSound(m, 50), soundAt(int16(i), None, 1))
		players = append(players, p)
	}
	m.Tick()

	m.StopAllPlayers()

	stats := m.Stats()
	if stats.QueueLen != 0 {
		t.Errorf("expected empty queue, got %d", stats.QueueLen)
	}
	if stats.Pool.Free != stats.Pool.Total {
		t.Errorf("expected all sources free, got %+v", stats.Pool)
	}
	for i, p := range players {
		if p.State() != StateStopped {
			t.Errorf("player %d not stopped", i)
		}
	}

	m.StopAllPlayers()
}

func TestRewindKeepsSource(t *testing.T) {
	m := newTestManager(t, 1)

	p, _ := m.PlaySound(testSound(m, 2), soundAt(1, 1, 1))
	m.Tick()

	src := p.source
	if !p.eof.Load() || src.Queued() != 2 {
		t.Fatalf("expected two primed buffers and exhausted data")
	}

	p.AskRewind()
	m.Tick()

	if p.source != src {
		t.Error("rewind lost the source")
	}
	if p.eof.Load() {
		t.Error("rewind should clear exhaustion")
	}
	if src.Queued() != 3 {
		t.Errorf("expected rewound data queued, got %d buffers", src.Queued())
	}
}

func TestMusicRewindUsesDecoder(t *testing.T) {
	m := newTestManager(t, 1)
	dec := &endlessDecoder{remaining: -1, format: m.cfg.Format}

	p, _ := m.PlayMusic(dec)
	m.Tick()
	p.AskRewind()
	m.Tick()

	if dec.rewinds != 1 {
		t.Errorf("expected decoder rewound once, got %d", dec.rewinds)
	}
}

func TestMusicEndsWhenDecoderExhausted(t *testing.T) {
	m := newTestManager(t, 1)

	p, _ := m.PlayMusic(&endlessDecoder{remaining: 0, format: m.cfg.Format})
	m.Tick()

	if p.State() != StateStopped {
		t.Errorf("expected empty decoder to fail admission, got %v", p.State())
	}
	if m.Stats().Pool.Free != 1 {
		t.Error("failed admission leaked the source")
	}
}

func TestRenderMixesWithGain(t *testing.T) {
	m := newTestManager(t, 4)

	m.PlaySound(testSound(m, 50), soundAt(1, None, 0.5))
	m.PlaySound(testSound(m, 50), soundAt(2, None, 0.5))
	m.PlayMusic(&endlessDecoder{remaining: -1, format: m.cfg.Format})
	m.Tick()

	out := make([]byte, m.cfg.ChunkBytes)
	if n := m.Render(out); n != len(out) {
		t.Errorf("expected %d bytes rendered, got %d", len(out), n)
	}

	// 1000*0.5 + 1000*0.5 + 2000*0.8
	if got := sampleAt(out, 0); got != 2600 {
		t.Errorf("expected mixed sample 2600, got %d", got)
	}

	m.SetDefaultVolume(0)
	m.SetMusicVolume(0.5)
	m.Render(out)
	if got := sampleAt(out, 10); got != 1000 {
		t.Errorf("expected music only at half volume, got %d", got)
	}
}

func TestRenderSilenceWhenIdle(t *testing.T) {
	m := newTestManager(t, 1)

	out := pcm(64, 123)
	m.Render(out)

	for i := 0; i < len(out)/2; i++ {
		if sampleAt(out, i) != 0 {
			t.Fatalf("expected silence at sample %d", i)
		}
	}
}

func TestStreamFeedAndUnderrun(t *testing.T) {
	m := newTestManager(t, 1)

	p, err := m.PlayStream(nil, m.cfg.Format)
	if err != nil || p == nil {
		t.Fatalf("PlayStream failed: %v, %v", p, err)
	}

	m.Tick()
	if p.State() != StateActive {
		t.Fatalf("expected empty stream admitted, got %v", p.State())
	}

	if n := p.FeedData(pcm(m.cfg.ChunkBytes, 3000)); n != m.cfg.ChunkBytes {
		t.Errorf("expected full chunk accepted, got %d", n)
	}
	if p.Buffered() != m.cfg.ChunkBytes {
		t.Errorf("expected backlog of one chunk, got %d", p.Buffered())
	}

	m.Tick()
	out := make([]byte, m.cfg.ChunkBytes)
	m.Render(out)
	if got := sampleAt(out, 0); got != 3000 {
		t.Errorf("expected fed sample 3000, got %d", got)
	}

	// underrun is not an error
	m.Tick()
	m.Tick()
	if p.State() != StateActive {
		t.Errorf("expected stream to survive underrun, got %v", p.State())
	}

	p.CloseFeed()
	m.Tick()
	if p.State() != StateStopped {
		t.Errorf("expected closed stream retired, got %v", p.State())
	}
	if n := p.FeedData(pcm(64, 1)); n != 0 {
		t.Errorf("feeding a stopped stream accepted %d bytes", n)
	}
}

func TestStreamInitialData(t *testing.T) {
	m := newTestManager(t, 1)

	p, _ := m.PlayStream(pcm(m.cfg.ChunkBytes*2, 500), m.cfg.Format)
	m.Tick()

	if p.source.Queued() != 2 {
		t.Errorf("expected seed data primed into 2 buffers, got %d", p.source.Queued())
	}
}

func TestFeedDataOnSoundIsNoop(t *testing.T) {
	m := newTestManager(t, 1)

	p, _ := m.PlaySound(testSound(m, 1), soundAt(1, None, 1))
	if n := p.FeedData(pcm(64, 1)); n != 0 {
		t.Errorf("expected sound to reject fed data, got %d", n)
	}
}

func TestCallbackStream(t *testing.T) {
	m := newTestManager(t, 1)
	length := m.cfg.ChunkBytes / 2

	calls := 0
	cb := func(p []byte) int {
		calls++
		if len(p) > length {
			t.Errorf("callback asked for %d bytes, limit %d", len(p), length)
		}
		return copy(p, pcm(len(p), 4000))
	}

	p, err := m.PlayCallbackStream(cb, length, m.cfg.Format)
	if err != nil || p == nil {
		t.Fatalf("PlayCallbackStream failed: %v, %v", p, err)
	}

	m.Tick()
	if calls != m.cfg.BuffersPerSource {
		t.Errorf("expected priming to fill %d buffers, got %d calls", m.cfg.BuffersPerSource, calls)
	}

	m.Tick()
	if calls != m.cfg.BuffersPerSource {
		t.Error("callback called with a full ring")
	}

	out := make([]byte, m.cfg.ChunkBytes)
	m.Render(out)
	if got := sampleAt(out, 0); got != 4000 {
		t.Errorf("expected callback sample 4000, got %d", got)
	}

	m.Tick()
	if calls != m.cfg.BuffersPerSource+1 {
		t.Errorf("expected one refill per tick, got %d calls", calls)
	}
}

func TestCallbackStreamEndsOnZero(t *testing.T) {
	m := newTestManager(t, 1)

	p, _ := m.PlayCallbackStream(func([]byte) int { return 0 }, 64, m.cfg.Format)
	m.Tick()

	if p.State() != StateStopped {
		t.Errorf("expected callback returning 0 to end the stream, got %v", p.State())
	}
	checkInvariants(t, m)
}

func TestStartStopIdempotent(t *testing.T) {
	cfg := testConfig(2)
	cfg.TickInterval = time.Millisecond

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	m.Start()
	m.Start()

	m.PlaySound(testSound(m, 50), soundAt(1, None, 1))

	deadline := time.Now().Add(2 * time.Second)
	for m.Stats().Ticks == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if m.Stats().Ticks == 0 {
		t.Fatal("render loop never ticked")
	}

	m.Stop()
	m.Stop()

	ticks := m.Stats().Ticks
	time.Sleep(10 * time.Millisecond)
	if m.Stats().Ticks != ticks {
		t.Error("render loop still running after Stop")
	}

	stats := m.Stats()
	if stats.QueueLen != 0 || stats.Pool.Free != stats.Pool.Total {
		t.Errorf("Stop left players behind: %+v", stats)
	}
	if m.Running() {
		t.Error("expected manager not running")
	}

	m.Start()
	if !m.Running() {
		t.Error("expected restart to work")
	}
	m.Stop()
}

func TestConcurrentProducers(t *testing.T) {
	m := newTestManager(t, 4)
	data := testSound(m, 3)

	stream, _ := m.PlayStream(nil, m.cfg.Format)
	done := make(chan struct{})

	var render sync.WaitGroup
	render.Add(1)
	go func() {
		defer render.Done()
		out := make([]byte, m.cfg.ChunkBytes)
		for {
			select {
			case <-done:
				return
			default:
			}
			m.Tick()
			m.Render(out)
			checkInvariants(t, m)
		}
	}()

	var producers sync.WaitGroup
	for g := 0; g < 4; g++ {
		producers.Add(1)
		go func(g int) {
			defer producers.Done()
			for i := 0; i < 200; i++ {
				vol := float64(i%10) / 10
				p, err := m.PlaySound(data, soundAt(int16(i%5), int16(g), vol))
				if err != nil {
					t.Errorf("PlaySound failed: %v", err)
					return
				}
				if p != nil && i%7 == 0 {
					p.AskStop()
				}
				if i%11 == 0 {
					m.StopSound(int16(i%5), int16(g))
				}
				if i%3 == 0 {
					m.PlayMusic(&endlessDecoder{remaining: m.cfg.ChunkBytes, format: m.cfg.Format})
				}
			}
		}(g)
	}

	producers.Add(1)
	go func() {
		defer producers.Done()
		chunk := pcm(256, 100)
		for i := 0; i < 500; i++ {
			stream.FeedData(chunk)
		}
	}()

	producers.Wait()
	close(done)
	render.Wait()

	checkInvariants(t, m)
	m.StopAllPlayers()

	stats := m.Stats()
	if stats.Pool.Free != stats.Pool.Total {
		t.Errorf("sources leaked: %+v", stats.Pool)
	}
}
