// ABOUTME: Application orchestration for the mixer service
// ABOUTME: Wires config, mixer, output backend, net-mic endpoint, discovery and status
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sendspin/sendspin-mixer/internal/config"
	"github.com/Sendspin/sendspin-mixer/internal/discovery"
	"github.com/Sendspin/sendspin-mixer/internal/logger"
	"github.com/Sendspin/sendspin-mixer/internal/netmic"
	"github.com/Sendspin/sendspin-mixer/internal/ui"
	"github.com/Sendspin/sendspin-mixer/pkg/audio/output"
	"github.com/Sendspin/sendspin-mixer/pkg/mixer"
)

const (
	defaultStatusInterval = 250 * time.Millisecond
	statsLogInterval      = 10 * time.Second
)

// App owns every long-lived component of a running mixer
type App struct {
	cfg *config.Config
	log zerolog.Logger

	mixer *mixer.Manager
	out   output.Output
	mic   *netmic.Server
	adv   *discovery.Advertiser

	controls       *ui.Controls
	status         func(ui.StatusMsg)
	statusInterval time.Duration
}

// Option customises an App
type Option func(*App)

// WithOutput replaces the configured backend
func WithOutput(o output.Output) Option {
	return func(a *App) { a.out = o }
}

// WithStatus registers a sink receiving periodic status snapshots
func WithStatus(fn func(ui.StatusMsg), interval time.Duration) Option {
	return func(a *App) {
		a.status = fn
		if interval > 0 {
			a.statusInterval = interval
		}
	}
}

// WithControls applies key actions coming from the TUI
func WithControls(c *ui.Controls) Option {
	return func(a *App) { a.controls = c }
}

// New builds the app from a validated configuration
func New(cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	a := &App{
		cfg:            cfg,
		log:            log,
		statusInterval: defaultStatusInterval,
	}
	for _, opt := range opts {
		opt(a)
	}

	m, err := mixer.NewManager(cfg.MixerConfig(), mixer.WithLogger(logger.WithComponent(log, "mixer")))
	if err != nil {
		return nil, fmt.Errorf("failed to create mixer: %w", err)
	}
	a.mixer = m

	if a.out == nil {
		out, err := output.New(cfg.Output.Backend)
		if err != nil {
			return nil, fmt.Errorf("failed to create output: %w", err)
		}
		a.out = out
	}

	if cfg.NetMic.Enabled {
		a.mic = netmic.New(netmic.Config{Port: cfg.NetMic.Port}, m, logger.WithComponent(log, "netmic"))
		if cfg.NetMic.MDNS {
			a.adv = discovery.NewAdvertiser(discovery.Config{
				ServiceName: cfg.NetMic.Name,
				Port:        cfg.NetMic.Port,
				Path:        netmic.Path,
			}, logger.WithComponent(log, "discovery"))
		}
	}

	return a, nil
}

// Mixer returns the scheduler
func (a *App) Mixer() *mixer.Manager {
	return a.mixer
}

// start brings up the mixer and opens the device
func (a *App) start() error {
	a.mixer.Start()

	if err := a.out.Open(a.cfg.Format(), a.mixer); err != nil {
		a.mixer.Stop()
		return fmt.Errorf("failed to open %s output: %w", a.cfg.Output.Backend, err)
	}

	a.log.Info().
		Str("backend", a.cfg.Output.Backend).
		Stringer("format", a.cfg.Format()).
		Int("sources", a.cfg.Mixer.Sources).
		Msg("mixer started")
	return nil
}

// stop closes the device before the mixer so the render callback never
// outlives the players
func (a *App) stop() {
	if err := a.out.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close output")
	}
	a.mixer.Stop()
	a.log.Info().Msg("mixer stopped")
}

// Run serves until ctx is cancelled or a component fails
func (a *App) Run(ctx context.Context) error {
	if err := a.start(); err != nil {
		return err
	}
	defer a.stop()

	g, ctx := errgroup.WithContext(ctx)

	if a.mic != nil {
		g.Go(func() error { return a.mic.ListenAndServe(ctx) })
	}
	if a.adv != nil {
		g.Go(func() error {
			// discovery is best-effort; the endpoint stays reachable by address
			if err := a.adv.Advertise(ctx); err != nil {
				a.log.Warn().Err(err).Msg("mDNS advertisement failed")
			}
			return nil
		})
	}
	g.Go(func() error { return a.report(ctx) })
	if a.controls != nil {
		g.Go(func() error { return a.handleControls(ctx) })
	}

	err := g.Wait()
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

var errQuit = errors.New("quit requested")

// report pushes status snapshots and periodically logs counters
func (a *App) report(ctx context.Context) error {
	ticker := time.NewTicker(a.statusInterval)
	defer ticker.Stop()

	lastLog := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if a.status != nil {
			a.status(a.Status())
		}

		if time.Since(lastLog) >= statsLogInterval {
			lastLog = time.Now()
			s := a.mixer.Stats()
			a.log.Debug().
				Int64("ticks", s.Ticks).
				Int("queue", s.QueueLen).
				Int("assigned", s.Pool.Assigned).
				Int64("preempted", s.Preempted).
				Int64("denied", s.Denied).
				Msg("mixer stats")
		}
	}
}

func (a *App) handleControls(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-a.controls.Volume:
			switch change.Target {
			case ui.TargetSounds:
				a.mixer.SetDefaultVolume(change.Volume)
			case ui.TargetMusic:
				a.mixer.SetMusicVolume(change.Volume)
			}
			a.log.Debug().Str("target", change.Target).Float64("volume", change.Volume).Msg("volume changed")
		case <-a.controls.StopAll:
			a.log.Info().Msg("stopping all players")
			a.mixer.StopAllPlayers()
		case <-a.controls.Quit:
			return errQuit
		}
	}
}

// Status returns a snapshot for the TUI
func (a *App) Status() ui.StatusMsg {
	stats := a.mixer.Stats()
	def := a.mixer.DefaultVolume()
	music := a.mixer.MusicVolume()

	msg := ui.StatusMsg{
		Name:          a.cfg.NetMic.Name,
		Format:        a.cfg.Format().String(),
		Mixer:         &stats,
		DefaultVolume: &def,
		MusicVolume:   &music,
	}
	if a.mic != nil {
		ms := a.mic.Stats()
		msg.Mic = &ui.MicStatus{Sessions: ms.Sessions, Received: ms.Received, Dropped: ms.Dropped}
	}
	return msg
}
