// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and forwards key actions to the app
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Volume targets
const (
	TargetSounds = "sounds"
	TargetMusic  = "music"
)

// VolumeChangeMsg asks the app to change a mixer volume
type VolumeChangeMsg struct {
	Target string
	Volume float64
}

// Controls carries key actions out of the TUI. A nil *Controls drops them.
type Controls struct {
	Volume  chan VolumeChangeMsg
	StopAll chan struct{}
	Quit    chan struct{}
}

// NewControls creates a control handler
func NewControls() *Controls {
	return &Controls{
		Volume:  make(chan VolumeChangeMsg, 10),
		StopAll: make(chan struct{}, 1),
		Quit:    make(chan struct{}, 1),
	}
}

func (c *Controls) setVolume(target string, pct int) {
	if c == nil {
		return
	}
	select {
	case c.Volume <- VolumeChangeMsg{Target: target, Volume: float64(pct) / 100}:
	default:
	}
}

func (c *Controls) stopAll() {
	if c == nil {
		return
	}
	select {
	case c.StopAll <- struct{}{}:
	default:
	}
}

func (c *Controls) quit() {
	if c == nil {
		return
	}
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(name string, controls *Controls) Model {
	return Model{
		name:          name,
		defaultVolume: 100,
		musicVolume:   100,
		controls:      controls,
	}
}

// Run creates the TUI program; the caller runs it
func Run(name string, controls *Controls) *tea.Program {
	return tea.NewProgram(NewModel(name, controls), tea.WithAltScreen())
}
