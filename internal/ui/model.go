// ABOUTME: Bubbletea model for the mixer status view
// ABOUTME: Renders pool occupancy, queue activity and volumes from StatusMsg updates
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sendspin/sendspin-mixer/pkg/mixer"
)

const volumeStep = 5

// Model represents the TUI state
type Model struct {
	name   string
	format string

	// Pool
	sources  int
	assigned int

	// Scheduler
	queueLen     int
	ticks        int64
	admitted     int64
	denied       int64
	preempted    int64
	retired      int64
	deduplicated int64

	// Net-mic
	micEnabled  bool
	sessions    int
	micReceived int64
	micDropped  int64

	// Volumes in percent
	defaultVolume int
	musicVolume   int

	showDebug bool
	controls  *Controls

	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderPool())
	b.WriteString(m.renderVolumes())
	if m.micEnabled {
		b.WriteString(m.renderMic())
	}
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ Sendspin Mixer ─────────────────────────────────────┐
│ Name:   %-45s │
│ Format: %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(m.name, 45), truncate(m.format, 45))
}

// renderPool renders source usage and the playback queue
func (m Model) renderPool() string {
	bar := renderBar(m.assigned, m.sources, 20)

	return fmt.Sprintf("│ Sources: [%s] %3d/%-3d%-13s │\n"+
		"│ Queue:   %-6d players%-23s │\n",
		bar, m.assigned, m.sources, "",
		m.queueLen, "")
}

func (m Model) renderVolumes() string {
	return fmt.Sprintf("│%-54s│\n"+
		"│ Sounds: [%s] %3d%%%-25s │\n"+
		"│ Music:  [%s] %3d%%%-25s │\n",
		"",
		renderBar(m.defaultVolume, 100, 10), m.defaultVolume, "",
		renderBar(m.musicVolume, 100, 10), m.musicVolume, "")
}

func (m Model) renderMic() string {
	return fmt.Sprintf("├──────────────────────────────────────────────────────┤\n"+
		"│ Net-mic: %-3d sessions  RX: %-10s Drop: %-8s │\n",
		m.sessions, formatBytes(m.micReceived), formatBytes(m.micDropped))
}

func (m Model) renderDebug() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ DEBUG:                                               │
│   Ticks: %-12d Admitted: %-18d │
│   Denied: %-11d Preempted: %-17d │
│   Retired: %-10d Deduplicated: %-14d │
`, m.ticks, m.admitted, m.denied, m.preempted, m.retired, m.deduplicated)
}

func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ ↑/↓:Sounds  ←/→:Music  s:Stop all  d:Debug  q:Quit   │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.controls.quit()
		return m, tea.Quit
	case "up":
		m.defaultVolume = clampPercent(m.defaultVolume + volumeStep)
		m.controls.setVolume(TargetSounds, m.defaultVolume)
	case "down":
		m.defaultVolume = clampPercent(m.defaultVolume - volumeStep)
		m.controls.setVolume(TargetSounds, m.defaultVolume)
	case "right":
		m.musicVolume = clampPercent(m.musicVolume + volumeStep)
		m.controls.setVolume(TargetMusic, m.musicVolume)
	case "left":
		m.musicVolume = clampPercent(m.musicVolume - volumeStep)
		m.controls.setVolume(TargetMusic, m.musicVolume)
	case "s":
		m.controls.stopAll()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Name != "" {
		m.name = msg.Name
	}
	if msg.Format != "" {
		m.format = msg.Format
	}
	if msg.Mixer != nil {
		s := msg.Mixer
		m.sources = s.Pool.Total
		m.assigned = s.Pool.Assigned
		m.queueLen = s.QueueLen
		m.ticks = s.Ticks
		m.admitted = s.Admitted
		m.denied = s.Denied
		m.preempted = s.Preempted
		m.retired = s.Retired
		m.deduplicated = s.Deduplicated
	}
	if msg.Mic != nil {
		m.micEnabled = true
		m.sessions = msg.Mic.Sessions
		m.micReceived = msg.Mic.Received
		m.micDropped = msg.Mic.Dropped
	}
	if msg.DefaultVolume != nil {
		m.defaultVolume = percent(*msg.DefaultVolume)
	}
	if msg.MusicVolume != nil {
		m.musicVolume = percent(*msg.MusicVolume)
	}
}

// MicStatus summarises the net-mic endpoint
type MicStatus struct {
	Sessions int
	Received int64
	Dropped  int64
}

// StatusMsg updates TUI state. Nil and empty fields leave the view unchanged.
type StatusMsg struct {
	Name          string
	Format        string
	Mixer         *mixer.Stats
	Mic           *MicStatus
	DefaultVolume *float64
	MusicVolume   *float64
}

func renderBar(value, max, width int) string {
	if max <= 0 {
		return strings.Repeat("░", width)
	}
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func percent(v float64) int {
	return clampPercent(int(v*100 + 0.5))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
