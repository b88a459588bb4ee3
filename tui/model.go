package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-sampler/debug"
	"go-sampler/engine"
	"go-sampler/layer"
	"go-sampler/midi"
	"go-sampler/theme"
)

// Keyboard strip bounds, an 88-key piano
const (
	stripLo = 21
	stripHi = 108
)

type Model struct {
	Instrument *engine.Instrument
	DeviceMgr  *midi.DeviceManager
	Theme      *theme.Theme
	events     chan<- midi.Event
	inputs     map[string]bool
	quitting   bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

// NewModel builds the monitor. Controller events are forwarded to events,
// which the caller drains with Instrument.Run.
func NewModel(in *engine.Instrument, deviceMgr *midi.DeviceManager, events chan<- midi.Event, th *theme.Theme) Model {
	return Model{
		Instrument: in,
		DeviceMgr:  deviceMgr,
		Theme:      th,
		events:     events,
		inputs:     make(map[string]bool),
	}
}

func ListenForUpdates(in *engine.Instrument) tea.Cmd {
	return func() tea.Msg {
		<-in.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Instrument)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.Instrument.Reset()
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Instrument)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.inputs[event.ID] = true
			go forward(event.Controller, m.events)
		case midi.DeviceDisconnected:
			delete(m.inputs, event.ID)
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

// forward copies controller events until the controller closes its channel
func forward(c midi.Controller, events chan<- midi.Event) {
	for ev := range c.Events() {
		events <- ev
	}
	debug.Log("tui", "%s: input closed", c.ID())
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.Instrument.Snapshot()
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	header := headerStyle.Render(fmt.Sprintf("go-sampler  %s  %3.0fbpm  bend:%+.2f  at:%.2f  in:%d",
		s.Name, s.BPM, s.Pitch, s.Aftertouch, len(m.inputs)))
	counts := dimStyle.Render(fmt.Sprintf("events:%d triggers:%d", s.Events, s.Triggers))
	help := dimStyle.Render("r:reset  q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(counts)
	out.WriteString("\n\n")
	out.WriteString(m.renderKeys(s))
	out.WriteString("\n\n")
	out.WriteString(m.renderLayers(s.Layers))
	out.WriteString("\n")
	out.WriteString(m.renderRecent(s.Recent))
	out.WriteString("\n")
	out.WriteString(help)
	return out.String()
}

// renderKeys draws held notes and notes kept alive by a pedal
func (m Model) renderKeys(s engine.Status) string {
	held := make(map[int]bool, len(s.Pressed))
	for _, n := range s.Pressed {
		held[n] = true
	}
	pedalled := make(map[int]bool)
	for _, l := range s.Layers {
		for _, n := range l.Sustained {
			pedalled[n] = true
		}
		for _, n := range l.Sostenutoed {
			pedalled[n] = true
		}
	}

	heldStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())
	pedalStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	freeStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	var b strings.Builder
	for n := stripLo; n <= stripHi; n++ {
		switch {
		case held[n]:
			b.WriteString(heldStyle.Render(string(m.Theme.Symbols.KeyHeld)))
		case pedalled[n]:
			b.WriteString(pedalStyle.Render(string(m.Theme.Symbols.KeySustained)))
		default:
			b.WriteString(freeStyle.Render(string(m.Theme.Symbols.KeyFree)))
		}
	}
	return b.String()
}

// renderLayers draws one row of gate flags per layer
func (m Model) renderLayers(layers []layer.Status) string {
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	nameStyle := lipgloss.NewStyle().Foreground(m.Theme.FG()).Width(20)

	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf("%-20s %s", "layer", "on ks sq pb bp at cc  seq  ped")))
	b.WriteString("\n")
	for _, l := range layers {
		b.WriteString(nameStyle.Render(truncate(l.Name, 19)))
		b.WriteString(" ")
		for _, on := range []bool{l.SwitchedOn, l.KeySwitched, l.SequenceSwitched, l.PitchSwitched, l.BPMSwitched, l.AftertouchSwitched, l.CCSwitched} {
			sym, color := m.Theme.Gate(on)
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(sym)))
			b.WriteString("  ")
		}
		b.WriteString(fmt.Sprintf("%3d  ", l.SequenceCounter))
		b.WriteString(pedals(l))
		b.WriteString("\n")
	}
	return b.String()
}

func pedals(l layer.Status) string {
	var parts []string
	if l.SustainPressed {
		parts = append(parts, fmt.Sprintf("sus(%d)", len(l.Sustained)))
	}
	if l.SostenutoPressed {
		parts = append(parts, fmt.Sprintf("sos(%d)", len(l.Sostenutoed)))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func (m Model) renderRecent(recent []engine.Trigger) string {
	fired := lipgloss.NewStyle().Foreground(m.Theme.Success())
	var b strings.Builder
	for _, t := range recent {
		b.WriteString(fired.Render(string(m.Theme.Symbols.Fired)))
		b.WriteString(" ")
		b.WriteString(t.String())
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
