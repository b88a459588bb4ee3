package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-sampler/engine"
	"go-sampler/midi"
	"go-sampler/region"
	"go-sampler/theme"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	r := region.New()
	r.Name = "piano"
	in := engine.New("grand", []*region.Region{r}, engine.Options{Seed: 1})
	t.Cleanup(in.Close)
	return NewModel(in, nil, make(chan midi.Event, 1), theme.New(theme.Default()))
}

func TestViewShowsLayersAndTriggers(t *testing.T) {
	m := newTestModel(t)
	m.Instrument.Dispatch(midi.NoteOnEvent(0, 60, 100))

	view := m.View()
	for _, want := range []string{"grand", "piano", "attack", "events:1 triggers:1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestResetKey(t *testing.T) {
	m := newTestModel(t)
	m.Instrument.Dispatch(midi.NoteOnEvent(0, 60, 100))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if next.(Model).Instrument.State().ActiveNotes() != 0 {
		t.Fatalf("expected reset to clear held notes")
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if next.View() != "" {
		t.Fatalf("expected empty view after quit")
	}
}

func TestDeviceEventsTrackInputs(t *testing.T) {
	m := newTestModel(t)
	m.DeviceMgr = midi.NewDeviceManager(nil)
	kb, err := midi.NewKeyboardController("test keys", nil, -1)
	if err != nil {
		t.Fatalf("keyboard: %v", err)
	}

	next, _ := m.Update(DeviceEventMsg{Type: midi.DeviceConnected, Controller: kb, ID: "test keys"})
	if !next.(Model).inputs["test keys"] {
		t.Fatalf("expected input to be tracked")
	}
	kb.Close()

	next, _ = next.Update(DeviceEventMsg{Type: midi.DeviceDisconnected, ID: "test keys"})
	if len(next.(Model).inputs) != 0 {
		t.Fatalf("expected input to be dropped")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("sustain pedal noise", 8); got != "sustain…" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("kick", 8); got != "kick" {
		t.Fatalf("got %q", got)
	}
}
