package midi

import (
	"bytes"
	"errors"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func writeSMF(t *testing.T, tracks ...smf.Track) *bytes.Buffer {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)
	for _, tr := range tracks {
		if err := s.Add(tr); err != nil {
			t.Fatalf("add track: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	return &buf
}

func TestReadSMFAppliesTempo(t *testing.T) {
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(60))
	tr.Add(0, gomidi.NoteOn(0, 60, 100))
	tr.Add(960, gomidi.NoteOff(0, 60))
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(960, gomidi.ControlChange(0, 64, 127))
	tr.Close(0)

	events, err := ReadSMF(writeSMF(t, tr))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	want := []struct {
		typ uint8
		at  time.Duration
	}{
		{Tempo, 0},
		{NoteOn, 0},
		{NoteOff, time.Second},
		{Tempo, time.Second},
		{CC, 1500 * time.Millisecond},
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(events), events)
	}
	for i, w := range want {
		if events[i].Type != w.typ {
			t.Fatalf("event %d: got type 0x%02X want 0x%02X", i, events[i].Type, w.typ)
		}
		if d := events[i].Time - w.at; d > time.Millisecond || d < -time.Millisecond {
			t.Fatalf("event %d: got time %v want %v", i, events[i].Time, w.at)
		}
	}
	if events[0].SecondsPerQuarter != 1 {
		t.Fatalf("expected 60 bpm to be one second per quarter, got %f", events[0].SecondsPerQuarter)
	}
}

func TestReadSMFMergesTracks(t *testing.T) {
	var a, b smf.Track
	a.Add(480, gomidi.NoteOn(0, 60, 100))
	a.Close(0)
	b.Add(240, gomidi.NoteOn(0, 64, 100))
	b.Add(480, gomidi.NoteOn(0, 67, 100))
	b.Close(0)

	events, err := ReadSMF(writeSMF(t, a, b))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var notes []uint8
	for _, ev := range events {
		notes = append(notes, ev.Note)
	}
	want := []uint8{64, 60, 67}
	if !bytes.Equal(notes, want) {
		t.Fatalf("expected notes ordered by time: got=%v want=%v", notes, want)
	}
}

func TestReadSMFTempoTrackTimesOtherTracks(t *testing.T) {
	var tempo, notes smf.Track
	tempo.Add(0, smf.MetaTempo(60))
	tempo.Add(960, smf.MetaTempo(120))
	tempo.Close(0)
	notes.Add(1920, gomidi.NoteOn(0, 60, 100))
	notes.Close(0)

	events, err := ReadSMF(writeSMF(t, tempo, notes))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	last := events[len(events)-1]
	if last.Type != NoteOn {
		t.Fatalf("expected the note last, got %v", last)
	}
	// one quarter at 60 bpm, then one at 120 bpm
	if d := last.Time - 1500*time.Millisecond; d > time.Millisecond || d < -time.Millisecond {
		t.Fatalf("got time %v want 1.5s", last.Time)
	}
}

func TestReadSMFRejectsGarbage(t *testing.T) {
	_, err := ReadSMF(bytes.NewReader([]byte("not a midi file")))
	if err == nil {
		t.Fatalf("expected error for invalid data")
	}
	if errors.Is(err, ErrUnsupportedTimeFormat) {
		t.Fatalf("expected a read error, got %v", err)
	}
}
