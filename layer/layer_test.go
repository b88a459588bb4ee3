package layer

import (
	"reflect"
	"testing"

	"go-sampler/midistate"
	"go-sampler/region"
)

func intPtr(v int) *int { return &v }

func newTestLayer(t *testing.T, configure func(r *region.Region)) (*Layer, *midistate.State) {
	t.Helper()
	r := region.New()
	r.Name = "test"
	if configure != nil {
		configure(r)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("invalid test region: %v", err)
	}
	state := midistate.New()
	return New(r, state), state
}

// noteOn mirrors the dispatcher: the shared state records the note first
func noteOn(l *Layer, s *midistate.State, note int, velocity float32) bool {
	s.NoteOn(note, velocity)
	return l.RegisterNoteOn(note, velocity, 0.5)
}

// noteOff mirrors the dispatcher: layers see the note-off before the state drops it
func noteOff(l *Layer, s *midistate.State, note int, velocity float32) bool {
	fired := l.RegisterNoteOff(note, velocity, 0.5)
	s.NoteOff(note)
	return fired
}

func TestDefaultRegionIsSwitchedOn(t *testing.T) {
	l, s := newTestLayer(t, nil)
	if !l.IsSwitchedOn() {
		t.Fatalf("expected default region to be switched on: %+v", l.Snapshot())
	}
	if !noteOn(l, s, 60, 0.8) {
		t.Fatalf("expected default region to fire on note-on")
	}
}

func TestKeyswitchIsSticky(t *testing.T) {
	l, s := newTestLayer(t, func(r *region.Region) {
		r.KeyRange = region.IntRange{Lo: 48, Hi: 96}
		r.KeyswitchRange = &region.IntRange{Lo: 36, Hi: 40}
		r.LastKeyswitch = intPtr(36)
	})

	if l.keySwitched {
		t.Fatalf("expected keyswitch off before any switch note without a default")
	}
	if noteOn(l, s, 60, 0.8) {
		t.Fatalf("expected no trigger before keyswitch")
	}

	if noteOn(l, s, 36, 0.8) {
		t.Fatalf("expected keyswitch note itself not to trigger")
	}
	if !l.keySwitched || !l.KeyswitchChanged() {
		t.Fatalf("expected keyswitch latched on by note 36")
	}

	if !noteOn(l, s, 60, 0.8) {
		t.Fatalf("expected trigger after keyswitch")
	}
	if !l.keySwitched || l.KeyswitchChanged() {
		t.Fatalf("expected keyswitch to persist across unrelated note")
	}

	noteOn(l, s, 38, 0.8)
	if l.keySwitched || !l.KeyswitchChanged() {
		t.Fatalf("expected another keyswitch note to unlatch")
	}
	if noteOn(l, s, 60, 0.8) {
		t.Fatalf("expected no trigger after switching away")
	}
}

func TestKeyswitchDefault(t *testing.T) {
	l, _ := newTestLayer(t, func(r *region.Region) {
		r.KeyswitchRange = &region.IntRange{Lo: 24, Hi: 26}
		r.LastKeyswitch = intPtr(25)
		r.DefaultKeyswitch = intPtr(25)
	})
	if !l.keySwitched {
		t.Fatalf("expected default keyswitch to latch on at init")
	}
}

func TestIsSwitchedOnIsIdempotent(t *testing.T) {
	l, _ := newTestLayer(t, func(r *region.Region) {
		r.CCConditions[1] = region.Range{Lo: 0.5, Hi: 1}
	})
	before := l.Snapshot()
	first := l.IsSwitchedOn()
	second := l.IsSwitchedOn()
	if first != second {
		t.Fatalf("expected identical results: %v then %v", first, second)
	}
	if !reflect.DeepEqual(before, l.Snapshot()) {
		t.Fatalf("expected IsSwitchedOn not to mutate state")
	}
}

func TestSequenceWrapsAround(t *testing.T) {
	state := midistate.New()
	var layers []*Layer
	for pos := 0; pos < 3; pos++ {
		r := region.New()
		r.SequenceLength = 3
		r.SequencePosition = pos
		layers = append(layers, New(r, state))
	}

	var fired []int
	for i := 0; i < 6; i++ {
		state.NoteOn(60, 1)
		for idx, l := range layers {
			if l.RegisterNoteOn(60, 1, 0.5) {
				fired = append(fired, idx)
			}
		}
		state.NoteOff(60)
	}

	want := []int{0, 1, 2, 0, 1, 2}
	if !reflect.DeepEqual(fired, want) {
		t.Fatalf("expected round robin: got=%v want=%v", fired, want)
	}
}

func TestSequenceSwitchedTracksPosition(t *testing.T) {
	l, s := newTestLayer(t, func(r *region.Region) {
		r.SequenceLength = 3
		r.SequencePosition = 1
	})

	want := []bool{false, true, false, false, true, false}
	for i, w := range want {
		got := noteOn(l, s, 60, 1)
		if got != w || l.sequenceSwitched != w {
			t.Fatalf("call %d: got fire=%v switched=%v want %v", i, got, l.sequenceSwitched, w)
		}
	}
}

func TestSequenceDoesNotAdvanceOnNonQualifyingNote(t *testing.T) {
	l, s := newTestLayer(t, func(r *region.Region) {
		r.KeyRange = region.IntRange{Lo: 60, Hi: 72}
		r.SequenceLength = 2
	})
	noteOn(l, s, 40, 1) // outside the key range
	if l.sequenceCounter != 0 {
		t.Fatalf("expected counter untouched, got %d", l.sequenceCounter)
	}
	if !noteOn(l, s, 60, 1) {
		t.Fatalf("expected first qualifying note to fire at position 0")
	}
}

func TestCCOnUngatedControllerChangesNothing(t *testing.T) {
	l, _ := newTestLayer(t, func(r *region.Region) {
		r.CCConditions[1] = region.Range{Lo: 0, Hi: 1}
		r.BendRange = region.Range{Lo: 0, Hi: 1}
	})
	before := l.Snapshot()
	if l.RegisterCC(20, 1) {
		t.Fatalf("expected ungated controller not to trigger")
	}
	if !reflect.DeepEqual(before, l.Snapshot()) {
		t.Fatalf("expected no flag change: before=%+v after=%+v", before, l.Snapshot())
	}
}

func TestCCConditionGatesNotes(t *testing.T) {
	l, s := newTestLayer(t, func(r *region.Region) {
		r.CCConditions[1] = region.Range{Lo: 0.5, Hi: 1}
	})
	if l.IsSwitchedOn() {
		t.Fatalf("expected controller at rest to close the gate")
	}
	if noteOn(l, s, 60, 1) {
		t.Fatalf("expected no trigger while controller out of range")
	}

	if l.RegisterCC(1, 0.7) {
		t.Fatalf("expected condition-only controller not to report a trigger")
	}
	if !noteOn(l, s, 62, 1) {
		t.Fatalf("expected trigger once controller in range")
	}

	l.RegisterCC(1, 0.2)
	if l.IsSwitchedOn() {
		t.Fatalf("expected gate to close when controller leaves the range")
	}
}

func TestCCTriggerFiresOnEntryEdge(t *testing.T) {
	l, _ := newTestLayer(t, func(r *region.Region) {
		r.CCTriggers[20] = region.Range{Lo: 0.5, Hi: 1}
	})

	steps := []struct {
		value float32
		want  bool
	}{
		{0.6, true},
		{0.8, false},
		{0.1, false},
		{0.9, true},
		{0.5, false},
	}
	for i, step := range steps {
		if got := l.RegisterCC(20, step.value); got != step.want {
			t.Fatalf("step %d value %.2f: got=%v want=%v", i, step.value, got, step.want)
		}
	}
}

func TestCCTriggerRespectsOtherGates(t *testing.T) {
	l, _ := newTestLayer(t, func(r *region.Region) {
		r.CCTriggers[20] = region.Range{Lo: 0.5, Hi: 1}
		r.AftertouchRange = region.Range{Lo: 0.5, Hi: 1}
	})
	if l.RegisterCC(20, 0.9) {
		t.Fatalf("expected closed aftertouch gate to suppress the trigger")
	}
}

func TestOutOfRangeInputsAreTolerated(t *testing.T) {
	l, s := newTestLayer(t, nil)
	if l.RegisterCC(-1, 1) || l.RegisterCC(region.NumCCs, 1) {
		t.Fatalf("expected out-of-range controllers to be non-matching")
	}
	if noteOn(l, s, 200, 1) || noteOn(l, s, -5, 1) {
		t.Fatalf("expected out-of-range notes to be non-matching")
	}
	if !noteOn(l, s, 60, 4) {
		t.Fatalf("expected oversized velocity to be clamped and fire")
	}
	l.RegisterPitchWheel(99)
	l.RegisterAftertouch(-3)
	l.RegisterTempo(-1)
}

func TestContinuousGates(t *testing.T) {
	l, s := newTestLayer(t, func(r *region.Region) {
		r.BendRange = region.Range{Lo: 0, Hi: 1}
		r.BPMRange = region.Range{Lo: 100, Hi: 140}
		r.AftertouchRange = region.Range{Lo: 0, Hi: 0.5}
	})
	if !l.IsSwitchedOn() {
		t.Fatalf("expected resting values to satisfy gates: %+v", l.Snapshot())
	}

	l.RegisterPitchWheel(-0.5)
	if l.pitchSwitched || noteOn(l, s, 60, 1) {
		t.Fatalf("expected negative bend to close the pitch gate")
	}
	l.RegisterPitchWheel(0.5)

	l.RegisterTempo(0.25) // 240 bpm
	if l.bpmSwitched {
		t.Fatalf("expected 240 bpm outside 100..140")
	}
	l.RegisterTempo(0.5)

	l.RegisterAftertouch(0.9)
	if l.aftertouchSwitched {
		t.Fatalf("expected aftertouch 0.9 outside 0..0.5")
	}
	l.RegisterAftertouch(0.1)

	if !noteOn(l, s, 60, 1) {
		t.Fatalf("expected trigger once every gate is back in range")
	}
}

func TestUnusedTempoGateStaysOpen(t *testing.T) {
	l, s := newTestLayer(t, nil)

	l.RegisterTempo(0.1) // 600 bpm
	if !l.IsSwitchedOn() {
		t.Fatalf("expected a region without a bpm range to ignore tempo: %+v", l.Snapshot())
	}

	s.Tempo(0.001)
	l.InitializeActivations()
	if !l.IsSwitchedOn() {
		t.Fatalf("expected init at 60000 bpm to keep the tempo gate open")
	}
	if !noteOn(l, s, 60, 1) {
		t.Fatalf("expected note to fire at a fast tempo")
	}
}

func TestKeyswitchInsideKeyRangeAlsoPlays(t *testing.T) {
	l, s := newTestLayer(t, func(r *region.Region) {
		r.KeyswitchRange = &region.IntRange{Lo: 36, Hi: 38}
		r.LastKeyswitch = intPtr(36)
	})

	if !noteOn(l, s, 36, 1) || !l.KeySwitched() {
		t.Fatalf("expected keyswitch inside the key range to latch and play")
	}
	noteOff(l, s, 36, 0)
	if noteOn(l, s, 37, 1) || l.KeySwitched() {
		t.Fatalf("expected another keyswitch to unlatch without playing")
	}
}

func TestKeyswitchOutsideKeyRangeOnlyLatches(t *testing.T) {
	l, s := newTestLayer(t, func(r *region.Region) {
		r.KeyRange = region.IntRange{Lo: 48, Hi: 96}
		r.KeyswitchRange = &region.IntRange{Lo: 36, Hi: 38}
		r.LastKeyswitch = intPtr(36)
	})

	if noteOn(l, s, 36, 1) {
		t.Fatalf("expected keyswitch outside the key range to stay silent")
	}
	if !l.KeySwitched() || !noteOn(l, s, 60, 1) {
		t.Fatalf("expected keyswitch 36 to enable the region")
	}
}

func TestVelocityAndRandomRanges(t *testing.T) {
	l, s := newTestLayer(t, func(r *region.Region) {
		r.VelocityRange = region.Range{Lo: 0.5, Hi: 1}
		r.RandRange = region.Range{Lo: 0.5, Hi: 1}
	})

	s.NoteOn(60, 0.3)
	if l.RegisterNoteOn(60, 0.3, 0.7) {
		t.Fatalf("expected soft note to miss the velocity range")
	}

	cases := []struct {
		rand float32
		want bool
	}{
		{0.2, false},
		{0.5, true},
		{0.7, true},
		{1.0, true},
	}
	for _, c := range cases {
		if got := l.RegisterNoteOn(60, 0.9, c.rand); got != c.want {
			t.Fatalf("rand %.2f: got=%v want=%v", c.rand, got, c.want)
		}
	}
	if l.RegisterNoteOn(60, 0.9, 0.7) != l.RegisterNoteOn(60, 0.9, 0.7) {
		t.Fatalf("expected identical inputs to give identical results")
	}
}

func TestFirstAndLegatoTriggers(t *testing.T) {
	state := midistate.New()
	first := region.New()
	first.Trigger = region.TriggerFirst
	legato := region.New()
	legato.Trigger = region.TriggerLegato
	lf := New(first, state)
	ll := New(legato, state)

	state.NoteOn(60, 1)
	if !lf.RegisterNoteOn(60, 1, 0.5) || ll.RegisterNoteOn(60, 1, 0.5) {
		t.Fatalf("expected only first trigger on an isolated note")
	}
	state.NoteOn(64, 1)
	if lf.RegisterNoteOn(64, 1, 0.5) || !ll.RegisterNoteOn(64, 1, 0.5) {
		t.Fatalf("expected only legato trigger on an overlapping note")
	}
}

func TestInitializeActivationsResets(t *testing.T) {
	l, s := newTestLayer(t, func(r *region.Region) {
		r.SequenceLength = 2
		r.KeyswitchRange = &region.IntRange{Lo: 24, Hi: 25}
		r.LastKeyswitch = intPtr(24)
	})
	noteOn(l, s, 24, 1)
	noteOn(l, s, 60, 1)
	l.DelaySustainRelease(60, 1)
	l.DelaySostenutoRelease(61, 1)

	l.InitializeActivations()
	if l.keySwitched || l.sequenceCounter != 0 || !l.sequenceSwitched {
		t.Fatalf("expected keyswitch and sequence reset: %+v", l.Snapshot())
	}
	if len(l.SustainReleases()) != 0 || len(l.SostenutoReleases()) != 0 {
		t.Fatalf("expected delayed releases cleared")
	}
}

func TestInitializeActivationsReadsPerformanceState(t *testing.T) {
	r := region.New()
	r.CCConditions[7] = region.Range{Lo: 0.5, Hi: 1}
	state := midistate.New()
	state.CCEvent(7, 1)
	state.CCEvent(64, 1)

	l := New(r, state)
	if !l.IsSwitchedOn() {
		t.Fatalf("expected current controller value to open the gate at load")
	}
	if !l.SustainPressed() {
		t.Fatalf("expected sustain pedal picked up from the shared state")
	}
}

func TestCloseReleasesOwnedRegionOnly(t *testing.T) {
	state := midistate.New()

	borrowed := region.New()
	borrowed.CCConditions[1] = region.Range{Lo: 0, Hi: 1}
	New(borrowed, state).Close()
	if borrowed.CCConditions == nil {
		t.Fatalf("expected borrowed region untouched by Close")
	}

	owned := region.New()
	owned.CCConditions[1] = region.Range{Lo: 0, Hi: 1}
	l := NewOwned(owned, state)
	if l.Ownership() != Owned {
		t.Fatalf("expected owned layer")
	}
	l.Close()
	if owned.CCConditions != nil {
		t.Fatalf("expected owned region released by Close")
	}
}
