// Package layer pairs a region with the live gating, sequencing and pedal
// state that decides, event by event, whether the region should fire.
//
// A Layer is not safe for concurrent use. Events for one layer must be
// delivered in order from a single goroutine; distinct layers are independent.
package layer

import (
	"github.com/bits-and-blooms/bitset"

	"go-sampler/midistate"
	"go-sampler/region"
)

// PerformanceState is the read-only view of the shared performance values
type PerformanceState interface {
	IsNotePressed(note int) bool
	NoteVelocity(note int) float32
	ActiveNotes() int
	CCValue(cc int) float32
	Pitch() float32
	AftertouchValue() float32
	BPM() float32
}

// Ownership says whether a layer releases its region on Close
type Ownership int

const (
	Borrowed Ownership = iota
	Owned
)

// Layer is the runtime state of one region
type Layer struct {
	region    *region.Region
	ownership Ownership
	state     PerformanceState

	// Gate flags, each written only by its own registration call
	keySwitched         bool
	previousKeySwitched bool
	sequenceSwitched    bool
	pitchSwitched       bool
	bpmSwitched         bool
	aftertouchSwitched  bool
	ccSwitched          *bitset.BitSet // bit i: controller i satisfies its condition
	ccTriggered         *bitset.BitSet // bit i: last value of controller i was inside its trigger range

	sequenceCounter int

	// Pedals
	sustainPressed           bool
	sostenutoPressed         bool
	delayedSustainReleases   []NoteRelease
	delayedSostenutoReleases []NoteRelease
}

// New creates a layer that borrows r; the caller keeps ownership of the region
func New(r *region.Region, state PerformanceState) *Layer {
	return newLayer(r, state, Borrowed)
}

// NewOwned creates a layer that releases r when closed
func NewOwned(r *region.Region, state PerformanceState) *Layer {
	return newLayer(r, state, Owned)
}

func newLayer(r *region.Region, state PerformanceState, ownership Ownership) *Layer {
	l := &Layer{
		region:                   r,
		ownership:                ownership,
		state:                    state,
		ccSwitched:               bitset.New(region.NumCCs),
		ccTriggered:              bitset.New(region.NumCCs),
		delayedSustainReleases:   make([]NoteRelease, 0, maxDelayedReleases),
		delayedSostenutoReleases: make([]NoteRelease, 0, maxDelayedReleases),
	}
	l.InitializeActivations()
	return l
}

// Region returns the region this layer operates on
func (l *Layer) Region() *region.Region {
	return l.region
}

func (l *Layer) Ownership() Ownership {
	return l.ownership
}

// Close releases an owned region. The layer must not be used afterwards.
func (l *Layer) Close() {
	if l.ownership == Owned {
		l.region.Release()
	}
	l.delayedSustainReleases = l.delayedSustainReleases[:0]
	l.delayedSostenutoReleases = l.delayedSostenutoReleases[:0]
}

// InitializeActivations resets every gate to the region defaults evaluated
// against the current performance state, and clears the sequence counter
// and both delayed-release lists.
func (l *Layer) InitializeActivations() {
	r := l.region

	l.keySwitched = r.KeyswitchDefault()
	l.previousKeySwitched = l.keySwitched

	l.sequenceCounter = 0
	l.sequenceSwitched = r.SequencePosition == 0

	l.pitchSwitched = r.BendRange.ContainsWithEnd(l.state.Pitch())
	l.bpmSwitched = r.BPMRange.ContainsWithEnd(l.state.BPM())
	l.aftertouchSwitched = r.AftertouchRange.ContainsWithEnd(l.state.AftertouchValue())

	l.ccTriggered.ClearAll()
	for cc := 0; cc < region.NumCCs; cc++ {
		value := l.state.CCValue(cc)
		l.ccSwitched.SetTo(uint(cc), r.CCConditionMatches(cc, value))
		if r.CCTriggerMatches(cc, value) {
			l.ccTriggered.Set(uint(cc))
		}
	}

	l.sustainPressed = r.CheckSustain && l.state.CCValue(r.SustainCC) >= r.SustainThreshold
	l.sostenutoPressed = r.CheckSostenuto && l.state.CCValue(r.SostenutoCC) >= r.SostenutoThreshold
	l.delayedSustainReleases = l.delayedSustainReleases[:0]
	l.delayedSostenutoReleases = l.delayedSostenutoReleases[:0]
}

// IsSwitchedOn is the conjunction of every gate
func (l *Layer) IsSwitchedOn() bool {
	return l.othersSwitchedOn() && l.sequenceSwitched
}

func (l *Layer) othersSwitchedOn() bool {
	return l.keySwitched &&
		l.pitchSwitched &&
		l.bpmSwitched &&
		l.aftertouchSwitched &&
		l.ccSwitched.All()
}

func (l *Layer) KeySwitched() bool {
	return l.keySwitched
}

// KeyswitchChanged reports whether the last note-on flipped the keyswitch latch
func (l *Layer) KeyswitchChanged() bool {
	return l.keySwitched != l.previousKeySwitched
}

// RegisterNoteOn updates the keyswitch latch and returns true if the region
// should start a voice for this note.
func (l *Layer) RegisterNoteOn(note int, velocity, randValue float32) bool {
	r := l.region

	l.previousKeySwitched = l.keySwitched
	if r.IsKeyswitch(note) {
		l.keySwitched = r.KeyswitchSelects(note)
	}

	l.RemoveFromSostenutoReleases(note)

	velocity = clampUnit(velocity)
	randValue = clampUnit(randValue)

	if !r.TriggersOnNote() || !r.InPlayableRange(note, velocity) || !r.RandomMatches(randValue) {
		return false
	}
	if !l.othersSwitchedOn() || !l.triggerModeMatches() {
		return false
	}

	l.advanceSequence()
	return l.IsSwitchedOn()
}

// triggerModeMatches applies first/legato against the held notes.
// The dispatcher records the note-on before layers see it.
func (l *Layer) triggerModeMatches() bool {
	switch l.region.Trigger {
	case region.TriggerFirst:
		return l.state.ActiveNotes() == 1
	case region.TriggerLegato:
		return l.state.ActiveNotes() > 1
	}
	return true
}

func (l *Layer) advanceSequence() {
	length := l.region.SequenceLength
	if length < 1 {
		length = 1
	}
	position := l.sequenceCounter % length
	l.sequenceSwitched = position == l.region.SequencePosition
	l.sequenceCounter = (position + 1) % length
}

// RegisterNoteOff defers the release of a sounding note while a pedal holds
// it, and otherwise returns true if the region is a release trigger that
// should fire for this note.
func (l *Layer) RegisterNoteOff(note int, velocity, randValue float32) bool {
	r := l.region
	velocity = clampUnit(velocity)
	randValue = clampUnit(randValue)

	if r.Trigger == region.TriggerReleaseKey {
		return l.ReleaseTriggers(note, velocity, randValue)
	}

	if l.isSounding(note) {
		if l.sostenutoPressed && l.IsNoteSostenutoed(note) {
			return false
		}
		if l.sustainPressed {
			l.DelaySustainRelease(note, velocity)
			return false
		}
	}

	return l.ReleaseTriggers(note, velocity, randValue)
}

// ReleaseTriggers is the gate and range test for release regions. The
// dispatcher also uses it when a pedal lift lets delayed releases through.
func (l *Layer) ReleaseTriggers(note int, velocity, randValue float32) bool {
	r := l.region
	if !r.TriggersOnRelease() || !l.IsSwitchedOn() {
		return false
	}
	return r.InPlayableRange(note, velocity) && r.RandomMatches(randValue)
}

// isSounding expects the dispatcher to deliver note-offs before the shared
// state forgets the note.
func (l *Layer) isSounding(note int) bool {
	return l.region.InKeyRange(note) && l.state.IsNotePressed(note)
}

// RegisterCC updates pedal flags and the controller gate. It returns true
// when value newly enters the trigger range of a controller-triggered region.
func (l *Layer) RegisterCC(cc int, value float32) bool {
	if cc < 0 || cc >= region.NumCCs {
		return false
	}
	r := l.region
	value = clampUnit(value)

	if r.IsSustainCC(cc) {
		l.sustainPressed = value >= r.SustainThreshold
	}
	if r.IsSostenutoCC(cc) {
		pressed := value >= r.SostenutoThreshold
		if pressed && !l.sostenutoPressed {
			l.StoreSostenutoNotes()
		}
		l.sostenutoPressed = pressed
	}

	if !r.GatesCC(cc) {
		return false
	}

	bit := uint(cc)
	l.ccSwitched.SetTo(bit, r.CCConditionMatches(cc, value))

	if _, ok := r.CCTriggers[cc]; !ok {
		return false
	}
	inside := r.CCTriggerMatches(cc, value)
	wasInside := l.ccTriggered.Test(bit)
	l.ccTriggered.SetTo(bit, inside)

	return inside && !wasInside && l.IsSwitchedOn()
}

// RegisterPitchWheel gates on a bend in -1..1
func (l *Layer) RegisterPitchWheel(pitch float32) {
	l.pitchSwitched = l.region.BendRange.ContainsWithEnd(clamp(pitch, -1, 1))
}

// RegisterAftertouch gates on channel pressure in 0..1
func (l *Layer) RegisterAftertouch(aftertouch float32) {
	l.aftertouchSwitched = l.region.AftertouchRange.ContainsWithEnd(clampUnit(aftertouch))
}

// RegisterTempo gates on the tempo, given as the duration of a quarter note
func (l *Layer) RegisterTempo(secondsPerQuarter float32) {
	bpm := 60 / midistate.ClampSecondsPerQuarter(secondsPerQuarter)
	l.bpmSwitched = l.region.BPMRange.ContainsWithEnd(bpm)
}

func clampUnit(v float32) float32 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float32) float32 {
	if v != v {
		v = 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
