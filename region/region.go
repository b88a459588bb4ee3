package region

import (
	"errors"
	"fmt"
	"math"
)

// NumCCs is the number of controller numbers a region can gate on
const NumCCs = 128

// Default pedal controllers and thresholds
const (
	DefaultSustainCC        = 64
	DefaultSostenutoCC      = 66
	DefaultPedalThreshold   = 0.5
	DefaultSequenceLength   = 1
	DefaultSequencePosition = 0
)

var ErrInvalidRegion = errors.New("invalid region")

// Trigger selects which note events start a region
type Trigger string

const (
	TriggerAttack     Trigger = "attack"
	TriggerRelease    Trigger = "release"
	TriggerReleaseKey Trigger = "release_key"
	TriggerFirst      Trigger = "first"
	TriggerLegato     Trigger = "legato"
)

// Region is the static trigger configuration of one sample layer.
// All continuous ranges are normalized: velocity, controllers, aftertouch
// and rand in 0..1, bend in -1..1; tempo ranges are in BPM.
type Region struct {
	Name string

	KeyRange      IntRange
	VelocityRange Range

	// Sparse per-controller conditions (locc/hicc) and triggers (on_locc/on_hicc)
	CCConditions map[int]Range
	CCTriggers   map[int]Range

	// Keyswitches. KeyswitchRange is nil when the region ignores keyswitches.
	KeyswitchRange   *IntRange
	LastKeyswitch    *int
	DefaultKeyswitch *int

	SequenceLength   int
	SequencePosition int // 0-based

	BendRange       Range
	BPMRange        Range
	AftertouchRange Range
	RandRange       Range

	Trigger Trigger

	SustainCC          int
	SostenutoCC        int
	SustainThreshold   float32
	SostenutoThreshold float32
	CheckSustain       bool
	CheckSostenuto     bool
}

// New returns a region that plays on every key and velocity
func New() *Region {
	return &Region{
		KeyRange:           IntRange{Lo: 0, Hi: 127},
		VelocityRange:      Range{Lo: 0, Hi: 1},
		CCConditions:       make(map[int]Range),
		CCTriggers:         make(map[int]Range),
		SequenceLength:     DefaultSequenceLength,
		SequencePosition:   DefaultSequencePosition,
		BendRange:          Range{Lo: -1, Hi: 1},
		BPMRange:           Range{Lo: 0, Hi: math.MaxFloat32},
		AftertouchRange:    Range{Lo: 0, Hi: 1},
		RandRange:          Range{Lo: 0, Hi: 1},
		Trigger:            TriggerAttack,
		SustainCC:          DefaultSustainCC,
		SostenutoCC:        DefaultSostenutoCC,
		SustainThreshold:   DefaultPedalThreshold,
		SostenutoThreshold: DefaultPedalThreshold,
		CheckSustain:       true,
		CheckSostenuto:     true,
	}
}

// Validate reports configuration that can never trigger sensibly.
// It runs at load time; the event path never returns errors.
func (r *Region) Validate() error {
	if !r.KeyRange.Valid() {
		return fmt.Errorf("%w %q: key range %d..%d", ErrInvalidRegion, r.Name, r.KeyRange.Lo, r.KeyRange.Hi)
	}
	if !r.VelocityRange.Valid() {
		return fmt.Errorf("%w %q: velocity range inverted", ErrInvalidRegion, r.Name)
	}
	if r.SequenceLength < 1 {
		return fmt.Errorf("%w %q: sequence length %d", ErrInvalidRegion, r.Name, r.SequenceLength)
	}
	if r.SequencePosition < 0 || r.SequencePosition >= r.SequenceLength {
		return fmt.Errorf("%w %q: sequence position %d outside length %d", ErrInvalidRegion, r.Name, r.SequencePosition+1, r.SequenceLength)
	}
	if r.KeyswitchRange != nil && !r.KeyswitchRange.Valid() {
		return fmt.Errorf("%w %q: keyswitch range inverted", ErrInvalidRegion, r.Name)
	}
	for cc := range r.CCConditions {
		if cc < 0 || cc >= NumCCs {
			return fmt.Errorf("%w %q: controller %d out of range", ErrInvalidRegion, r.Name, cc)
		}
	}
	for cc := range r.CCTriggers {
		if cc < 0 || cc >= NumCCs {
			return fmt.Errorf("%w %q: trigger controller %d out of range", ErrInvalidRegion, r.Name, cc)
		}
	}
	switch r.Trigger {
	case TriggerAttack, TriggerRelease, TriggerReleaseKey, TriggerFirst, TriggerLegato:
	default:
		return fmt.Errorf("%w %q: unknown trigger %q", ErrInvalidRegion, r.Name, r.Trigger)
	}
	return nil
}

// UsesKeyswitches is true when a latched keyswitch gates the region
func (r *Region) UsesKeyswitches() bool {
	return r.KeyswitchRange != nil && r.LastKeyswitch != nil
}

// IsKeyswitch reports whether note falls in the keyswitch range
func (r *Region) IsKeyswitch(note int) bool {
	return r.KeyswitchRange != nil && r.KeyswitchRange.Contains(note)
}

// KeyswitchDefault is the latch state before any keyswitch is played
func (r *Region) KeyswitchDefault() bool {
	if !r.UsesKeyswitches() {
		return true
	}
	return r.DefaultKeyswitch != nil && *r.DefaultKeyswitch == *r.LastKeyswitch
}

// KeyswitchSelects reports the latch state after note is played in the keyswitch range
func (r *Region) KeyswitchSelects(note int) bool {
	if !r.UsesKeyswitches() {
		return true
	}
	return note == *r.LastKeyswitch
}

// InKeyRange is false for note numbers outside 0..127
func (r *Region) InKeyRange(note int) bool {
	if note < 0 || note > 127 {
		return false
	}
	return r.KeyRange.Contains(note)
}

// InPlayableRange tests key and velocity. Keyswitch notes outside the key
// range never play; one inside it both latches and plays.
func (r *Region) InPlayableRange(note int, velocity float32) bool {
	return r.InKeyRange(note) && r.VelocityRange.ContainsWithEnd(velocity)
}

// RandomMatches tests rand against [lorand, hirand); hirand >= 1 includes 1
func (r *Region) RandomMatches(rand float32) bool {
	if r.RandRange.Contains(rand) {
		return true
	}
	return rand >= 1 && r.RandRange.Hi >= 1 && rand <= r.RandRange.Hi
}

// GatesCC reports whether cc is a condition or a trigger of the region
func (r *Region) GatesCC(cc int) bool {
	if _, ok := r.CCConditions[cc]; ok {
		return true
	}
	_, ok := r.CCTriggers[cc]
	return ok
}

// CCConditionMatches is true for ungated controllers
func (r *Region) CCConditionMatches(cc int, value float32) bool {
	cond, ok := r.CCConditions[cc]
	if !ok {
		return true
	}
	return cond.ContainsWithEnd(value)
}

// CCTriggerMatches is false for controllers without a trigger range
func (r *Region) CCTriggerMatches(cc int, value float32) bool {
	trig, ok := r.CCTriggers[cc]
	if !ok {
		return false
	}
	return trig.ContainsWithEnd(value)
}

// TriggersOnNote is true for regions started by a note-on
func (r *Region) TriggersOnNote() bool {
	switch r.Trigger {
	case TriggerAttack, TriggerFirst, TriggerLegato:
		return true
	}
	return false
}

// TriggersOnRelease is true for regions started by a note-off
func (r *Region) TriggersOnRelease() bool {
	return r.Trigger == TriggerRelease || r.Trigger == TriggerReleaseKey
}

// IsSustainCC and IsSostenutoCC report pedal controllers the region listens to
func (r *Region) IsSustainCC(cc int) bool {
	return r.CheckSustain && cc == r.SustainCC
}

func (r *Region) IsSostenutoCC(cc int) bool {
	return r.CheckSostenuto && cc == r.SostenutoCC
}

// Release drops the condition tables of a region owned by a layer
func (r *Region) Release() {
	r.CCConditions = nil
	r.CCTriggers = nil
	r.KeyswitchRange = nil
	r.LastKeyswitch = nil
	r.DefaultKeyswitch = nil
}
