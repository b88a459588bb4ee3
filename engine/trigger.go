package engine

import "fmt"

// TriggerKind says what the voice subsystem should do with a trigger
type TriggerKind int

const (
	TriggerAttack       TriggerKind = iota // start a voice on note-on
	TriggerRelease                         // start a release-trigger voice
	TriggerCC                              // start a voice from a controller trigger
	TriggerVoiceRelease                    // let the voices of a note go
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerAttack:
		return "attack"
	case TriggerRelease:
		return "release"
	case TriggerCC:
		return "cc"
	case TriggerVoiceRelease:
		return "voice-off"
	}
	return fmt.Sprintf("TriggerKind(%d)", int(k))
}

// Trigger is one decision for one layer
type Trigger struct {
	Kind     TriggerKind
	Layer    int
	Region   string
	Note     int     // note number, or controller number for TriggerCC
	Velocity float32 // velocity, or controller value for TriggerCC
}

func (t Trigger) String() string {
	return fmt.Sprintf("%-9s layer %2d %-16q note %3d vel %.2f", t.Kind, t.Layer, t.Region, t.Note, t.Velocity)
}
