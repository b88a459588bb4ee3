package midi

import (
	"fmt"
	"time"
)

// MIDI message types
const (
	NoteOn     uint8 = 0x90
	NoteOff    uint8 = 0x80
	CC         uint8 = 0xB0
	Aftertouch uint8 = 0xD0
	PitchBend  uint8 = 0xE0
	Tempo      uint8 = 0xFF // set tempo meta event, only from SMF replay
)

// Event is a performance event delivered to the instrument
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC, Aftertouch, PitchBend, Tempo
	Channel  uint8
	Note     uint8 // note number, or controller number for CC
	Velocity uint8 // velocity, controller value, or pressure
	Bend     int16 // -8192..8191, PitchBend only

	SecondsPerQuarter float64       // Tempo only
	Time              time.Duration // offset from the start of a replayed file
}

func NoteOnEvent(channel, note, velocity uint8) Event {
	return Event{Type: NoteOn, Channel: channel, Note: note, Velocity: velocity}
}

func NoteOffEvent(channel, note, velocity uint8) Event {
	return Event{Type: NoteOff, Channel: channel, Note: note, Velocity: velocity}
}

func CCEvent(channel, controller, value uint8) Event {
	return Event{Type: CC, Channel: channel, Note: controller, Velocity: value}
}

func AftertouchEvent(channel, pressure uint8) Event {
	return Event{Type: Aftertouch, Channel: channel, Velocity: pressure}
}

func PitchBendEvent(channel uint8, bend int16) Event {
	return Event{Type: PitchBend, Channel: channel, Bend: bend}
}

func TempoEvent(secondsPerQuarter float64) Event {
	return Event{Type: Tempo, SecondsPerQuarter: secondsPerQuarter}
}

// Value normalizes Velocity (velocity, controller value, pressure) to 0..1
func (e Event) Value() float32 {
	return float32(e.Velocity&0x7F) / 127
}

// NormBend normalizes Bend to -1..1
func (e Event) NormBend() float32 {
	if e.Bend < 0 {
		return max(float32(e.Bend)/8192, -1)
	}
	return min(float32(e.Bend)/8191, 1)
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("note-on  ch%d %3d vel %3d", e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("note-off ch%d %3d vel %3d", e.Channel, e.Note, e.Velocity)
	case CC:
		return fmt.Sprintf("cc       ch%d %3d val %3d", e.Channel, e.Note, e.Velocity)
	case Aftertouch:
		return fmt.Sprintf("pressure ch%d %3d", e.Channel, e.Velocity)
	case PitchBend:
		return fmt.Sprintf("bend     ch%d %5d", e.Channel, e.Bend)
	case Tempo:
		return fmt.Sprintf("tempo    %.1f bpm", 60/e.SecondsPerQuarter)
	}
	return fmt.Sprintf("unknown 0x%02X", e.Type)
}
