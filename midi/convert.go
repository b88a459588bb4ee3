package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// FromMessage decodes the channel messages the instrument cares about.
// A note-on with velocity 0 is reported as a note-off.
func FromMessage(msg gomidi.Message) (Event, bool) {
	var channel, key, velocity, controller, value, pressure uint8
	var relative int16
	var absolute uint16

	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		return NoteOnEvent(channel, key, velocity), true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return NoteOffEvent(channel, key, velocity), true
	case msg.GetNoteOn(&channel, &key, &velocity):
		return NoteOffEvent(channel, key, 0), true
	case msg.GetControlChange(&channel, &controller, &value):
		return CCEvent(channel, controller, value), true
	case msg.GetPitchBend(&channel, &relative, &absolute):
		return PitchBendEvent(channel, relative), true
	case msg.GetAfterTouch(&channel, &pressure):
		return AftertouchEvent(channel, pressure), true
	}
	return Event{}, false
}
