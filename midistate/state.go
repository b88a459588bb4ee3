package midistate

import "sync"

const (
	NumNotes = 128
	NumCCs   = 128

	DefaultSecondsPerQuarter = 0.5 // 120 bpm
	minSecondsPerQuarter     = 0.001
)

// State is the session-wide store of the latest performance values.
// Layers only read it; the dispatcher is the single writer.
type State struct {
	mu sync.RWMutex

	notePressed  [NumNotes]bool
	noteVelocity [NumNotes]float32
	activeNotes  int

	cc                [NumCCs]float32
	pitch             float32
	aftertouch        float32
	secondsPerQuarter float32
}

// New creates a state with controllers at rest and 120 bpm
func New() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset returns every value to its power-on default
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notePressed = [NumNotes]bool{}
	s.noteVelocity = [NumNotes]float32{}
	s.activeNotes = 0
	s.cc = [NumCCs]float32{}
	s.pitch = 0
	s.aftertouch = 0
	s.secondsPerQuarter = DefaultSecondsPerQuarter
}

func validNote(note int) bool {
	return note >= 0 && note < NumNotes
}

// clamp reads NaN as 0, the rest value of every controller
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

// NoteOn records a pressed key and its velocity
func (s *State) NoteOn(note int, velocity float32) {
	if !validNote(note) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.notePressed[note] {
		s.activeNotes++
	}
	s.notePressed[note] = true
	s.noteVelocity[note] = clamp(velocity, 0, 1)
}

// NoteOff releases a key; the last velocity is kept for release triggers
func (s *State) NoteOff(note int) {
	if !validNote(note) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notePressed[note] {
		s.activeNotes--
	}
	s.notePressed[note] = false
}

// CCEvent stores a normalized controller value
func (s *State) CCEvent(cc int, value float32) {
	if cc < 0 || cc >= NumCCs {
		return
	}
	s.mu.Lock()
	s.cc[cc] = clamp(value, 0, 1)
	s.mu.Unlock()
}

// PitchBend stores a bend in -1..1
func (s *State) PitchBend(pitch float32) {
	s.mu.Lock()
	s.pitch = clamp(pitch, -1, 1)
	s.mu.Unlock()
}

// Aftertouch stores channel pressure in 0..1
func (s *State) Aftertouch(value float32) {
	s.mu.Lock()
	s.aftertouch = clamp(value, 0, 1)
	s.mu.Unlock()
}

// Tempo stores the quarter note duration in seconds
func (s *State) Tempo(secondsPerQuarter float32) {
	s.mu.Lock()
	s.secondsPerQuarter = ClampSecondsPerQuarter(secondsPerQuarter)
	s.mu.Unlock()
}

// ClampSecondsPerQuarter keeps tempo values strictly positive
func ClampSecondsPerQuarter(spq float32) float32 {
	if spq < minSecondsPerQuarter || spq != spq {
		return minSecondsPerQuarter
	}
	return spq
}

func (s *State) IsNotePressed(note int) bool {
	if !validNote(note) {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notePressed[note]
}

// NoteVelocity returns the velocity of the last note-on for note
func (s *State) NoteVelocity(note int) float32 {
	if !validNote(note) {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.noteVelocity[note]
}

func (s *State) ActiveNotes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeNotes
}

// PressedNotes lists held keys in ascending order
func (s *State) PressedNotes() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var notes []int
	for n, down := range s.notePressed {
		if down {
			notes = append(notes, n)
		}
	}
	return notes
}

func (s *State) CCValue(cc int) float32 {
	if cc < 0 || cc >= NumCCs {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cc[cc]
}

func (s *State) Pitch() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pitch
}

func (s *State) AftertouchValue() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aftertouch
}

func (s *State) SecondsPerQuarter() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secondsPerQuarter
}

// BPM converts the stored tempo to beats per minute
func (s *State) BPM() float32 {
	return 60 / s.SecondsPerQuarter()
}
