package layer

// maxDelayedReleases is one entry per note number; each list holds a note at most once
const maxDelayedReleases = 128

// NoteRelease is a note-off held back by a pedal
type NoteRelease struct {
	Note     int
	Velocity float32
}

func (l *Layer) SustainPressed() bool {
	return l.sustainPressed
}

func (l *Layer) SostenutoPressed() bool {
	return l.sostenutoPressed
}

// DelaySustainRelease queues a note-off until the sustain pedal lifts.
// A note is held at most once; a repeated call updates its velocity.
func (l *Layer) DelaySustainRelease(note int, velocity float32) {
	l.delayedSustainReleases = delayRelease(l.delayedSustainReleases, note, velocity)
}

// DelaySostenutoRelease queues a note-off until the sostenuto pedal lifts.
// A note is held at most once; a repeated call updates its velocity.
func (l *Layer) DelaySostenutoRelease(note int, velocity float32) {
	l.delayedSostenutoReleases = delayRelease(l.delayedSostenutoReleases, note, velocity)
}

func delayRelease(list []NoteRelease, note int, velocity float32) []NoteRelease {
	for i := range list {
		if list[i].Note == note {
			list[i].Velocity = velocity
			return list
		}
	}
	return append(list, NoteRelease{Note: note, Velocity: velocity})
}

// StoreSostenutoNotes snapshots every held note in the key range. It is
// called when the sostenuto pedal goes down.
func (l *Layer) StoreSostenutoNotes() {
	l.delayedSostenutoReleases = l.delayedSostenutoReleases[:0]

	lo, hi := l.region.KeyRange.Lo, l.region.KeyRange.Hi
	lo = max(lo, 0)
	hi = min(hi, 127)
	for note := lo; note <= hi; note++ {
		if l.state.IsNotePressed(note) {
			l.DelaySostenutoRelease(note, l.state.NoteVelocity(note))
		}
	}
}

// RemoveFromSostenutoReleases drops every entry for note
func (l *Layer) RemoveFromSostenutoReleases(note int) {
	keep := l.delayedSostenutoReleases[:0]
	for _, rel := range l.delayedSostenutoReleases {
		if rel.Note != note {
			keep = append(keep, rel)
		}
	}
	l.delayedSostenutoReleases = keep
}

func (l *Layer) IsNoteSustained(note int) bool {
	for _, rel := range l.delayedSustainReleases {
		if rel.Note == note {
			return true
		}
	}
	return false
}

func (l *Layer) IsNoteSostenutoed(note int) bool {
	for _, rel := range l.delayedSostenutoReleases {
		if rel.Note == note {
			return true
		}
	}
	return false
}

// SustainReleases returns a copy of the pending sustain releases in order
func (l *Layer) SustainReleases() []NoteRelease {
	return append([]NoteRelease(nil), l.delayedSustainReleases...)
}

// SostenutoReleases returns a copy of the pending sostenuto releases in order
func (l *Layer) SostenutoReleases() []NoteRelease {
	return append([]NoteRelease(nil), l.delayedSostenutoReleases...)
}

// TakeSustainReleases empties the sustain list and returns what it held
func (l *Layer) TakeSustainReleases() []NoteRelease {
	out := l.SustainReleases()
	l.delayedSustainReleases = l.delayedSustainReleases[:0]
	return out
}

// TakeSostenutoReleases empties the sostenuto list and returns what it held
func (l *Layer) TakeSostenutoReleases() []NoteRelease {
	out := l.SostenutoReleases()
	l.delayedSostenutoReleases = l.delayedSostenutoReleases[:0]
	return out
}
