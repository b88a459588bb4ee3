package layer

// Status is a copy of a layer's gates for display
type Status struct {
	Name               string
	SwitchedOn         bool
	KeySwitched        bool
	SequenceSwitched   bool
	PitchSwitched      bool
	BPMSwitched        bool
	AftertouchSwitched bool
	CCSwitched         bool
	SequenceCounter    int
	SustainPressed     bool
	SostenutoPressed   bool
	Sustained          []int
	Sostenutoed        []int
}

// Snapshot copies the current gate and pedal state
func (l *Layer) Snapshot() Status {
	s := Status{
		Name:               l.region.Name,
		SwitchedOn:         l.IsSwitchedOn(),
		KeySwitched:        l.keySwitched,
		SequenceSwitched:   l.sequenceSwitched,
		PitchSwitched:      l.pitchSwitched,
		BPMSwitched:        l.bpmSwitched,
		AftertouchSwitched: l.aftertouchSwitched,
		CCSwitched:         l.ccSwitched.All(),
		SequenceCounter:    l.sequenceCounter,
		SustainPressed:     l.sustainPressed,
		SostenutoPressed:   l.sostenutoPressed,
	}
	for _, rel := range l.delayedSustainReleases {
		s.Sustained = append(s.Sustained, rel.Note)
	}
	for _, rel := range l.delayedSostenutoReleases {
		s.Sostenutoed = append(s.Sostenutoed, rel.Note)
	}
	return s
}
