package engine

import "go-sampler/layer"

// Status is a consistent copy of the instrument for the monitor
type Status struct {
	Name       string
	Layers     []layer.Status
	Pressed    []int
	BPM        float32
	Pitch      float32
	Aftertouch float32
	Events     int
	Triggers   int
	Recent     []Trigger
}

// Snapshot copies the instrument state between two events
func (in *Instrument) Snapshot() Status {
	in.mu.Lock()
	defer in.mu.Unlock()

	s := Status{
		Name:       in.name,
		Pressed:    in.state.PressedNotes(),
		BPM:        in.state.BPM(),
		Pitch:      in.state.Pitch(),
		Aftertouch: in.state.AftertouchValue(),
		Events:     in.events,
		Triggers:   in.triggers,
		Recent:     append([]Trigger(nil), in.recent...),
	}
	for _, l := range in.layers {
		s.Layers = append(s.Layers, l.Snapshot())
	}
	return s
}
