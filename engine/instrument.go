// Package engine dispatches performance events to the layers of an
// instrument and collects their trigger decisions.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-sampler/config"
	"go-sampler/debug"
	"go-sampler/layer"
	"go-sampler/midi"
	"go-sampler/midistate"
	"go-sampler/region"
)

const recentTriggers = 8

// Options configures an instrument
type Options struct {
	Seed int64 // rand seed for lorand/hirand; 0 seeds from the clock
}

// Instrument owns the shared performance state and one layer per region.
// Dispatch serializes events, so layers always see them in order.
type Instrument struct {
	name   string
	state  *midistate.State
	layers []*layer.Layer
	rng    *rand.Rand

	mu       sync.Mutex
	events   int
	triggers int
	recent   []Trigger

	// Notify the monitor of updates
	UpdateChan chan struct{}
}

// New builds an instrument that takes ownership of regions
func New(name string, regions []*region.Region, opts Options) *Instrument {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	in := &Instrument{
		name:       name,
		state:      midistate.New(),
		rng:        rand.New(rand.NewSource(seed)),
		UpdateChan: make(chan struct{}, 1),
	}
	for _, r := range regions {
		in.layers = append(in.layers, layer.NewOwned(r, in.state))
	}
	return in
}

// FromDefinition builds an instrument from a parsed YAML definition
func FromDefinition(def *config.Instrument, opts Options) (*Instrument, error) {
	regions, err := def.BuildRegions()
	if err != nil {
		return nil, err
	}
	return New(def.Name, regions, opts), nil
}

func (in *Instrument) Name() string {
	return in.name
}

// Layer returns the layer at idx, or nil
func (in *Instrument) Layer(idx int) *layer.Layer {
	if idx >= 0 && idx < len(in.layers) {
		return in.layers[idx]
	}
	return nil
}

func (in *Instrument) NumLayers() int {
	return len(in.layers)
}

// State exposes the shared performance state for reading
func (in *Instrument) State() *midistate.State {
	return in.state
}

// Reset recalls the power-on state: controllers at rest and every layer
// reinitialized.
func (in *Instrument) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.state.Reset()
	for _, l := range in.layers {
		l.InitializeActivations()
	}
	in.recent = nil
	debug.Log("engine", "%s: reset %d layers", in.name, len(in.layers))
	in.notifyUpdate()
}

// Close releases every layer and the regions they own
func (in *Instrument) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, l := range in.layers {
		l.Close()
	}
	in.layers = nil
}

// Dispatch delivers one event to the shared state and every layer
func (in *Instrument) Dispatch(ev midi.Event) []Trigger {
	in.mu.Lock()
	defer in.mu.Unlock()

	var out []Trigger
	switch ev.Type {
	case midi.NoteOn:
		out = in.noteOn(int(ev.Note), ev.Value())
	case midi.NoteOff:
		out = in.noteOff(int(ev.Note), ev.Value())
	case midi.CC:
		out = in.controlChange(int(ev.Note), ev.Value())
	case midi.PitchBend:
		in.pitchBend(ev.NormBend())
	case midi.Aftertouch:
		in.aftertouch(ev.Value())
	case midi.Tempo:
		in.tempo(float32(ev.SecondsPerQuarter))
	default:
		return nil
	}

	in.events++
	in.record(out)
	in.notifyUpdate()
	return out
}

// DispatchAll feeds events in order and concatenates the triggers
func (in *Instrument) DispatchAll(events []midi.Event) []Trigger {
	var out []Trigger
	for _, ev := range events {
		out = append(out, in.Dispatch(ev)...)
	}
	return out
}

// Run dispatches events until ctx is done or events is closed, sending
// non-empty trigger batches to out when out is not nil.
func (in *Instrument) Run(ctx context.Context, events <-chan midi.Event, out chan<- []Trigger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			triggers := in.Dispatch(ev)
			if out == nil || len(triggers) == 0 {
				continue
			}
			select {
			case out <- triggers:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (in *Instrument) noteOn(note int, velocity float32) []Trigger {
	// Layers see the note as held, so first/legato can count it
	in.state.NoteOn(note, velocity)
	randValue := in.rng.Float32()

	var out []Trigger
	for i, l := range in.layers {
		if l.RegisterNoteOn(note, velocity, randValue) {
			out = append(out, in.trigger(TriggerAttack, i, note, velocity))
		}
		if l.KeyswitchChanged() {
			debug.Log("engine", "%s: keyswitch %d turned %q on=%v", in.name, note, l.Region().Name, l.KeySwitched())
		}
	}
	return out
}

func (in *Instrument) noteOff(note int, velocity float32) []Trigger {
	if velocity == 0 {
		velocity = in.state.NoteVelocity(note)
	}
	randValue := in.rng.Float32()
	wasPressed := in.state.IsNotePressed(note)

	var out []Trigger
	for i, l := range in.layers {
		if l.RegisterNoteOff(note, velocity, randValue) {
			out = append(out, in.trigger(TriggerRelease, i, note, velocity))
		}
		if !wasPressed || !l.Region().TriggersOnNote() || !l.Region().InKeyRange(note) {
			continue
		}
		if l.IsNoteSustained(note) || l.IsNoteSostenutoed(note) {
			continue
		}
		out = append(out, in.trigger(TriggerVoiceRelease, i, note, velocity))
	}

	// Layers see the note-off while the note still counts as sounding
	in.state.NoteOff(note)
	return out
}

func (in *Instrument) controlChange(cc int, value float32) []Trigger {
	in.state.CCEvent(cc, value)

	var out []Trigger
	for i, l := range in.layers {
		wasSustain, wasSostenuto := l.SustainPressed(), l.SostenutoPressed()

		if l.RegisterCC(cc, value) {
			out = append(out, in.trigger(TriggerCC, i, cc, value))
		}
		if wasSostenuto && !l.SostenutoPressed() {
			out = in.liftSostenuto(i, l, out)
		}
		if wasSustain && !l.SustainPressed() {
			out = in.liftSustain(i, l, out)
		}
	}
	return out
}

// liftSustain lets every delayed note-off through, except for keys that are
// held again or caught by sostenuto
func (in *Instrument) liftSustain(idx int, l *layer.Layer, out []Trigger) []Trigger {
	released := l.TakeSustainReleases()
	if len(released) > 0 {
		debug.Log("engine", "%s: sustain up on %q, %d delayed releases", in.name, l.Region().Name, len(released))
	}
	for _, rel := range released {
		if in.state.IsNotePressed(rel.Note) || l.IsNoteSostenutoed(rel.Note) {
			continue
		}
		out = in.release(idx, l, rel, out)
	}
	return out
}

// liftSostenuto releases captured notes, handing them to the sustain pedal
// if it is still down
func (in *Instrument) liftSostenuto(idx int, l *layer.Layer, out []Trigger) []Trigger {
	released := l.TakeSostenutoReleases()
	if len(released) > 0 {
		debug.Log("engine", "%s: sostenuto up on %q, %d held notes", in.name, l.Region().Name, len(released))
	}
	for _, rel := range released {
		if in.state.IsNotePressed(rel.Note) {
			continue
		}
		if l.SustainPressed() {
			l.DelaySustainRelease(rel.Note, rel.Velocity)
			continue
		}
		out = in.release(idx, l, rel, out)
	}
	return out
}

func (in *Instrument) release(idx int, l *layer.Layer, rel layer.NoteRelease, out []Trigger) []Trigger {
	if l.ReleaseTriggers(rel.Note, rel.Velocity, in.rng.Float32()) {
		out = append(out, in.trigger(TriggerRelease, idx, rel.Note, rel.Velocity))
	}
	if l.Region().TriggersOnNote() {
		out = append(out, in.trigger(TriggerVoiceRelease, idx, rel.Note, rel.Velocity))
	}
	return out
}

func (in *Instrument) pitchBend(pitch float32) {
	in.state.PitchBend(pitch)
	for _, l := range in.layers {
		l.RegisterPitchWheel(pitch)
	}
}

func (in *Instrument) aftertouch(value float32) {
	in.state.Aftertouch(value)
	for _, l := range in.layers {
		l.RegisterAftertouch(value)
	}
}

func (in *Instrument) tempo(secondsPerQuarter float32) {
	in.state.Tempo(secondsPerQuarter)
	for _, l := range in.layers {
		l.RegisterTempo(secondsPerQuarter)
	}
}

func (in *Instrument) trigger(kind TriggerKind, idx, note int, velocity float32) Trigger {
	t := Trigger{
		Kind:     kind,
		Layer:    idx,
		Region:   in.layers[idx].Region().Name,
		Note:     note,
		Velocity: velocity,
	}
	debug.Named("engine").Debug("trigger",
		zap.Stringer("kind", kind),
		zap.Int("layer", idx),
		zap.String("region", t.Region),
		zap.Int("note", note),
		zap.Float32("velocity", velocity),
	)
	return t
}

func (in *Instrument) record(triggers []Trigger) {
	in.triggers += len(triggers)
	in.recent = append(in.recent, triggers...)
	if n := len(in.recent); n > recentTriggers {
		in.recent = append(in.recent[:0:0], in.recent[n-recentTriggers:]...)
	}
}

// notifyUpdate notifies the monitor without blocking
func (in *Instrument) notifyUpdate() {
	select {
	case in.UpdateChan <- struct{}{}:
	default:
	}
}
