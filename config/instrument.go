package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"go-sampler/region"
)

var ErrNoRegions = errors.New("instrument has no regions")

// RegionDefinition uses SFZ opcode names and MIDI units (0-127 for keys,
// velocities, controllers and pressure, -8192..8192 for bend, BPM for tempo).
// Unset fields fall back to the instrument defaults, then to region.New.
type RegionDefinition struct {
	Name string `yaml:"name,omitempty"`

	Key   *int `yaml:"key,omitempty"`
	LoKey *int `yaml:"lokey,omitempty"`
	HiKey *int `yaml:"hikey,omitempty"`
	LoVel *int `yaml:"lovel,omitempty"`
	HiVel *int `yaml:"hivel,omitempty"`

	LoCC   map[int]int `yaml:"locc,omitempty"`
	HiCC   map[int]int `yaml:"hicc,omitempty"`
	OnLoCC map[int]int `yaml:"on_locc,omitempty"`
	OnHiCC map[int]int `yaml:"on_hicc,omitempty"`

	SwLoKey   *int `yaml:"sw_lokey,omitempty"`
	SwHiKey   *int `yaml:"sw_hikey,omitempty"`
	SwLast    *int `yaml:"sw_last,omitempty"`
	SwDefault *int `yaml:"sw_default,omitempty"`

	SeqLength   *int `yaml:"seq_length,omitempty"`
	SeqPosition *int `yaml:"seq_position,omitempty"` // 1-based

	LoBend    *int     `yaml:"lobend,omitempty"`
	HiBend    *int     `yaml:"hibend,omitempty"`
	LoBPM     *float32 `yaml:"lobpm,omitempty"`
	HiBPM     *float32 `yaml:"hibpm,omitempty"`
	LoChanAft *int     `yaml:"lochanaft,omitempty"`
	HiChanAft *int     `yaml:"hichanaft,omitempty"`
	LoRand    *float32 `yaml:"lorand,omitempty"`
	HiRand    *float32 `yaml:"hirand,omitempty"`

	Trigger *string `yaml:"trigger,omitempty"`

	SustainCC   *int  `yaml:"sustain_cc,omitempty"`
	SostenutoCC *int  `yaml:"sostenuto_cc,omitempty"`
	SustainLo   *int  `yaml:"sustain_lo,omitempty"`
	SostenutoLo *int  `yaml:"sostenuto_lo,omitempty"`
	SustainSw   *bool `yaml:"sustain_sw,omitempty"`
	SostenutoSw *bool `yaml:"sostenuto_sw,omitempty"`
}

// Instrument is the on-disk description of a set of regions
type Instrument struct {
	Name     string             `yaml:"name"`
	Defaults RegionDefinition   `yaml:"defaults,omitempty"`
	Regions  []RegionDefinition `yaml:"regions"`
}

// LoadInstrument reads a YAML instrument definition
func LoadInstrument(path string) (*Instrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instrument: %w", err)
	}
	inst, err := ParseInstrument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

// ParseInstrument decodes and validates a YAML instrument definition
func ParseInstrument(data []byte) (*Instrument, error) {
	var inst Instrument
	if err := yaml.UnmarshalStrict(data, &inst); err != nil {
		return nil, fmt.Errorf("parse instrument: %w", err)
	}
	if len(inst.Regions) == 0 {
		return nil, ErrNoRegions
	}
	if _, err := inst.BuildRegions(); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Marshal encodes the instrument back to YAML
func (inst *Instrument) Marshal() ([]byte, error) {
	return yaml.Marshal(inst)
}

// BuildRegions converts every definition into a validated region
func (inst *Instrument) BuildRegions() ([]*region.Region, error) {
	regions := make([]*region.Region, 0, len(inst.Regions))
	for i, def := range inst.Regions {
		r := region.New()
		inst.Defaults.apply(r)
		def.apply(r)
		if r.Name == "" {
			r.Name = fmt.Sprintf("region %d", i+1)
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

func midiUnit(v int) float32 {
	return float32(v) / 127
}

func bendUnit(v int) float32 {
	if v < 0 {
		return max(float32(v)/8192, -1)
	}
	return min(float32(v)/8191, 1)
}

func (d *RegionDefinition) apply(r *region.Region) {
	if d.Name != "" {
		r.Name = d.Name
	}

	if d.Key != nil {
		r.KeyRange = region.IntRange{Lo: *d.Key, Hi: *d.Key}
	}
	if d.LoKey != nil {
		r.KeyRange.Lo = *d.LoKey
	}
	if d.HiKey != nil {
		r.KeyRange.Hi = *d.HiKey
	}
	if d.LoVel != nil {
		r.VelocityRange.Lo = midiUnit(*d.LoVel)
	}
	if d.HiVel != nil {
		r.VelocityRange.Hi = midiUnit(*d.HiVel)
	}

	applyCCRanges(r.CCConditions, d.LoCC, d.HiCC)
	applyCCRanges(r.CCTriggers, d.OnLoCC, d.OnHiCC)

	if d.SwLast != nil {
		last := *d.SwLast
		r.LastKeyswitch = &last
		if r.KeyswitchRange == nil {
			r.KeyswitchRange = &region.IntRange{Lo: last, Hi: last}
		}
	}
	if d.SwLoKey != nil || d.SwHiKey != nil {
		ks := region.IntRange{Lo: 0, Hi: 127}
		if r.KeyswitchRange != nil {
			ks = *r.KeyswitchRange
		}
		if d.SwLoKey != nil {
			ks.Lo = *d.SwLoKey
		}
		if d.SwHiKey != nil {
			ks.Hi = *d.SwHiKey
		}
		r.KeyswitchRange = &ks
	}
	if d.SwDefault != nil {
		def := *d.SwDefault
		r.DefaultKeyswitch = &def
	}

	if d.SeqLength != nil {
		r.SequenceLength = *d.SeqLength
	}
	if d.SeqPosition != nil {
		r.SequencePosition = *d.SeqPosition - 1
	}

	if d.LoBend != nil {
		r.BendRange.Lo = bendUnit(*d.LoBend)
	}
	if d.HiBend != nil {
		r.BendRange.Hi = bendUnit(*d.HiBend)
	}
	if d.LoBPM != nil {
		r.BPMRange.Lo = *d.LoBPM
	}
	if d.HiBPM != nil {
		r.BPMRange.Hi = *d.HiBPM
	}
	if d.LoChanAft != nil {
		r.AftertouchRange.Lo = midiUnit(*d.LoChanAft)
	}
	if d.HiChanAft != nil {
		r.AftertouchRange.Hi = midiUnit(*d.HiChanAft)
	}
	if d.LoRand != nil {
		r.RandRange.Lo = *d.LoRand
	}
	if d.HiRand != nil {
		r.RandRange.Hi = *d.HiRand
	}

	if d.Trigger != nil {
		r.Trigger = region.Trigger(*d.Trigger)
	}

	if d.SustainCC != nil {
		r.SustainCC = *d.SustainCC
	}
	if d.SostenutoCC != nil {
		r.SostenutoCC = *d.SostenutoCC
	}
	if d.SustainLo != nil {
		r.SustainThreshold = midiUnit(*d.SustainLo)
	}
	if d.SostenutoLo != nil {
		r.SostenutoThreshold = midiUnit(*d.SostenutoLo)
	}
	if d.SustainSw != nil {
		r.CheckSustain = *d.SustainSw
	}
	if d.SostenutoSw != nil {
		r.CheckSostenuto = *d.SostenutoSw
	}
}

// applyCCRanges merges lo/hi maps; a missing bound defaults to 0 or 127
func applyCCRanges(dst map[int]region.Range, lo, hi map[int]int) {
	for cc, v := range lo {
		rng, ok := dst[cc]
		if !ok {
			rng = region.Range{Lo: 0, Hi: 1}
		}
		rng.Lo = midiUnit(v)
		dst[cc] = rng
	}
	for cc, v := range hi {
		rng, ok := dst[cc]
		if !ok {
			rng = region.Range{Lo: 0, Hi: 1}
		}
		rng.Hi = midiUnit(v)
		dst[cc] = rng
	}
}
