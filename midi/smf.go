package midi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

var ErrUnsupportedTimeFormat = errors.New("unsupported SMF time format")

type timedMessage struct {
	ticks uint64
	track int
	index int
	msg   smf.Message
}

// ReadSMF merges every track of a Standard MIDI File into one ordered list
// of events. Set-tempo meta events become Tempo events and drive Time.
func ReadSMF(r io.Reader) ([]Event, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("read smf: %w", err)
	}

	ticksFormat, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedTimeFormat, s.TimeFormat)
	}
	if ticksFormat.Resolution() == 0 {
		return nil, fmt.Errorf("%w: zero resolution", ErrUnsupportedTimeFormat)
	}

	var all []timedMessage
	for trackIdx, track := range s.Tracks {
		var abs uint64
		for i, ev := range track {
			abs += uint64(ev.Delta)
			all = append(all, timedMessage{ticks: abs, track: trackIdx, index: i, msg: ev.Message})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].ticks != all[j].ticks {
			return all[i].ticks < all[j].ticks
		}
		if all[i].track != all[j].track {
			return all[i].track < all[j].track
		}
		return all[i].index < all[j].index
	})

	var events []Event
	for _, tm := range all {
		// TimeAt follows every tempo change in the file
		at := time.Duration(s.TimeAt(int64(tm.ticks))) * time.Microsecond

		var bpm float64
		if tm.msg.GetMetaTempo(&bpm) {
			if bpm <= 0 {
				continue
			}
			ev := TempoEvent(60 / bpm)
			ev.Time = at
			events = append(events, ev)
			continue
		}

		ev, ok := FromMessage(gomidi.Message(tm.msg))
		if !ok {
			continue
		}
		ev.Time = at
		events = append(events, ev)
	}
	return events, nil
}

// ReadSMFFile opens path and reads it with ReadSMF
func ReadSMFFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSMF(f)
}
