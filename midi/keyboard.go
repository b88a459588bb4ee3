package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-sampler/debug"
)

// KeyboardController forwards every channel message of an input port
type KeyboardController struct {
	id       string
	channel  int // -1 accepts all channels
	inPort   drivers.In
	stopFunc func()

	mu        sync.Mutex
	closed    bool
	eventChan chan Event
}

// NewKeyboardController opens inPort. channel filters to one MIDI channel
// (0-15); pass -1 for omni.
func NewKeyboardController(id string, inPort drivers.In, channel int) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:        id,
		channel:   channel,
		inPort:    inPort,
		eventChan: make(chan Event, 256),
	}

	// Open input
	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, kb.handle)
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", id, err)
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

func (kb *KeyboardController) handle(msg gomidi.Message, timestampms int32) {
	ev, ok := FromMessage(msg)
	if !ok {
		return
	}
	if kb.channel >= 0 && int(ev.Channel) != kb.channel {
		return
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return
	}
	select {
	case kb.eventChan <- ev:
	default:
		debug.LogEvery(32, "midi", "%s: event buffer full, dropping %s", kb.id, ev)
	}
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) Type() ControllerType {
	return ControllerKeyboard
}

func (kb *KeyboardController) Events() <-chan Event {
	return kb.eventChan
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if !kb.closed {
		kb.closed = true
		close(kb.eventChan)
	}
	return nil
}
