package board

import (
	"sync"
	"time"
)

// Event records one LED transition
type Event struct {
	At    time.Time
	Color Color
	On    bool
}

// Recorder is an in-memory board. It records every LED transition.
type Recorder struct {
	// OnChange, if set, is called for every transition, after it has been recorded
	OnChange func(Event)
	// MaxEvents, if set, limits the number of recorded transitions to the most recent ones
	MaxEvents int
	events    []Event
	states    [ColorCount]bool
	lock      sync.RWMutex
}

var _ Board = &Recorder{}
var _ Reader = &Recorder{}

// SetLED switches a LED on or off
func (r *Recorder) SetLED(color Color, on bool) error {
	if err := checkColor(color); err != nil {
		return err
	}
	e := Event{At: time.Now(), Color: color, On: on}
	r.lock.Lock()
	r.states[color] = on
	r.events = append(r.events, e)
	if r.MaxEvents > 0 && len(r.events) > r.MaxEvents {
		r.events = r.events[len(r.events)-r.MaxEvents:]
	}
	r.lock.Unlock()
	if r.OnChange != nil {
		r.OnChange(e)
	}
	return nil
}

// ClearAll switches off all LEDs
func (r *Recorder) ClearAll() error {
	return clearAll(r)
}

// LED reports if a LED is on
func (r *Recorder) LED(color Color) (bool, error) {
	if err := checkColor(color); err != nil {
		return false, err
	}
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.states[color], nil
}

// Events returns all recorded transitions
func (r *Recorder) Events() []Event {
	r.lock.RLock()
	defer r.lock.RUnlock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events
}
