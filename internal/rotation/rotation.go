// Package rotation blinks the red, green and blue LEDs in turn, using one task per LED. The tasks share a single
// task body. Which task runs next is decided by the scheduler alone: when a task finishes its cycle, it raises
// its successor to Elevated priority and lowers the others (itself included) to Base priority.
package rotation

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/clambin/ledrotator/internal/board"
	"github.com/clambin/ledrotator/internal/rtos"
	log "github.com/sirupsen/logrus"
)

const (
	Base     = rtos.IdlePriority + 1
	Elevated = rtos.IdlePriority + 2
)

var (
	ErrUnknownActor     = errors.New("unknown actor")
	ErrNoSingleElevated = errors.New("not exactly one actor is elevated")
)

// Successor returns the actor that takes over once c completes its cycle: red → green → blue → red.
func Successor(c board.Color) (board.Color, error) {
	if !c.Valid() {
		return c, fmt.Errorf("%w: %s", ErrUnknownActor, c)
	}
	return (c + 1) % board.ColorCount, nil
}

type actor struct {
	handle rtos.Handle
	color  board.Color
}

// Ring holds the three LED actors, indexed by color
type Ring struct {
	scheduler *rtos.Scheduler
	board     board.Board
	logger    *log.Entry
	start     func(t *rtos.Task, c board.Color) error
	pass      func(t *rtos.Task, completed board.Color) error
	actors    [board.ColorCount]actor
	hold      time.Duration
	handoffs  atomic.Int64
	active    atomic.Int32
}

// Register creates the red, green and blue LED tasks. Red starts out Elevated, so it runs first once the scheduler starts.
// hold is the time the LED stays on, and then off, during one cycle.
func Register(s *rtos.Scheduler, b board.Board, hold time.Duration, logger *log.Entry) (*Ring, error) {
	r := newRing(s, b, hold, logger)
	r.pass = r.Handoff
	err := r.register(func(c board.Color) rtos.Priority {
		if c == board.Red {
			return Elevated
		}
		return Base
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newRing(s *rtos.Scheduler, b board.Board, hold time.Duration, logger *log.Entry) *Ring {
	r := Ring{
		scheduler: s,
		board:     b,
		hold:      hold,
		logger:    logger,
		start:     func(*rtos.Task, board.Color) error { return nil },
	}
	r.active.Store(-1)
	return &r
}

func (r *Ring) register(priority func(board.Color) rtos.Priority) error {
	for _, c := range board.Colors {
		h, err := r.scheduler.CreateTask(r.blink, c.String()+" LED Task", priority(c))
		if err != nil {
			return fmt.Errorf("create %s actor: %w", c, err)
		}
		r.actors[c] = actor{handle: h, color: c}
	}
	return nil
}

// Handle returns the task handle of the actor for color c
func (r *Ring) Handle(c board.Color) (rtos.Handle, error) {
	if !c.Valid() {
		return rtos.Handle{}, fmt.Errorf("%w: %s", ErrUnknownActor, c)
	}
	return r.actors[c].handle, nil
}

// Handoff passes control from the completed actor to its successor. Inside one critical section,
// the successor is set to Elevated and the two others to Base. t is the calling task.
func (r *Ring) Handoff(t *rtos.Task, completed board.Color) error {
	next, err := Successor(completed)
	if err != nil {
		return err
	}

	t.EnterCritical()
	for i := 0; i < board.ColorCount && err == nil; i++ {
		a := r.actors[(int(next)+i)%board.ColorCount]
		priority := Base
		if a.color == next {
			priority = Elevated
		}
		err = t.SetPriority(a.handle, priority)
	}
	if err == nil {
		r.handoffs.Add(1)
	}
	if exitErr := t.ExitCritical(); err == nil {
		err = exitErr
	}

	if err != nil {
		return fmt.Errorf("handoff %s -> %s: %w", completed, next, err)
	}
	return nil
}

// blink is the task body shared by all actors: switch the LED on and off, then hand off to the next actor.
func (r *Ring) blink(t *rtos.Task) error {
	c, err := r.colorOf(t.Handle())
	if err != nil {
		return err
	}
	r.logger.WithField("actor", c).Debug("actor started")
	if err = r.start(t, c); err != nil {
		return err
	}
	for {
		if err = r.cycle(t, c); err == nil {
			err = r.pass(t, c)
		}
		if err != nil {
			return err
		}
	}
}

// cycle switches the LED on, then off. The LED's state is held with a busy wait, so no other actor runs meanwhile.
func (r *Ring) cycle(t *rtos.Task, c board.Color) error {
	r.active.Store(int32(c))
	for _, on := range []bool{true, false} {
		if err := r.board.SetLED(c, on); err != nil {
			return err
		}
		if err := t.Busy(r.hold); err != nil {
			return err
		}
	}
	return nil
}

func (r *Ring) colorOf(h rtos.Handle) (board.Color, error) {
	for _, a := range r.actors {
		if a.handle == h {
			return a.color, nil
		}
	}
	return 0, ErrUnknownActor
}

// Active returns the actor that is currently running its on/off cycle. Before the first cycle starts, ok is false.
func (r *Ring) Active() (c board.Color, ok bool) {
	active := r.active.Load()
	return board.Color(active), active >= 0
}

// Priorities returns the current priority of each actor. If a handoff was underway, consistent is false.
func (r *Ring) Priorities() (priorities [board.ColorCount]rtos.Priority, consistent bool) {
	snapshot := r.scheduler.Snapshot()
	for _, info := range snapshot.Tasks {
		if c, err := r.colorOf(info.Handle); err == nil {
			priorities[c] = info.Priority
		}
	}
	return priorities, !snapshot.Critical
}

// Elevated returns the actor that currently holds Elevated priority
func (r *Ring) Elevated() (board.Color, error) {
	priorities, consistent := r.Priorities()
	if !consistent {
		return 0, fmt.Errorf("%w: handoff in progress", ErrNoSingleElevated)
	}
	var elevated []board.Color
	for _, c := range board.Colors {
		if priorities[c] == Elevated {
			elevated = append(elevated, c)
		}
	}
	if len(elevated) != 1 {
		return 0, fmt.Errorf("%w: %v", ErrNoSingleElevated, elevated)
	}
	return elevated[0], nil
}
