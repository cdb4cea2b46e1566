package rotation

import (
	"fmt"
	"time"

	"github.com/clambin/ledrotator/internal/board"
	"github.com/clambin/ledrotator/internal/rtos"
	log "github.com/sirupsen/logrus"
)

// RegisterToken creates the red, green and blue LED tasks, all at Base priority. Instead of changing priorities,
// an actor that completes its cycle sends a notification (the token) to its successor and waits for the token
// to come back around. Red holds the token when the scheduler starts.
func RegisterToken(s *rtos.Scheduler, b board.Board, hold time.Duration, logger *log.Entry) (*Ring, error) {
	r := newRing(s, b, hold, logger)
	r.start = r.awaitToken
	r.pass = r.passToken
	if err := r.register(func(board.Color) rtos.Priority { return Base }); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Ring) awaitToken(t *rtos.Task, c board.Color) error {
	if c == board.Red {
		return nil
	}
	return t.WaitNotify()
}

func (r *Ring) passToken(t *rtos.Task, completed board.Color) error {
	next, err := Successor(completed)
	if err != nil {
		return err
	}
	if err = t.Notify(r.actors[next].handle); err != nil {
		return fmt.Errorf("handoff %s -> %s: %w", completed, next, err)
	}
	r.handoffs.Add(1)
	return t.WaitNotify()
}
