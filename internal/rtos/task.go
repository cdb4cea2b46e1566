package rtos

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

type taskState int

const (
	stateReady taskState = iota
	stateRunning
	stateDelayed
	stateNotifyWait
	stateDone
)

func (s taskState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateRunning:
		return "running"
	case stateDelayed:
		return "delayed"
	case stateNotifyWait:
		return "blocked"
	case stateDone:
		return "done"
	}
	return "unknown"
}

// Task is a unit of work scheduled by a Scheduler. A task's methods may only be called by the task itself,
// while it owns the CPU.
type Task struct {
	scheduler  *Scheduler
	fn         TaskFunc
	wake       chan struct{}
	wakeAt     time.Time
	name       string
	priority   Priority
	state      taskState
	index      int
	notified   int
	dispatches int
}

func (t *Task) runnable() bool {
	return t.state == stateReady || t.state == stateRunning
}

func (t *Task) wait() error {
	select {
	case <-t.wake:
		return nil
	case <-t.scheduler.stopped:
		return ErrStopped
	}
}

// Name returns the name of the task
func (t *Task) Name() string {
	return t.name
}

// Handle returns the task's handle
func (t *Task) Handle() Handle {
	return Handle{owner: t.scheduler, index: t.index}
}

// SetPriority changes the priority of the task addressed by h (which may be the calling task itself).
// If, as a result, another task outranks the caller, the caller is preempted, unless it's inside a critical
// section. In that case, the switch happens when the critical section ends.
func (t *Task) SetPriority(h Handle, priority Priority) error {
	s := t.scheduler
	s.lock.Lock()
	if err := s.checkRunning(t); err != nil {
		s.lock.Unlock()
		return err
	}
	target, err := s.lookup(h)
	if err == nil {
		err = s.validatePriority(priority)
	}
	if err != nil {
		s.lock.Unlock()
		return err
	}
	if target.priority != priority {
		s.logger.WithFields(log.Fields{"task": target.name, "from": target.priority, "to": priority}).Debug("priority set")
	}
	target.priority = priority
	s.lock.Unlock()
	return s.preempt(t)
}

// Delay suspends the task for the given number of ticks. The CPU is handed to other tasks in the meantime.
// A zero delay yields the CPU to any other ready task of the same priority.
func (t *Task) Delay(ticks uint32) error {
	if ticks == 0 {
		return t.Yield()
	}
	s := t.scheduler
	s.lock.Lock()
	if err := s.checkRunning(t); err != nil {
		s.lock.Unlock()
		return err
	}
	if s.critical > 0 {
		s.lock.Unlock()
		return ErrInCritical
	}
	t.state = stateDelayed
	t.wakeAt = time.Now().Add(ticksToDuration(ticks, s.tick))
	return s.block(t)
}

// ticksToDuration converts ticks to a duration, saturating at the longest representable duration.
func ticksToDuration(ticks uint32, tick time.Duration) time.Duration {
	if tick > 0 && time.Duration(ticks) > time.Duration(math.MaxInt64)/tick {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ticks) * tick
}

// Busy keeps the CPU busy for the given duration. Unlike Delay, no other task runs in the meantime.
func (t *Task) Busy(d time.Duration) error {
	s := t.scheduler
	s.lock.Lock()
	err := s.checkRunning(t)
	s.lock.Unlock()
	if err != nil {
		return err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.stopped:
		return ErrStopped
	}
	return s.preempt(t)
}

// Yield hands the CPU to the next ready task of equal or higher priority. If there isn't any,
// the calling task continues.
func (t *Task) Yield() error {
	s := t.scheduler
	s.lock.Lock()
	if err := s.checkRunning(t); err != nil {
		s.lock.Unlock()
		return err
	}
	s.wakeExpired(time.Now())
	next := s.pick(t)
	if s.critical > 0 || next == t || next.priority < t.priority {
		s.lock.Unlock()
		return nil
	}
	t.state = stateReady
	s.dispatch(next)
	s.lock.Unlock()
	return t.wait()
}

// EnterCritical suppresses preemption until the matching ExitCritical. Critical sections can be nested.
func (t *Task) EnterCritical() {
	s := t.scheduler
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.critical == 0 {
		s.criticalCount++
	}
	s.critical++
}

// ExitCritical ends a critical section. When the outermost critical section ends, any pending preemption
// takes place.
func (t *Task) ExitCritical() error {
	s := t.scheduler
	s.lock.Lock()
	if s.critical == 0 {
		s.lock.Unlock()
		return ErrNotInCritical
	}
	s.critical--
	pending := s.critical == 0
	s.lock.Unlock()

	if !pending {
		return nil
	}
	return s.preempt(t)
}

// Notify sends a notification to the task addressed by h. If that task is waiting for a notification,
// it becomes ready (and preempts the caller if it has a higher priority).
func (t *Task) Notify(h Handle) error {
	s := t.scheduler
	s.lock.Lock()
	if err := s.checkRunning(t); err != nil {
		s.lock.Unlock()
		return err
	}
	target, err := s.lookup(h)
	if err != nil {
		s.lock.Unlock()
		return err
	}
	target.notified++
	if target.state == stateNotifyWait {
		target.state = stateReady
	}
	s.lock.Unlock()
	return s.preempt(t)
}

// WaitNotify blocks the task until it receives a notification. Each call consumes one notification.
func (t *Task) WaitNotify() error {
	s := t.scheduler
	s.lock.Lock()
	if err := s.checkRunning(t); err != nil {
		s.lock.Unlock()
		return err
	}
	if t.notified == 0 {
		if s.critical > 0 {
			s.lock.Unlock()
			return ErrInCritical
		}
		t.state = stateNotifyWait
		if err := s.block(t); err != nil {
			return err
		}
		s.lock.Lock()
	}
	t.notified--
	s.lock.Unlock()
	return nil
}
