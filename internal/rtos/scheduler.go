package rtos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Priority of a task. Higher values are dispatched first.
type Priority uint

// IdlePriority is the lowest priority a task can have.
const IdlePriority Priority = 0

var (
	ErrTooManyTasks    = errors.New("no room for another task")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrUnknownTask     = errors.New("unknown task")
	ErrStarted         = errors.New("scheduler already started")
	ErrNoTasks         = errors.New("no tasks to schedule")
	ErrStopped         = errors.New("scheduler stopped")
	ErrNotRunning      = errors.New("task does not own the cpu")
	ErrInCritical      = errors.New("cannot block inside a critical section")
	ErrNotInCritical   = errors.New("not inside a critical section")
)

// TaskFunc is the body of a task. It normally loops forever. Returning nil deletes the task,
// returning any other error (other than ErrStopped) is fatal and stops the scheduler.
type TaskFunc func(t *Task) error

// Handle addresses a task created by a Scheduler. The zero Handle addresses no task.
type Handle struct {
	owner *Scheduler
	index int
}

// Scheduler runs a set of tasks on a single, simulated CPU. Exactly one task owns the CPU at any time:
// the highest priority ready task. A running task only gives up the CPU at a preemption point (i.e. when
// it calls one of the Task methods).
type Scheduler struct {
	logger        *log.Entry
	tasks         []*Task
	current       *Task
	last          *Task
	timer         *time.Timer
	stopped       chan struct{}
	tick          time.Duration
	maxPriorities int
	maxTasks      int
	critical      int
	criticalCount int
	started       bool
	lock          sync.Mutex
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithTick sets the duration of one scheduler tick
func WithTick(tick time.Duration) Option {
	return func(s *Scheduler) { s.tick = tick }
}

// WithMaxPriorities sets the number of available priorities. Valid priorities range from IdlePriority to n-1.
func WithMaxPriorities(n int) Option {
	return func(s *Scheduler) { s.maxPriorities = n }
}

// WithMaxTasks limits the number of tasks that can be created
func WithMaxTasks(n int) Option {
	return func(s *Scheduler) { s.maxTasks = n }
}

// WithLogger sets the logger
func WithLogger(logger *log.Entry) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// New creates a new Scheduler
func New(options ...Option) *Scheduler {
	s := Scheduler{
		logger:        log.WithField("component", "rtos"),
		stopped:       make(chan struct{}),
		tick:          time.Millisecond,
		maxPriorities: 5,
		maxTasks:      8,
	}
	for _, option := range options {
		option(&s)
	}
	return &s
}

// Tick returns the duration of one scheduler tick
func (s *Scheduler) Tick() time.Duration {
	return s.tick
}

// CreateTask adds a new task. Tasks can only be created before the scheduler is started.
func (s *Scheduler) CreateTask(fn TaskFunc, name string, priority Priority) (Handle, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return Handle{}, ErrStarted
	}
	if len(s.tasks) >= s.maxTasks {
		return Handle{}, fmt.Errorf("%s: %w", name, ErrTooManyTasks)
	}
	if err := s.validatePriority(priority); err != nil {
		return Handle{}, fmt.Errorf("%s: %w", name, err)
	}

	t := &Task{
		scheduler: s,
		fn:        fn,
		name:      name,
		priority:  priority,
		index:     len(s.tasks),
		wake:      make(chan struct{}, 1),
	}
	s.tasks = append(s.tasks, t)
	s.logger.WithFields(log.Fields{"task": name, "priority": priority}).Debug("task created")
	return t.Handle(), nil
}

// Priority returns the current priority of a task
func (s *Scheduler) Priority(h Handle) (Priority, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	t, err := s.lookup(h)
	if err != nil {
		return 0, err
	}
	return t.priority, nil
}

// SetPriority changes the priority of a task before the scheduler is started. Running tasks use Task.SetPriority.
func (s *Scheduler) SetPriority(h Handle, priority Priority) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.started {
		return ErrStarted
	}
	t, err := s.lookup(h)
	if err != nil {
		return err
	}
	if err = s.validatePriority(priority); err != nil {
		return err
	}
	t.priority = priority
	return nil
}

// Start runs the tasks until ctx is cancelled, in which case Start returns nil, or until a task fails, in which case
// that task's error is returned. Once a task fails, no other task is dispatched.
func (s *Scheduler) Start(ctx context.Context) error {
	s.lock.Lock()
	if s.started {
		s.lock.Unlock()
		return ErrStarted
	}
	if len(s.tasks) == 0 {
		s.lock.Unlock()
		return ErrNoTasks
	}
	s.started = true

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range s.tasks {
		t := t
		g.Go(func() error { return s.run(t) })
	}
	g.Go(func() error {
		<-ctx.Done()
		s.stop()
		return nil
	})

	s.logger.WithField("tasks", len(s.tasks)).Info("scheduler started")
	s.dispatch(s.pick(nil))
	s.lock.Unlock()

	err := g.Wait()
	s.logger.WithError(err).Info("scheduler stopped")
	return err
}

func (s *Scheduler) run(t *Task) error {
	if err := t.wait(); err != nil {
		return nil
	}
	err := t.fn(t)

	s.lock.Lock()
	defer s.lock.Unlock()
	t.state = stateDone

	if err != nil && !errors.Is(err, ErrStopped) {
		// leave the cpu with the failed task: nothing else runs until the scheduler is stopped
		s.logger.WithError(err).WithField("task", t.name).Error("task failed")
		return fmt.Errorf("%s: %w", t.name, err)
	}
	if s.current == t && !s.isStopped() {
		s.logger.WithField("task", t.name).Debug("task deleted")
		s.dispatch(s.pick(t))
	}
	return nil
}

func (s *Scheduler) stop() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.isStopped() {
		close(s.stopped)
	}
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Scheduler) isStopped() bool {
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}

func (s *Scheduler) validatePriority(priority Priority) error {
	if int(priority) >= s.maxPriorities {
		return fmt.Errorf("%w: %d (max: %d)", ErrInvalidPriority, priority, s.maxPriorities-1)
	}
	return nil
}

func (s *Scheduler) lookup(h Handle) (*Task, error) {
	if h.owner != s || h.index < 0 || h.index >= len(s.tasks) {
		return nil, ErrUnknownTask
	}
	return s.tasks[h.index], nil
}

// pick returns the highest priority runnable task. Equal priorities are served round-robin:
// the first runnable task after 'after' (in creation order) wins.
func (s *Scheduler) pick(after *Task) *Task {
	start := 0
	if after != nil {
		start = after.index + 1
	}
	var next *Task
	for i := range s.tasks {
		t := s.tasks[(start+i)%len(s.tasks)]
		if !t.runnable() {
			continue
		}
		if next == nil || t.priority > next.priority {
			next = t
		}
	}
	return next
}

// dispatch hands the cpu to next. If next is nil, the cpu idles until a delayed task wakes up.
func (s *Scheduler) dispatch(next *Task) {
	if s.current != nil && s.current != next {
		s.logger.WithFields(log.Fields{"from": s.current.name, "to": taskName(next)}).Debug("context switch")
	}
	s.current = next
	if next != nil {
		s.last = next
		next.state = stateRunning
		next.dispatches++
		select {
		case next.wake <- struct{}{}:
		default:
		}
	}
	s.arm()
}

// wakeExpired moves all delayed tasks whose deadline has passed to the ready state
func (s *Scheduler) wakeExpired(now time.Time) {
	for _, t := range s.tasks {
		if t.state == stateDelayed && !now.Before(t.wakeAt) {
			t.state = stateReady
		}
	}
}

// arm sets the timer to fire when the earliest delayed task needs to wake up
func (s *Scheduler) arm() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	var deadline time.Time
	for _, t := range s.tasks {
		if t.state == stateDelayed && (deadline.IsZero() || t.wakeAt.Before(deadline)) {
			deadline = t.wakeAt
		}
	}
	if !deadline.IsZero() {
		s.timer = time.AfterFunc(time.Until(deadline), s.onTimer)
	}
}

func (s *Scheduler) onTimer() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.isStopped() {
		return
	}
	s.wakeExpired(time.Now())
	// a running task picks up woken tasks at its next preemption point
	if s.current == nil {
		s.dispatch(s.pick(s.last))
		return
	}
	s.arm()
}

// preempt is called by the running task t at a preemption point. If a higher priority task is ready
// (and we're not inside a critical section), t gives up the cpu and waits until it's dispatched again.
func (s *Scheduler) preempt(t *Task) error {
	s.lock.Lock()
	if s.isStopped() {
		s.lock.Unlock()
		return ErrStopped
	}
	s.wakeExpired(time.Now())
	next := s.pick(t)
	if s.critical > 0 || next == t || next.priority <= t.priority {
		s.lock.Unlock()
		return nil
	}
	t.state = stateReady
	s.dispatch(next)
	s.lock.Unlock()
	return t.wait()
}

// block takes the cpu away from t (which has just left the ready state) and waits until t is dispatched again.
// Must be called with the lock held; block releases it.
func (s *Scheduler) block(t *Task) error {
	s.wakeExpired(time.Now())
	s.dispatch(s.pick(t))
	s.lock.Unlock()
	return t.wait()
}

// checkRunning verifies that t may call the scheduler. Must be called with the lock held.
func (s *Scheduler) checkRunning(t *Task) error {
	if s.isStopped() {
		return ErrStopped
	}
	if s.current != t {
		return fmt.Errorf("%s: %w", t.name, ErrNotRunning)
	}
	return nil
}

func taskName(t *Task) string {
	if t == nil {
		return "idle"
	}
	return t.name
}
