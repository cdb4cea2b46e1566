// Package sequence blinks the red, green and blue LEDs in turn from a single task. Between transitions,
// the task sleeps for a fixed number of ticks, handing the CPU to any other ready task.
package sequence

import (
	"fmt"
	"sync/atomic"

	"github.com/clambin/ledrotator/internal/board"
	"github.com/clambin/ledrotator/internal/rtos"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Priority of the sequence task
const Priority = rtos.IdlePriority + 1

// DefaultDelayTicks is the time each LED stays on
const DefaultDelayTicks = 10000

// Sequence is the single LED task
type Sequence struct {
	handle rtos.Handle
	board  board.Board
	logger *log.Entry
	delay  uint32
	cycles atomic.Int64
}

// Register creates the LED task. Each LED stays on for delayTicks scheduler ticks.
func Register(s *rtos.Scheduler, b board.Board, delayTicks uint32, logger *log.Entry) (*Sequence, error) {
	q := Sequence{
		board:  b,
		logger: logger,
		delay:  delayTicks,
	}
	h, err := s.CreateTask(q.run, "LED Task", Priority)
	if err != nil {
		return nil, fmt.Errorf("create sequence task: %w", err)
	}
	q.handle = h
	return &q, nil
}

// Handle returns the task handle of the LED task
func (q *Sequence) Handle() rtos.Handle {
	return q.handle
}

// Cycles returns the number of completed red, green, blue cycles
func (q *Sequence) Cycles() int64 {
	return q.cycles.Load()
}

func (q *Sequence) run(t *rtos.Task) error {
	q.logger.WithField("delay", q.delay).Debug("sequence started")
	for {
		if err := q.board.ClearAll(); err != nil {
			return err
		}
		for _, c := range board.Colors {
			if err := q.flash(t, c); err != nil {
				return err
			}
		}
		q.cycles.Add(1)
	}
}

func (q *Sequence) flash(t *rtos.Task, c board.Color) error {
	if err := q.board.SetLED(c, true); err != nil {
		return err
	}
	if err := t.Delay(q.delay); err != nil {
		return err
	}
	return q.board.SetLED(c, false)
}

var _ prometheus.Collector = &Sequence{}

var cyclesMetric = prometheus.NewDesc(
	prometheus.BuildFQName("ledrotator", "sequence", "cycles_total"),
	"Number of completed red, green, blue cycles",
	nil, nil,
)

// Describe implements the prometheus.Collector interface
func (q *Sequence) Describe(ch chan<- *prometheus.Desc) {
	ch <- cyclesMetric
}

// Collect implements the prometheus.Collector interface
func (q *Sequence) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(cyclesMetric, prometheus.CounterValue, float64(q.cycles.Load()))
}
