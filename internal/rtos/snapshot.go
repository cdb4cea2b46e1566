package rtos

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TaskInfo reports the state of one task
type TaskInfo struct {
	Handle     Handle `json:"-"`
	Name       string
	Priority   Priority
	State      string
	Dispatches int
}

// Snapshot reports the state of the scheduler at one point in time
type Snapshot struct {
	Current          string
	Critical         bool
	CriticalSections int
	Tasks            []TaskInfo
}

// Snapshot returns the current state of the scheduler. If Critical is false, all priorities are consistent,
// i.e. no task was halfway through a critical section when the snapshot was taken. CriticalSections counts
// the outermost critical sections entered since the scheduler was created.
func (s *Scheduler) Snapshot() Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	snapshot := Snapshot{
		Critical:         s.critical > 0,
		CriticalSections: s.criticalCount,
		Tasks:            make([]TaskInfo, 0, len(s.tasks)),
	}
	if s.current != nil {
		snapshot.Current = s.current.name
	}
	for _, t := range s.tasks {
		snapshot.Tasks = append(snapshot.Tasks, TaskInfo{
			Handle:     t.Handle(),
			Name:       t.name,
			Priority:   t.priority,
			State:      t.state.String(),
			Dispatches: t.dispatches,
		})
	}
	return snapshot
}

var _ prometheus.Collector = &Scheduler{}

var (
	priorityMetric = prometheus.NewDesc(
		prometheus.BuildFQName("ledrotator", "task", "priority"),
		"Current priority of a task",
		[]string{"task"}, nil,
	)
	dispatchMetric = prometheus.NewDesc(
		prometheus.BuildFQName("ledrotator", "task", "dispatches_total"),
		"Number of times a task was given the cpu",
		[]string{"task"}, nil,
	)
	criticalMetric = prometheus.NewDesc(
		prometheus.BuildFQName("ledrotator", "scheduler", "critical_sections_total"),
		"Number of critical sections entered",
		nil, nil,
	)
)

// Describe implements the prometheus.Collector interface
func (s *Scheduler) Describe(ch chan<- *prometheus.Desc) {
	ch <- priorityMetric
	ch <- dispatchMetric
	ch <- criticalMetric
}

// Collect implements the prometheus.Collector interface
func (s *Scheduler) Collect(ch chan<- prometheus.Metric) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, t := range s.tasks {
		ch <- prometheus.MustNewConstMetric(priorityMetric, prometheus.GaugeValue, float64(t.priority), t.name)
		ch <- prometheus.MustNewConstMetric(dispatchMetric, prometheus.CounterValue, float64(t.dispatches), t.name)
	}
	ch <- prometheus.MustNewConstMetric(criticalMetric, prometheus.CounterValue, float64(s.criticalCount))
}
