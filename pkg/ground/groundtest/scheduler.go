// Package groundtest provides a manual clock for driving board timers in tests.
package groundtest

import (
	"sort"
	"sync"
	"time"

	"github.com/qnkhuat/termground/pkg/ground"
)

type timer struct {
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Scheduler only moves when told to. Timers due at the same instant fire in
// the order they were scheduled.
type Scheduler struct {
	now    time.Time
	seq    int
	timers []*timer

	sync.Mutex
}

var _ ground.Scheduler = (*Scheduler)(nil)

func NewScheduler() *Scheduler {
	return &Scheduler{now: time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *Scheduler) Now() time.Time {
	s.Lock()
	defer s.Unlock()

	return s.now
}

func (s *Scheduler) AfterFunc(d time.Duration, f func()) ground.Timer {
	s.Lock()
	defer s.Unlock()

	s.seq++
	t := &timer{at: s.now.Add(d), seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Pending counts timers that have neither fired nor been stopped.
func (s *Scheduler) Pending() int {
	s.Lock()
	defer s.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (s *Scheduler) next(deadline time.Time) *timer {
	var due []*timer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && !t.at.After(deadline) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}

// Advance moves the clock by d, firing every timer that falls due, including
// timers scheduled by the ones firing.
func (s *Scheduler) Advance(d time.Duration) {
	s.Lock()
	deadline := s.now.Add(d)
	for {
		t := s.next(deadline)
		if t == nil {
			break
		}
		t.fired = true
		s.now = t.at
		s.Unlock()
		t.f()
		s.Lock()
	}
	s.now = deadline
	s.Unlock()
}
