package pkg

import (
	"fmt"
	"sync"
	"time"

	"github.com/qnkhuat/termground/pkg/ground"
)

// Clock counts down one side's thinking time. Flag runs once when it hits
// zero while running.
type Clock struct {
	Duration  time.Duration
	Increment time.Duration

	remaining time.Duration
	started   time.Time
	paused    bool
	flagged   bool
	sched     ground.Scheduler
	timer     *ground.Deferred
	flag      func()

	sync.Mutex
}

func NewClock(duration, increment time.Duration, sched ground.Scheduler, flag func()) *Clock {
	if sched == nil {
		sched = ground.RealScheduler
	}
	return &Clock{
		Duration:  duration,
		Increment: increment,
		remaining: duration,
		paused:    true,
		sched:     sched,
		timer:     ground.NewDeferred(sched),
		flag:      flag,
	}
}

func (cl *Clock) String() string {
	r := cl.Remaining()
	return fmt.Sprintf("%d:%02d", int(r.Minutes()), int(r.Seconds())%60)
}

func (cl *Clock) remainingL() time.Duration {
	r := cl.remaining
	if !cl.paused {
		r -= cl.sched.Now().Sub(cl.started)
	}
	if r < 0 {
		r = 0
	}
	return r
}

func (cl *Clock) Remaining() time.Duration {
	cl.Lock()
	defer cl.Unlock()

	return cl.remainingL()
}

func (cl *Clock) Running() bool {
	cl.Lock()
	defer cl.Unlock()

	return !cl.paused
}

func (cl *Clock) Flagged() bool {
	cl.Lock()
	defer cl.Unlock()

	return cl.flagged
}

// Start resumes the countdown.
func (cl *Clock) Start() {
	cl.Lock()
	defer cl.Unlock()

	if !cl.paused || cl.flagged || cl.remaining <= 0 {
		return
	}
	cl.paused = false
	cl.started = cl.sched.Now()
	cl.timer.Schedule(cl.remaining, cl.expire)
}

func (cl *Clock) expire() {
	cl.Lock()
	if cl.paused || cl.flagged {
		cl.Unlock()
		return
	}
	cl.remaining = 0
	cl.paused = true
	cl.flagged = true
	flag := cl.flag
	cl.Unlock()

	if flag != nil {
		flag()
	}
}

func (cl *Clock) Pause() {
	cl.timer.Cancel()

	cl.Lock()
	defer cl.Unlock()

	cl.remaining = cl.remainingL()
	cl.paused = true
}

// Tick ends a turn: the clock stops and the increment is added.
func (cl *Clock) Tick() {
	cl.Pause()

	cl.Lock()
	defer cl.Unlock()

	if !cl.flagged {
		cl.remaining += cl.Increment
	}
}

// Set overwrites the remaining time, keeping the clock paused.
func (cl *Clock) Set(remaining time.Duration) {
	cl.Pause()

	cl.Lock()
	defer cl.Unlock()

	cl.remaining = remaining
	cl.flagged = false
}

func (cl *Clock) Reset() {
	cl.Set(cl.Duration)
}
