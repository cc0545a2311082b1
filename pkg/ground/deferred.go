package ground

import (
	"sync"
	"time"
)

type Timer interface {
	Stop() bool
}

// Scheduler supplies time to the engine: animation frames, debounced resizes
// and timed effects all go through it.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) Now() time.Time { return time.Now() }

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler runs on the runtime timers.
var RealScheduler Scheduler = realScheduler{}

// Deferred is a single slot task: scheduling replaces whatever was pending.
type Deferred struct {
	sched Scheduler
	timer Timer
	gen   uint64

	sync.Mutex
}

func NewDeferred(sched Scheduler) *Deferred {
	if sched == nil {
		sched = RealScheduler
	}
	return &Deferred{sched: sched}
}

// Schedule cancels the pending task, if any, and runs f after d.
func (d *Deferred) Schedule(delay time.Duration, f func()) {
	d.Lock()
	defer d.Unlock()

	d.cancelL()
	gen := d.gen
	d.timer = d.sched.AfterFunc(delay, func() {
		d.Lock()
		if gen != d.gen {
			// replaced after the timer fired
			d.Unlock()
			return
		}
		d.timer = nil
		d.gen++
		d.Unlock()

		f()
	})
}

func (d *Deferred) Cancel() {
	d.Lock()
	defer d.Unlock()

	d.cancelL()
}

func (d *Deferred) cancelL() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Deferred) Pending() bool {
	d.Lock()
	defer d.Unlock()

	return d.timer != nil
}
