package marginalia

import (
	"sort"
	"sync"
	"time"
)

// Handle is a pending scheduled task.
type Handle interface {
	// Cancel stops the task if it has not run yet and reports whether it was stopped.
	Cancel() bool
}

// Scheduler runs a function after a delay.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
}

// TimerScheduler runs tasks on time.AfterFunc timers.
type TimerScheduler struct{}

// Schedule implements Scheduler.
func (TimerScheduler) Schedule(delay time.Duration, fn func()) Handle {
	return timerHandle{time.AfterFunc(delay, fn)}
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() bool {
	return h.t.Stop()
}

// ManualScheduler runs tasks only when its virtual clock is advanced.
// Tasks run on the goroutine calling Advance, in due-time order.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	sched    *ManualScheduler
	due      time.Duration
	seq      uint64
	fn       func()
	canceled bool
	done     bool
}

// NewManualScheduler creates a ManualScheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule implements Scheduler.
func (s *ManualScheduler) Schedule(delay time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &manualTask{sched: s, due: s.now + delay, seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

func (t *manualTask) Cancel() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()

	if t.done || t.canceled {
		return false
	}
	t.canceled = true
	return true
}

// Advance moves the clock forward by d and runs every task that became due.
// Tasks scheduled by running tasks also run if they fall due within the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.SliceStable(s.tasks, func(i, j int) bool {
			if s.tasks[i].due != s.tasks[j].due {
				return s.tasks[i].due < s.tasks[j].due
			}
			return s.tasks[i].seq < s.tasks[j].seq
		})

		var next *manualTask
		for len(s.tasks) > 0 {
			t := s.tasks[0]
			if t.canceled {
				s.tasks = s.tasks[1:]
				continue
			}
			if t.due <= target {
				next = t
				s.tasks = s.tasks[1:]
				s.now = t.due
				t.done = true
			}
			break
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of tasks that have neither run nor been canceled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.tasks {
		if !t.canceled && !t.done {
			n++
		}
	}
	return n
}

// DefaultFrameInterval approximates one animation frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Debouncer collapses bursts of requests into one run per frame.
// A new request replaces any pending one, so only the most recent function runs and
// at most one task is ever pending.
type Debouncer struct {
	sched    Scheduler
	interval time.Duration

	mu      sync.Mutex
	pending Handle
	gen     uint64
}

// NewDebouncer creates a Debouncer. A zero interval means DefaultFrameInterval.
func NewDebouncer(sched Scheduler, interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Debouncer{sched: sched, interval: interval}
}

// Request schedules fn for the next frame, replacing any pending request.
func (d *Debouncer) Request(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
	}
	d.gen++
	gen := d.gen
	d.pending = d.sched.Schedule(d.interval, func() {
		d.mu.Lock()
		if gen != d.gen {
			// superseded after the timer already fired
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// Stop cancels any pending request.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
	d.gen++
}
