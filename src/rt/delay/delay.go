package delay

import (
	"riscvrt/src/riscv"
)

type State int

const (
	Created State = iota
	// Armed is a delay in the queue that has been polled once.
	Armed
	// Pending is an armed delay that was polled again before it was due.
	Pending
	Ready
	// Cancelled delays leave their queue entry behind; it expires
	// without waking anyone.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Armed:
		return "armed"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Waker is called from the timer handler when a delay becomes due.
type Waker func()

// Delay is a one shot wait for a number of timer ticks, counted from when
// the delay was created.
type Delay struct {
	s     *Scheduler
	t0    uint64
	ticks uint64
	state State
	woken bool
	waker Waker
}

// After creates a delay of ticks, starting now.  Nothing is queued until
// the first Poll.
func (s *Scheduler) After(ticks uint64) *Delay {
	return &Delay{s: s, t0: s.timer.Now(), ticks: ticks}
}

func (s *Scheduler) AfterNs(ns uint32) *Delay { return s.After(uint64(ns) * s.freq / 1_000_000_000) }
func (s *Scheduler) AfterUs(us uint32) *Delay { return s.After(uint64(us) * s.freq / 1_000_000) }
func (s *Scheduler) AfterMs(ms uint32) *Delay { return s.After(uint64(ms) * s.freq / 1_000) }

func (d *Delay) State() State  { return d.state }
func (d *Delay) Ticks() uint64 { return d.ticks }

// Woken reports whether the timer handler has signalled this delay.
func (d *Delay) Woken() bool { return d.woken }

// Poll reports whether the delay has elapsed.  The first Poll of a delay
// that has not elapsed arms it; later polls only replace the waker.  A
// full queue is reported as ErrQueueFull and the delay stays unarmed.
func (d *Delay) Poll(w Waker) (bool, error) {
	switch d.state {
	case Ready:
		return true, nil
	case Cancelled:
		return false, nil
	}
	e := Expiry{T0: d.t0, Ticks: d.ticks, delay: d}
	if e.Due(d.s.timer.Now()) {
		d.state = Ready
		d.waker = nil
		return true, nil
	}

	var err error
	riscv.Free(d.s.hart, func() {
		d.waker = w
		if d.state == Created {
			if err = d.s.push(e); err == nil {
				d.state = Armed
			}
			return
		}
		d.state = Pending
	})
	return false, err
}

// Cancel abandons the delay.  Its queue entry, if any, stays until it
// is due and then wakes nobody.
func (d *Delay) Cancel() {
	if d.state == Ready {
		return
	}
	d.state = Cancelled
	d.waker = nil
}

func (d *Delay) wake() {
	d.woken = true
	if w := d.waker; w != nil {
		w()
	}
}
