// Package delay turns one hart's timer comparator into any number of
// pending delays.  Armed delays wait in a hart-local queue ordered by
// expiry.  The comparator is always programmed for the head of the
// queue, and the machine timer handler wakes every delay that is due.
package delay

import (
	"riscvrt/src/hardware/aclint"
	"riscvrt/src/lib/fault"
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
)

var QueueFullCode = fault.Register(fault.DelaySubsystem, 1, "timer queue full")

type queueFull struct{}

func (queueFull) Error() string    { return "timer queue full" }
func (queueFull) Code() fault.Code { return QueueFullCode }

// ErrQueueFull is returned by Poll when a delay cannot be armed.  The
// delay stays in its created state and may be polled again later.
var ErrQueueFull error = queueFull{}

var CancelledCode = fault.Register(fault.DelaySubsystem, 2, "delay cancelled")

type cancelled struct{}

func (cancelled) Error() string    { return "delay cancelled" }
func (cancelled) Code() fault.Code { return CancelledCode }

// ErrCancelled is returned by the blocking waits for a delay that was
// cancelled, which would otherwise never become ready.
var ErrCancelled error = cancelled{}

// Expiry is a queue entry: the delay it wakes and when.
type Expiry struct {
	T0    uint64
	Ticks uint64
	delay *Delay
}

// Target is the MTIME value at which the entry is due, modulo 2^64.
func (e Expiry) Target() uint64 {
	return e.T0 + e.Ticks
}

// Due reports whether now is at least Ticks past T0, measured the
// wrapping way so that a counter rollover between T0 and now is fine.
func (e Expiry) Due(now uint64) bool {
	return now-e.T0 >= e.Ticks
}

// remaining is the number of ticks until e is due, 0 once it is.
func (e Expiry) remaining(now uint64) uint64 {
	if e.Due(now) {
		return 0
	}
	return e.Ticks - (now - e.T0)
}

// Scheduler is the delay queue of one hart.  It must only be used from
// that hart; the queue is guarded by masking interrupts, not by locks.
type Scheduler struct {
	hart  riscv.Hart
	timer aclint.HartTimer
	freq  uint64
	queue *ExpiryOrderedList
	// ref is the time the ordering is evaluated at.  Entries keep their
	// relative order as time passes, so it only matters that all
	// comparisons during one Insert see the same value.
	ref uint64
	log *trust.Logger
}

// NewScheduler returns an empty scheduler holding at most capacity armed
// delays.  freq is the MTIME rate in Hz.
func NewScheduler(h riscv.Hart, timer aclint.HartTimer, capacity int, freq uint64, log *trust.Logger) *Scheduler {
	if log == nil {
		log = trust.Default()
	}
	s := &Scheduler{hart: h, timer: timer, freq: freq, log: log}
	s.queue = NewExpiryOrderedList(capacity, func(a, b Expiry) bool {
		return a.remaining(s.ref) < b.remaining(s.ref)
	})
	return s
}

func (s *Scheduler) Frequency() uint64 { return s.freq }
func (s *Scheduler) Now() uint64       { return s.timer.Now() }
func (s *Scheduler) Pending() int      { return s.queue.Length() }
func (s *Scheduler) Capacity() int     { return s.queue.Capacity() }

// push arms e.  Interrupts must be masked.
func (s *Scheduler) push(e Expiry) error {
	s.ref = s.timer.Now()
	if s.queue.Insert(e) == nil {
		s.log.Warnf("cannot arm delay of %d ticks, %d already pending", e.Ticks, s.queue.Length())
		return ErrQueueFull
	}
	s.reprogram()
	return nil
}

// reprogram points the comparator at the head of the queue and enables
// the timer interrupt, or silences the timer when nothing is queued.
func (s *Scheduler) reprogram() {
	first := s.queue.First()
	if first == nil {
		s.timer.ClearCompare()
		aclint.DisableMTI(s.hart)
		return
	}
	for {
		now := s.timer.Now()
		target := first.Value.Target()
		if target < now && !first.Value.Due(now) {
			// the target lies past the MTIME rollover.  Interrupt at the
			// last tick before it and again at the first tick after it,
			// when the real target can be programmed.
			target = aclint.NoDeadline
			if now == aclint.NoDeadline {
				target = 0
			}
		}
		s.timer.SetCompare(target)
		if target != aclint.NoDeadline || s.timer.Now() >= now {
			break
		}
		// MTIME rolled over while the comparator was written
	}
	aclint.EnableMTI(s.hart)
}

// HandleTimer is the machine timer interrupt handler.  It wakes every
// queued delay that is due, in expiry order, and rearms the timer for
// the rest.  It returns the number of entries drained.
func (s *Scheduler) HandleTimer(h riscv.Hart) int {
	aclint.DisableMTI(h)
	now := s.timer.Now()
	var due []*Delay
	drained := 0
	for first := s.queue.First(); first != nil && first.Value.Due(now); first = s.queue.First() {
		e := s.queue.Remove(first)
		drained++
		if e.delay != nil && e.delay.state != Cancelled {
			due = append(due, e.delay)
		}
	}
	s.reprogram()
	s.log.Statsf("delay", "woke %d of %d due, %d left", len(due), drained, s.queue.Length())
	for _, d := range due {
		d.wake()
	}
	return drained
}

// Handler adapts HandleTimer to an interrupt handler.
func (s *Scheduler) Handler() func(riscv.Hart) {
	return func(h riscv.Hart) { s.HandleTimer(h) }
}
