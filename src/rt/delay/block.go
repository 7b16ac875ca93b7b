package delay

// Block polls d until it is ready, waiting for interrupts in between.
// The hart's timer interrupt must be routed to HandleTimer for the delay
// to be woken; without machine interrupts enabled Block still finishes,
// because wfi returns for any pending enabled interrupt and Poll reads
// the time itself.  A cancelled delay ends the wait with ErrCancelled.
func (s *Scheduler) Block(d *Delay) error {
	for {
		ready, err := d.Poll(func() {})
		if err != nil || ready {
			return err
		}
		if d.state == Cancelled {
			return ErrCancelled
		}
		s.hart.WaitForInterrupt()
	}
}

// DelayTicks waits for ticks timer ticks.
func (s *Scheduler) DelayTicks(ticks uint64) error {
	return s.Block(s.After(ticks))
}

func (s *Scheduler) DelayNs(ns uint32) error { return s.Block(s.AfterNs(ns)) }
func (s *Scheduler) DelayUs(us uint32) error { return s.Block(s.AfterUs(us)) }
func (s *Scheduler) DelayMs(ms uint32) error { return s.Block(s.AfterMs(ms)) }

// All blocks until every delay in ds is ready, or fails with
// ErrCancelled as soon as one of them is cancelled.
func (s *Scheduler) All(ds ...*Delay) error {
	for {
		ready := true
		for _, d := range ds {
			ok, err := d.Poll(func() {})
			if err != nil {
				return err
			}
			if d.state == Cancelled {
				return ErrCancelled
			}
			ready = ready && ok
		}
		if ready {
			return nil
		}
		s.hart.WaitForInterrupt()
	}
}
