package sim

import (
	"fmt"

	"riscvrt/src/hardware/virt"
	"riscvrt/src/lib/semihosting"
)

// ExitError is a run that ended through semihosting with anything but
// a clean exit.
type ExitError struct {
	Reason semihosting.SemihostingStopCode
	Code   uint64
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit reason %#x code %#x", int(e.Reason), e.Code)
}

// Success is a normal exit with code 0.
func (e *ExitError) Success() bool {
	return e.Reason == semihosting.SemihostingStopApplicationExit && e.Code == 0
}

// Host returns the semihosting host of the machine: exits end the run,
// the clock reads simulated time.
func (m *Machine) Host() semihosting.Host {
	return host{m}
}

type host struct {
	m *Machine
}

func (h host) Call(op semihosting.SemiHostingOp, block *semihosting.ParamBlock) uint64 {
	switch op {
	case semihosting.SemiHostOpExit:
		h.m.errMu.Lock()
		if h.m.exit == nil {
			h.m.exit = &ExitError{Reason: block.Reason, Code: block.Subcode}
		}
		h.m.errMu.Unlock()
		h.m.log.Infof("exit reason %#x code %#x", int(block.Reason), block.Subcode)
		h.m.stop()
		return 0
	case semihosting.SemiHostOpClock:
		return h.m.CLINT.Now() / (virt.TimebaseFrequency / 100)
	}
	return ^uint64(0)
}

// Exit is how the run ended, if it ended through semihosting.
func (m *Machine) Exit() (*ExitError, bool) {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.exit, m.exit != nil
}
