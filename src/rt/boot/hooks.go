package boot

import (
	"riscvrt/src/hardware/aclint"
	"riscvrt/src/lib/fault"
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
)

// Hooks are the points where an application takes part in booting.  Nil
// hooks get defaults when the Sequencer is built, except Main, which is
// required.
type Hooks struct {
	// MPHook elects the boot hart.  Exactly one hart must get true; the
	// others come back false once they may proceed.
	MPHook func(h riscv.Hart, hartID uint) bool
	// PreInit runs on the boot hart before .data and .bss are set up, so
	// it must not rely on either.
	PreInit func(h riscv.Hart)
	// SetupInterrupts installs the trap vector.  The default installs
	// the linked dispatcher.
	SetupInterrupts func(h riscv.Hart)
	// Main is the application.  It gets a0 to a2 as they were at reset
	// and is not expected to return.
	Main func(h riscv.Hart, a0, a1, a2 uint64)
	// Abort stops a hart that cannot boot.  It should not return; if it
	// does, the hart is parked.
	Abort func(h riscv.Hart, reason error)
}

// DefaultMPHook elects hart 0.  Every other hart enables the software
// interrupt and sleeps until its MSIP is set, see WakeHarts, then clears
// it.  MSIP is not cleared on the way in: the boot hart may already have
// sent the wake up.  Machine interrupts stay globally disabled, so the
// wake up only ends the wfi.
func DefaultMPHook(clint aclint.CLINT) func(h riscv.Hart, hartID uint) bool {
	return func(h riscv.Hart, hartID uint) bool {
		if hartID == 0 {
			return true
		}
		msip, err := clint.MSIPChecked(hartID)
		if err != nil {
			return false
		}
		aclint.EnableMSI(h)
		for !riscv.IsInterruptPending(h, riscv.MachineSoft) {
			h.WaitForInterrupt()
		}
		msip.Unpend()
		aclint.DisableMSI(h)
		return false
	}
}

// SingleHartMPHook elects hart 0 and parks everything else.
func SingleHartMPHook(h riscv.Hart, hartID uint) bool {
	if hartID == 0 {
		return true
	}
	riscv.Park(h)
	return false
}

// WakeHarts releases the harts parked in DefaultMPHook by setting their
// MSIP, skipping the caller.
func WakeHarts(h riscv.Hart, clint aclint.CLINT, maxHart uint) error {
	self := riscv.HartID(h)
	for id := uint(0); id <= maxHart; id++ {
		if id == self {
			continue
		}
		msip, err := clint.MSIPChecked(id)
		if err != nil {
			return err
		}
		msip.Pend()
	}
	return nil
}

// DefaultAbort reports the reason through log, exits through
// semihosting with the reason's code, and parks the hart if the host let
// it continue.
func DefaultAbort(log *trust.Logger) func(h riscv.Hart, reason error) {
	return func(h riscv.Hart, reason error) {
		hart := riscv.HartID(h)
		code := fault.CodeOf(reason).WithHart(hart)
		log.Fatalf(int(code), "hart %d: boot aborted: %v (code %#x)", hart, reason, uint64(code))
		riscv.Park(h)
	}
}
