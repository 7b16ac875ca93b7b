package upbeat

import (
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
)

// PrintoutTrap explains an unexpected trap on c.  mtval is only printed
// for the causes that define it.
func PrintoutTrap(cause riscv.Cause, mepc, mtval uint64, c *trust.Logger) {
	if cause.IsInterrupt() {
		c.Errorf("unhandled %s at %#x", cause, mepc)
		return
	}
	e, err := cause.Exception()
	if err != nil {
		c.Errorf("reserved exception code %d at %#x", cause.Code(), mepc)
		return
	}
	switch e {
	case riscv.InstructionMisaligned, riscv.InstructionFault, riscv.InstructionPageFault:
		c.Errorf("instruction fetch from %#x failed (%s)", mtval, e)
	case riscv.IllegalInstruction:
		c.Errorf("illegal instruction %#x", mtval)
	case riscv.Breakpoint:
		c.Errorf("breakpoint")
	case riscv.LoadMisaligned, riscv.LoadFault, riscv.LoadPageFault:
		c.Errorf("load from %#x failed (%s)", mtval, e)
	case riscv.StoreMisaligned, riscv.StoreFault, riscv.StorePageFault:
		c.Errorf("store to %#x failed (%s)", mtval, e)
	case riscv.UserEnvCall, riscv.SupervisorEnvCall, riscv.MachineEnvCall:
		c.Errorf("unexpected ecall (%s)", e)
	default:
		c.Errorf("exception %s", e)
	}
	c.Errorf("[mepc %#x]", mepc)
}

// MaskInterrupts clears mstatus.MIE and reports whether it was set.
func MaskInterrupts(h riscv.Hart) bool {
	return h.ClearCSR(riscv.Mstatus, riscv.MstatusMIE)&riscv.MstatusMIE != 0
}

// UnmaskInterrupts sets mstatus.MIE.
func UnmaskInterrupts(h riscv.Hart) {
	h.SetCSR(riscv.Mstatus, riscv.MstatusMIE)
}
