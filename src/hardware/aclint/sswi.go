package aclint

import (
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/numspace"
	"riscvrt/src/riscv"
)

// SSWI is the supervisor-level software interrupt device of an ACLINT.
// It has no legacy CLINT offset, so it always has its own base.
type SSWI struct {
	bus  mmio.Bus
	base uintptr
}

func NewSSWI(bus mmio.Bus, base uintptr) SSWI {
	return SSWI{bus: bus, base: base}
}

// SETSSIP returns hart h's register at base+4h.
func (s SSWI) SETSSIP(h numspace.HartIdNumber) SETSSIP {
	return SETSSIP{reg: mmio.Reg32(s.bus, s.base+4*uintptr(h.Number()))}
}

type SETSSIP struct {
	reg mmio.Register32
}

func (s SETSSIP) Address() uintptr { return s.reg.Address() }
func (s SETSSIP) Pend()            { s.reg.Set(1) }
func (s SETSSIP) Unpend()          { s.reg.Set(0) }

func (s SETSSIP) IsPending() bool {
	return s.reg.Get() != 0
}

// EnableSSI sets mie.SSIE on the calling hart.
func EnableSSI(h riscv.Hart) {
	riscv.EnableInterrupt(h, riscv.SupervisorSoft)
}

func DisableSSI(h riscv.Hart) {
	riscv.DisableInterrupt(h, riscv.SupervisorSoft)
}
