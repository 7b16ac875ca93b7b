package aclint

import (
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/numspace"
	"riscvrt/src/riscv"
)

// MSWI is the machine-level software interrupt device.  It only holds the
// pending bits; whether the interrupt is taken depends on mie.MSIE.
type MSWI struct {
	bus  mmio.Bus
	base uintptr
}

func NewMSWI(bus mmio.Bus, base uintptr) MSWI {
	return MSWI{bus: bus, base: base}
}

// MSIP returns the pending register of hart h at base+4h.
func (m MSWI) MSIP(h numspace.HartIdNumber) MSIP {
	return m.msip(h.Number())
}

func (m MSWI) msip(hart uint) MSIP {
	return MSIP{reg: mmio.Reg32(m.bus, m.base+4*uintptr(hart))}
}

// MSIP is one hart's software interrupt pending register.
type MSIP struct {
	reg mmio.Register32
}

func (m MSIP) Address() uintptr { return m.reg.Address() }

func (m MSIP) Pend()   { m.reg.Set(1) }
func (m MSIP) Unpend() { m.reg.Set(0) }

func (m MSIP) IsPending() bool {
	return m.reg.Get() != 0
}

// EnableMSI sets mie.MSIE on the calling hart.
func EnableMSI(h riscv.Hart) {
	riscv.EnableInterrupt(h, riscv.MachineSoft)
}

func DisableMSI(h riscv.Hart) {
	riscv.DisableInterrupt(h, riscv.MachineSoft)
}
