// Package aclint drives the core local interruptor: the machine software
// interrupt device (MSWI), the machine timer (MTIMER) and the supervisor
// software interrupt device (SSWI).  The legacy SiFive CLINT is an MSWI
// and an MTIMER at fixed offsets from one base.
package aclint

import (
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/lib/fault"
	"riscvrt/src/numspace"
)

const (
	MTIMECMPOffset = 0x4000
	MTIMEOffset    = 0xBFF8
	// Size is the span of a CLINT register block.
	Size = 0x1_0000
)

// CLINT is an MSWI at base and an MTIMER at base+0x4000.  MaxHart bounds
// the checked accessors; hart ids above it have no registers.
type CLINT struct {
	mswi    MSWI
	mtimer  MTIMER
	maxHart uint
}

func New(bus mmio.Bus, base uintptr, maxHart uint) CLINT {
	return CLINT{
		mswi:    NewMSWI(bus, base),
		mtimer:  NewMTIMER(bus, base+MTIMECMPOffset, base+MTIMEOffset),
		maxHart: maxHart,
	}
}

func (c CLINT) MSWI() MSWI     { return c.mswi }
func (c CLINT) MTIMER() MTIMER { return c.mtimer }
func (c CLINT) MaxHart() uint  { return c.maxHart }

func (c CLINT) MSIP(h numspace.HartIdNumber) MSIP {
	return c.mswi.MSIP(h)
}

func (c CLINT) MTIMECMP(h numspace.HartIdNumber) mmio.Register64 {
	return c.mtimer.MTIMECMP(h)
}

func (c CLINT) MTIME() mmio.Register64 {
	return c.mtimer.MTIME()
}

// MSIPChecked is MSIP for an unvalidated hart id.
func (c CLINT) MSIPChecked(hart uint) (MSIP, error) {
	if err := fault.CheckIndex(hart, 0, c.maxHart); err != nil {
		return MSIP{}, err
	}
	return c.mswi.msip(hart), nil
}

// MTIMECMPChecked is MTIMECMP for an unvalidated hart id.
func (c CLINT) MTIMECMPChecked(hart uint) (mmio.Register64, error) {
	if err := fault.CheckIndex(hart, 0, c.maxHart); err != nil {
		return mmio.Register64{}, err
	}
	return c.mtimer.mtimecmp(hart), nil
}

// Hart returns the timer of one hart, bounds checked.
func (c CLINT) Hart(hart uint) (HartTimer, error) {
	if err := fault.CheckIndex(hart, 0, c.maxHart); err != nil {
		return HartTimer{}, err
	}
	return c.mtimer.hart(hart), nil
}
