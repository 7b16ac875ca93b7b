// Package clic drives the core-local interrupt controller.  Every
// interrupt has a 32 bit control word at base+0x1000+4n made of four byte
// registers: pending (IP), enable (IE), attributes (ATTR) and the
// level/priority byte (CTL).
package clic

import (
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/lib/fault"
	"riscvrt/src/numspace"
)

const (
	SMCLICCONFIGOffset = 0x0
	INTTRIGOffset      = 0x40
	INTTRIGStride      = 0x4
	// MaxTriggers is the number of INTTRIG registers.
	MaxTriggers = 32
	IntOffset   = 0x1000
	IntStride   = 0x4

	ipByte   = 0
	ieByte   = 1
	attrByte = 2
	ctlByte  = 3
)

type CLIC struct {
	bus  mmio.Bus
	base uintptr
}

func New(bus mmio.Bus, base uintptr) CLIC {
	return CLIC{bus: bus, base: base}
}

func (c CLIC) SMCLICCONFIG() SMCLICCONFIG {
	return SMCLICCONFIG{reg: mmio.Reg32(c.bus, c.base+SMCLICCONFIGOffset)}
}

// INTTRIG returns trigger register n, checked against MaxTriggers.
func (c CLIC) INTTRIG(n uint) (INTTRIG, error) {
	if err := fault.CheckIndex(n, 0, MaxTriggers-1); err != nil {
		return INTTRIG{}, err
	}
	return INTTRIG{reg: mmio.Reg32(c.bus, c.base+INTTRIGOffset+INTTRIGStride*uintptr(n))}, nil
}

func (c CLIC) word(i numspace.InterruptNumber) uintptr {
	return c.base + IntOffset + IntStride*uintptr(i.Number())
}

func (c CLIC) IP(i numspace.InterruptNumber) INTIP {
	return INTIP{reg: mmio.Reg8(c.bus, c.word(i)+ipByte)}
}

func (c CLIC) IE(i numspace.InterruptNumber) INTIE {
	return INTIE{reg: mmio.Reg8(c.bus, c.word(i)+ieByte)}
}

func (c CLIC) ATTR(i numspace.InterruptNumber) INTATTR {
	return INTATTR{reg: mmio.Reg8(c.bus, c.word(i)+attrByte)}
}

func (c CLIC) CTL(i numspace.InterruptNumber) INTCTL {
	return INTCTL{reg: mmio.Reg8(c.bus, c.word(i)+ctlByte)}
}

// SMCLICCONFIG holds the number of level bits (mnlbits, bits 0-3) and the
// number of privilege mode bits (nmbits, bits 4-5).
type SMCLICCONFIG struct {
	reg mmio.Register32
}

func (s SMCLICCONFIG) Address() uintptr { return s.reg.Address() }

func (s SMCLICCONFIG) MNLBITS() uint32 {
	return s.reg.Get() & 0xf
}

func (s SMCLICCONFIG) SetMNLBITS(v uint32) error {
	if v > 8 {
		return &fault.InvalidFieldValueError{Field: "mnlbits", Value: uint64(v), Bitmask: 0xf}
	}
	s.reg.ReplaceBits(v, 0xf, 0)
	return nil
}

func (s SMCLICCONFIG) NMBITS() uint32 {
	return (s.reg.Get() >> 4) & 0x3
}

func (s SMCLICCONFIG) SetNMBITS(v uint32) error {
	if v > 2 {
		return &fault.InvalidFieldValueError{Field: "nmbits", Value: uint64(v), Bitmask: 0x3}
	}
	s.reg.ReplaceBits(v, 0x3, 4)
	return nil
}

// INTTRIG raises an interrupt on a debug trigger match.
type INTTRIG struct {
	reg mmio.Register32
}

const (
	TrigEnable  = uint32(1) << 31
	TrigNXTI    = uint32(1) << 30
	trigNumMask = 0x1fff
)

func (t INTTRIG) Address() uintptr { return t.reg.Address() }
func (t INTTRIG) Enabled() bool    { return t.reg.HasBits(TrigEnable) }
func (t INTTRIG) Enable()          { t.reg.SetBits(TrigEnable) }
func (t INTTRIG) Disable()         { t.reg.ClearBits(TrigEnable) }

// Interrupt is the interrupt number raised by the trigger.
func (t INTTRIG) Interrupt() uint {
	return uint(t.reg.Get() & trigNumMask)
}

func (t INTTRIG) SetInterrupt(i numspace.InterruptNumber) error {
	if i.Number() > trigNumMask {
		return &fault.InvalidFieldValueError{Field: "inttrig", Value: uint64(i.Number()), Bitmask: trigNumMask}
	}
	t.reg.ReplaceBits(uint32(i.Number()), trigNumMask, 0)
	return nil
}

type INTIP struct {
	reg mmio.Register8
}

func (p INTIP) Address() uintptr { return p.reg.Address() }
func (p INTIP) IsPending() bool  { return p.reg.HasBits(1) }
func (p INTIP) Pend()            { p.reg.ReplaceBits(1, 1, 0) }
func (p INTIP) Unpend()          { p.reg.ReplaceBits(0, 1, 0) }

type INTIE struct {
	reg mmio.Register8
}

func (e INTIE) Address() uintptr { return e.reg.Address() }
func (e INTIE) IsEnabled() bool  { return e.reg.Get() != 0 }
func (e INTIE) Enable()          { e.reg.ReplaceBits(1, 1, 0) }
func (e INTIE) Disable()         { e.reg.ReplaceBits(0, 1, 0) }

// INTCTL is the level and priority byte.  How many of its top bits are
// level is set by SMCLICCONFIG.MNLBITS.
type INTCTL struct {
	reg mmio.Register8
}

func (c INTCTL) Address() uintptr { return c.reg.Address() }
func (c INTCTL) Get() uint8       { return c.reg.Get() }
func (c INTCTL) Set(v uint8)      { c.reg.Set(v) }

// Level is the level part of the byte given nlbits level bits.  The
// unused low bits read as ones.
func (c INTCTL) Level(nlbits uint32) uint8 {
	if nlbits > 8 {
		nlbits = 8
	}
	keep := uint8(0xff) << (8 - nlbits)
	return c.Get()&keep | ^keep
}
