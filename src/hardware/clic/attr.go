package clic

import (
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/lib/fault"
	"riscvrt/src/riscv"
)

type Trig uint8

const (
	Level Trig = 0
	Edge  Trig = 1
)

type Polarity uint8

const (
	Positive Polarity = 0
	Negative Polarity = 1
)

// INTATTR selects the privilege mode, trigger and polarity of an
// interrupt.  Bit 0 (shv) selects hardware vectoring.
type INTATTR struct {
	reg mmio.Register8
}

const (
	attrSHV      = 0x1
	attrTrigBit  = 1
	attrPolBit   = 2
	attrModeMask = 0x3
	attrModePos  = 6
)

func (a INTATTR) Address() uintptr { return a.reg.Address() }

// Mode is the privilege level the interrupt is taken in.  The reserved
// encoding 0b10 is an InvalidFieldVariantError.
func (a INTATTR) Mode() (riscv.Privilege, error) {
	v := (a.reg.Get() >> attrModePos) & attrModeMask
	switch riscv.Privilege(v) {
	case riscv.User, riscv.Supervisor, riscv.Machine:
		return riscv.Privilege(v), nil
	}
	return 0, &fault.InvalidFieldVariantError{Field: "intattr.mode", Value: uint64(v)}
}

func (a INTATTR) SetMode(p riscv.Privilege) {
	a.reg.ReplaceBits(uint8(p), attrModeMask, attrModePos)
}

func (a INTATTR) Trig() Trig {
	return Trig((a.reg.Get() >> attrTrigBit) & 1)
}

func (a INTATTR) SetTrig(t Trig) {
	a.reg.ReplaceBits(uint8(t), 1, attrTrigBit)
}

func (a INTATTR) Polarity() Polarity {
	return Polarity((a.reg.Get() >> attrPolBit) & 1)
}

func (a INTATTR) SetPolarity(p Polarity) {
	a.reg.ReplaceBits(uint8(p), 1, attrPolBit)
}

func (a INTATTR) SHV() bool { return a.reg.HasBits(attrSHV) }

func (a INTATTR) SetSHV(on bool) {
	v := uint8(0)
	if on {
		v = 1
	}
	a.reg.ReplaceBits(v, 1, 0)
}
