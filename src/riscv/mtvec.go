package riscv

import "riscvrt/src/lib/fault"

// TrapMode is the low two bits of mtvec.
type TrapMode uint64

const (
	Direct   TrapMode = 0
	Vectored TrapMode = 1
)

func (m TrapMode) String() string {
	switch m {
	case Direct:
		return "direct"
	case Vectored:
		return "vectored"
	}
	return "reserved"
}

// MtvecValue is a value for mtvec, built before it is written.
type MtvecValue struct {
	bits uint64
}

// NewMtvec packs a base address and mode.  The base must be 4 byte
// aligned, the low bits belong to the mode.
func NewMtvec(address uint64, mode TrapMode) MtvecValue {
	var v MtvecValue
	v.SetAddress(address)
	v.SetMode(mode)
	return v
}

// MtvecFromBits wraps a raw mtvec read.
func MtvecFromBits(bits uint64) MtvecValue {
	return MtvecValue{bits: bits}
}

func (v MtvecValue) Bits() uint64 { return v.bits }

func (v MtvecValue) Address() uint64 {
	return v.bits &^ 0b11
}

func (v *MtvecValue) SetAddress(address uint64) {
	v.bits = address&^0b11 | v.bits&0b11
}

// Mode returns the trap mode or an error for the reserved encodings.
func (v MtvecValue) Mode() (TrapMode, error) {
	m := TrapMode(v.bits & 0b11)
	if m != Direct && m != Vectored {
		return m, &fault.InvalidFieldVariantError{Field: "mtvec.mode", Value: uint64(m)}
	}
	return m, nil
}

func (v *MtvecValue) SetMode(mode TrapMode) {
	v.bits = v.bits&^0b11 | uint64(mode)&0b11
}

// Target is where a trap with the given cause enters: the base for
// exceptions and in direct mode, base+4*code for vectored interrupts.
func (v MtvecValue) Target(c Cause) uint64 {
	mode, err := v.Mode()
	if err == nil && mode == Vectored && c.IsInterrupt() {
		return v.Address() + 4*uint64(c.Code())
	}
	return v.Address()
}

// WriteMtvec installs v.
func WriteMtvec(h Hart, v MtvecValue) {
	h.WriteCSR(Mtvec, v.Bits())
}

// ReadMtvec reads the current trap vector.
func ReadMtvec(h Hart) MtvecValue {
	return MtvecFromBits(h.ReadCSR(Mtvec))
}
