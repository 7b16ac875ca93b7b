package riscv

import "fmt"

// InterruptBit is the top bit of mcause on RV64.
const InterruptBit = uint64(1) << 63

// Cause is the raw value of mcause.
type Cause uint64

// MakeCause builds the mcause value for an interrupt or exception code.
func MakeCause(interrupt bool, code uint) Cause {
	c := Cause(code) &^ Cause(InterruptBit)
	if interrupt {
		c |= Cause(InterruptBit)
	}
	return c
}

func (c Cause) IsInterrupt() bool {
	return uint64(c)&InterruptBit != 0
}

func (c Cause) IsException() bool {
	return !c.IsInterrupt()
}

// Code is the cause with the interrupt bit removed.
func (c Cause) Code() uint {
	return uint(uint64(c) &^ InterruptBit)
}

// Exception decodes an exception cause.  Interrupt causes and unknown
// codes are errors.
func (c Cause) Exception() (Exception, error) {
	if c.IsInterrupt() {
		return 0, fmt.Errorf("cause %#x is an interrupt", uint64(c))
	}
	return ExceptionFromNumber(c.Code())
}

// Interrupt decodes an interrupt cause.
func (c Cause) Interrupt() (Interrupt, error) {
	if !c.IsInterrupt() {
		return 0, fmt.Errorf("cause %#x is an exception", uint64(c))
	}
	return InterruptFromNumber(c.Code())
}

func (c Cause) String() string {
	if c.IsInterrupt() {
		if i, err := c.Interrupt(); err == nil {
			return "interrupt " + i.String()
		}
		return fmt.Sprintf("interrupt %d", c.Code())
	}
	if e, err := c.Exception(); err == nil {
		return "exception " + e.String()
	}
	return fmt.Sprintf("exception %d", c.Code())
}

// ReadCause reads mcause from h.
func ReadCause(h Hart) Cause {
	return Cause(h.ReadCSR(Mcause))
}
