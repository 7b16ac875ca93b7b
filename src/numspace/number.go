// Package numspace maps raw hardware codes onto closed sets of named
// values.  Exception codes, core and external interrupt codes, priority
// levels and hart ids are each a separate number space.
package numspace

// Number is anything with a raw hardware code.
type Number interface {
	Number() uint
}

// ExceptionNumber is a synchronous trap cause code.
type ExceptionNumber interface {
	Number
	ExceptionNumber()
}

// InterruptNumber is an asynchronous trap cause code.
type InterruptNumber interface {
	Number
	InterruptNumber()
}

// CoreInterruptNumber is an interrupt code that appears directly in mcause.
// It is deliberately not an ExternalInterruptNumber.
type CoreInterruptNumber interface {
	InterruptNumber
	CoreInterruptNumber()
}

// ExternalInterruptNumber is a source id multiplexed by an interrupt
// controller such as the PLIC.  It never appears in mcause.
type ExternalInterruptNumber interface {
	InterruptNumber
	ExternalInterruptNumber()
}

type PriorityNumber interface {
	Number
	PriorityNumber()
}

type HartIdNumber interface {
	Number
	HartIdNumber()
}

// Set is the closed set of codes of one number space.
type Set interface {
	// Max is the largest registered code.
	Max() uint
	Contains(raw uint) bool
	// Codes returns the registered codes in increasing order.
	Codes() []uint
}

// Entry is one (name, code) pair of a number space.
type Entry struct {
	Name string
	Code uint
}

func (e Entry) Number() uint   { return e.Code }
func (e Entry) String() string { return e.Name }

type Exception struct{ Entry }

func (Exception) ExceptionNumber() {}

type CoreInterrupt struct{ Entry }

func (CoreInterrupt) InterruptNumber()     {}
func (CoreInterrupt) CoreInterruptNumber() {}

type ExternalInterrupt struct{ Entry }

func (ExternalInterrupt) InterruptNumber()         {}
func (ExternalInterrupt) ExternalInterruptNumber() {}

type Priority struct{ Entry }

func (Priority) PriorityNumber() {}

type HartId struct{ Entry }

func (HartId) HartIdNumber() {}
