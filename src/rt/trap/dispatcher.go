// Package trap routes traps to handlers.  In direct mode every trap
// enters StartTrap, which saves a TrapFrame and dispatches on mcause.  In
// vectored mode interrupts enter through a table of jumps, one per
// interrupt code, and reach their handler through small trampolines.
package trap

import (
	"fmt"

	"riscvrt/src/hardware/mmio"
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
)

// ExceptionHandler services a synchronous trap.  It may edit the frame,
// and is responsible for moving mepc past the faulting instruction when
// execution should continue after it.
type ExceptionHandler func(h riscv.Hart, tf *TrapFrame)

// InterruptHandler services a core interrupt.  Interrupt handlers get no
// frame.
type InterruptHandler func(h riscv.Hart)

type Config struct {
	Mode       riscv.TrapMode
	Exceptions *Table[ExceptionHandler]
	Interrupts *Table[InterruptHandler]
	// ExceptionHandler catches exceptions without a table entry.
	ExceptionHandler ExceptionHandler
	// DefaultHandler catches interrupts without a table entry.
	DefaultHandler InterruptHandler
	Log            *trust.Logger
}

// Dispatcher holds the immutable dispatch tables of the runtime.  One
// Dispatcher serves every hart; frames live on each hart's own stack.
type Dispatcher struct {
	bus              mmio.Bus
	mode             riscv.TrapMode
	exceptions       *Table[ExceptionHandler]
	interrupts       *Table[InterruptHandler]
	exceptionHandler ExceptionHandler
	defaultHandler   InterruptHandler
	log              *trust.Logger
}

// New checks cfg and fills in the default handlers.  Frames are pushed
// through bus, which must map every hart's stack.
func New(bus mmio.Bus, cfg Config) (*Dispatcher, error) {
	if bus == nil {
		return nil, fmt.Errorf("trap frames need a bus")
	}
	if cfg.Mode != riscv.Direct && cfg.Mode != riscv.Vectored {
		return nil, fmt.Errorf("unsupported trap mode %s", cfg.Mode)
	}
	d := &Dispatcher{
		bus:              bus,
		mode:             cfg.Mode,
		exceptions:       cfg.Exceptions,
		interrupts:       cfg.Interrupts,
		exceptionHandler: cfg.ExceptionHandler,
		defaultHandler:   cfg.DefaultHandler,
		log:              cfg.Log,
	}
	if d.log == nil {
		d.log = trust.Default()
	}
	if d.exceptions == nil {
		d.exceptions = MustTable(riscv.Exceptions, map[riscv.Exception]ExceptionHandler{})
	}
	if d.interrupts == nil {
		d.interrupts = MustTable(riscv.Interrupts, map[riscv.Interrupt]InterruptHandler{})
	}
	if d.exceptionHandler == nil {
		d.exceptionHandler = DefaultExceptionHandler(d.log)
	}
	if d.defaultHandler == nil {
		d.defaultHandler = DefaultInterruptHandler(d.log)
	}
	return d, nil
}

func (d *Dispatcher) Mode() riscv.TrapMode                 { return d.mode }
func (d *Dispatcher) Exceptions() *Table[ExceptionHandler] { return d.exceptions }
func (d *Dispatcher) Interrupts() *Table[InterruptHandler] { return d.interrupts }

// StartTrap is the direct mode entry and slot 0 of the vector table.  It
// pushes a frame, dispatches on mcause and pops the frame.
func (d *Dispatcher) StartTrap(h riscv.Hart) {
	var tf TrapFrame
	tf.Save(h)
	addr := allocFrame(h)
	tf.MarshalTo(d.bus, addr)

	d.Dispatch(h, &tf)

	// the stack copy holds the handler's edits until the frame is popped
	tf.MarshalTo(d.bus, addr)
	tf.Restore(h)
	freeFrame(h)
}

// Dispatch routes the trap described by mcause.
func (d *Dispatcher) Dispatch(h riscv.Hart, tf *TrapFrame) {
	cause := riscv.ReadCause(h)
	if cause.IsInterrupt() {
		d.dispatchInterrupt(h, cause.Code())
		return
	}
	if handler, ok := d.exceptions.Lookup(cause.Code()); ok {
		handler(h, tf)
		return
	}
	d.exceptionHandler(h, tf)
}

func (d *Dispatcher) dispatchInterrupt(h riscv.Hart, code uint) {
	if handler, ok := d.interrupts.Lookup(code); ok {
		handler(h)
		return
	}
	d.defaultHandler(h)
}

// MtvecFor is the mtvec value that installs this dispatcher from img.
func (d *Dispatcher) MtvecFor(img *Image) riscv.MtvecValue {
	if d.mode == riscv.Vectored {
		return riscv.NewMtvec(img.VectorBase, riscv.Vectored)
	}
	return riscv.NewMtvec(img.StartTrap, riscv.Direct)
}

// Install writes the dispatcher's mtvec on the calling hart.
func (d *Dispatcher) Install(h riscv.Hart, img *Image) {
	riscv.WriteMtvec(h, d.MtvecFor(img))
}
