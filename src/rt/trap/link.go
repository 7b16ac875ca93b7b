package trap

import (
	"fmt"

	"riscvrt/src/riscv"
)

const (
	// entryAlign spaces entry points the way .align 4 does for the
	// assembly trampolines.
	entryAlign = 16
	// VectorAlign is the alignment of the vector table.  Some cores
	// ignore the low bits of a vectored mtvec, 256 satisfies all of them.
	VectorAlign = 256
)

// Image is the trap code of a dispatcher placed in memory: its symbols
// and the encoded vector table.
type Image struct {
	Symbols    *SymbolTable
	StartTrap  uint64
	VectorBase uint64
	Vector     []uint32
	End        uint64
}

type linker struct {
	symbols *SymbolTable
	next    uint64
}

func (l *linker) place(name string, e Entry) (uint64, error) {
	addr := l.next
	if err := l.symbols.Define(name, addr, e); err != nil {
		return 0, err
	}
	l.next += entryAlign
	return addr, nil
}

// Link places the dispatcher's entry points from base upward and defines
// them in symbols.  In vectored mode it also lays out the vector table and
// one trampoline per registered interrupt.  Handler symbols carry the
// member names (for example MachineTimer) and the trampolines find them
// by address, as la a0 would.
func (d *Dispatcher) Link(base uint64, symbols *SymbolTable) (*Image, error) {
	l := &linker{symbols: symbols, next: alignUp(base, entryAlign)}
	img := &Image{Symbols: symbols}

	var err error
	if img.StartTrap, err = l.place(StartTrap, d.StartTrap); err != nil {
		return nil, err
	}
	if _, err = l.place(ExceptionHandlerName, d.exceptionEntry(d.exceptionHandler)); err != nil {
		return nil, err
	}
	if _, err = l.place(DefaultHandlerName, Entry(d.defaultHandler)); err != nil {
		return nil, err
	}
	if d.mode == riscv.Vectored {
		if err = d.linkVectored(l, img); err != nil {
			return nil, err
		}
	}
	img.End = l.next
	return img, nil
}

func (d *Dispatcher) linkVectored(l *linker, img *Image) error {
	cont := d.continueInterruptTrap(l.symbols)
	if _, err := l.place(ContinueInterruptTrap, cont); err != nil {
		return err
	}
	def, ok := l.symbols.Lookup(DefaultHandlerName)
	if !ok {
		return fmt.Errorf("%s not linked", DefaultHandlerName)
	}
	if _, err := l.place(DefaultHandlerTrap, d.interruptTrampoline(def.Addr, cont)); err != nil {
		return err
	}
	for _, code := range d.interrupts.Present() {
		handler, _ := d.interrupts.Lookup(code)
		name := d.interrupts.Name(code)
		addr, err := l.place(name, Entry(handler))
		if err != nil {
			return err
		}
		if _, err := l.place(InterruptTrap(name), d.interruptTrampoline(addr, cont)); err != nil {
			return err
		}
	}

	vt := NewVectorTable(d.interrupts)
	img.VectorBase = alignUp(l.next, VectorAlign)
	if err := l.symbols.Define(VectorTableSymbol, img.VectorBase, nil); err != nil {
		return err
	}
	words, err := vt.Encode(img.VectorBase, l.symbols)
	if err != nil {
		return err
	}
	img.Vector = words
	l.next = img.VectorBase + vt.Size()
	return nil
}

// exceptionEntry lets ExceptionHandler be called through the symbol
// table; it finds the frame StartTrap pushed.
func (d *Dispatcher) exceptionEntry(handler ExceptionHandler) Entry {
	return func(h riscv.Hart) {
		var tf TrapFrame
		addr := uintptr(h.Reg(riscv.SP))
		tf.LoadFrom(d.bus, addr)
		handler(h, &tf)
		tf.MarshalTo(d.bus, addr)
	}
}

// interruptTrampoline is _start_<Name>_trap: make room for a frame, save
// a0 only, load the handler address into a0 and continue in the shared
// trampoline.
func (d *Dispatcher) interruptTrampoline(handler uint64, cont Entry) Entry {
	return func(h riscv.Hart) {
		addr := allocFrame(h)
		d.bus.Write64(addr+8*a0Slot, h.Reg(riscv.A0))
		h.SetReg(riscv.A0, handler)
		cont(h)
	}
}

// continueInterruptTrap is the shared second half of every trampoline.
// It saves everything but a0, calls the handler whose address is in a0,
// restores the whole frame and frees it.
func (d *Dispatcher) continueInterruptTrap(symbols *SymbolTable) Entry {
	return func(h riscv.Hart) {
		addr := uintptr(h.Reg(riscv.SP))
		var tf TrapFrame
		tf.Save(h)
		for i, p := range tf.slots() {
			if i != a0Slot {
				d.bus.Write64(addr+8*uintptr(i), *p)
			}
		}

		target := h.Reg(riscv.A0)
		if sym, ok := symbols.At(target); ok && sym.Entry != nil {
			sym.Entry(h)
		} else {
			d.log.Errorf("no handler at %#x", target)
			d.defaultHandler(h)
		}

		tf.LoadFrom(d.bus, addr)
		tf.Restore(h)
		freeFrame(h)
	}
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
