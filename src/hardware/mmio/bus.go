// Package mmio is typed access to memory mapped registers.  Everything
// goes through a Bus so that the same driver code runs against real
// hardware (DevMem) or the in-memory model (Memory) used by tests and
// the simulator.
package mmio

import "fmt"

// Bus performs naturally aligned little-endian loads and stores.  Each
// call is one access; implementations must not merge, split or cache
// them.
type Bus interface {
	Read8(addr uintptr) uint8
	Write8(addr uintptr, v uint8)
	Read32(addr uintptr) uint32
	Write32(addr uintptr, v uint32)
	Read64(addr uintptr) uint64
	Write64(addr uintptr, v uint64)
}

// AtomicBus adds the A extension's amoor.w and amoand.w.  Both return the
// previous value of the word.
type AtomicBus interface {
	Bus
	Or32(addr uintptr, bits uint32) uint32
	And32(addr uintptr, bits uint32) uint32
}

// BusError is raised (as a panic) for an access no region answers, the
// hosted equivalent of an access fault.
type BusError struct {
	Addr  uintptr
	Size  int
	Write bool
}

func (e *BusError) Error() string {
	op := "load"
	if e.Write {
		op = "store"
	}
	return fmt.Sprintf("bus error: %d byte %s at %#x", e.Size, op, e.Addr)
}

func checkAlign(addr uintptr, size int, write bool) {
	if addr%uintptr(size) != 0 {
		panic(&BusError{Addr: addr, Size: size, Write: write})
	}
}
