// Package virt describes the QEMU virt machine: where its devices live and
// the number spaces of its interrupt wiring.
package virt

//go:generate numgen -p virt -o zz_source.go ../../tools/numgen/decl/virt_source.go
//go:generate numgen -p virt -o zz_priority.go ../../tools/numgen/decl/virt_priority.go
//go:generate numgen -p virt -o zz_hart.go ../../tools/numgen/decl/virt_hart.go

const (
	CLINTBase = 0x0200_0000
	// The ACLINT SSWI sits after the legacy CLINT window.
	SSWIBase = 0x0200_c000
	PLICBase = 0x0c00_0000
	PLICSize = 0x0400_0000
	UARTBase = 0x1000_0000
	UARTSize = 0x100
	RAMBase  = 0x8000_0000

	// TimebaseFrequency is the MTIME tick rate in Hz.
	TimebaseFrequency = 10_000_000
)

// MachineContext is the PLIC context of a hart's M-mode.  virt gives each
// hart an M context followed by an S context.
func MachineContext(hart uint) uint {
	return 2 * hart
}

// SupervisorContext is the PLIC context of a hart's S-mode.
func SupervisorContext(hart uint) uint {
	return 2*hart + 1
}

// Contexts is the number of PLIC contexts on a board with harts 0..maxHart.
func Contexts(maxHart uint) uint {
	return 2 * (maxHart + 1)
}
