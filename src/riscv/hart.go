// Package riscv describes the parts of a RISC-V hart that the runtime
// touches: control and status registers, the integer register file, the
// trap cause encoding and the standard machine-level number spaces.
package riscv

//go:generate numgen -p riscv -o zz_exception.go ../tools/numgen/decl/machine_exception.go
//go:generate numgen -p riscv -o zz_interrupt.go ../tools/numgen/decl/machine_interrupt.go

// CSR is a control and status register number.
type CSR uint16

const (
	Fcsr     CSR = 0x003
	Mstatus  CSR = 0x300
	Misa     CSR = 0x301
	Mie      CSR = 0x304
	Mtvec    CSR = 0x305
	Mscratch CSR = 0x340
	Mepc     CSR = 0x341
	Mcause   CSR = 0x342
	Mtval    CSR = 0x343
	Mip      CSR = 0x344
	Mhartid  CSR = 0xf14
)

func (c CSR) String() string {
	switch c {
	case Fcsr:
		return "fcsr"
	case Mstatus:
		return "mstatus"
	case Misa:
		return "misa"
	case Mie:
		return "mie"
	case Mtvec:
		return "mtvec"
	case Mscratch:
		return "mscratch"
	case Mepc:
		return "mepc"
	case Mcause:
		return "mcause"
	case Mtval:
		return "mtval"
	case Mip:
		return "mip"
	case Mhartid:
		return "mhartid"
	}
	return "csr?"
}

// Reg is an integer register, x0 through x31.
type Reg uint8

const (
	Zero Reg = iota
	RA
	SP
	GP
	TP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6
)

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func (r Reg) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return "x?"
}

// Hart is one hardware thread as seen by code running on it.  On a real
// target each method is a single instruction (csrr, csrw, csrrs, csrrc,
// a register move, wfi).  Implementations must only be used from the
// hart's own instruction stream.
type Hart interface {
	ReadCSR(csr CSR) uint64
	WriteCSR(csr CSR, value uint64)
	// SetCSR sets bits and returns the previous value (csrrs).
	SetCSR(csr CSR, bits uint64) uint64
	// ClearCSR clears bits and returns the previous value (csrrc).
	ClearCSR(csr CSR, bits uint64) uint64
	Reg(r Reg) uint64
	SetReg(r Reg, value uint64)
	// WaitForInterrupt stalls until an enabled interrupt is pending.  It
	// may return early, callers loop.
	WaitForInterrupt()
}

// HartID reads mhartid.
func HartID(h Hart) uint {
	return uint(h.ReadCSR(Mhartid))
}

// Halter is implemented by harts that can be stopped from software, such
// as simulated ones.
type Halter interface {
	Halt()
}

// Park stops the calling hart for good: a Halter is halted, anything else
// spins in wfi.
func Park(h Hart) {
	if x, ok := h.(Halter); ok {
		x.Halt()
		return
	}
	for {
		h.WaitForInterrupt()
	}
}
