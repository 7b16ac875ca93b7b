// Package ns16550 drives the 16550 compatible UART found on the QEMU virt
// board.  Registers are one byte wide and one byte apart.
package ns16550

import (
	"riscvrt/src/hardware/mmio"
)

// register offsets
const (
	RBR = 0 // receive buffer, read
	THR = 0 // transmit holding, write
	IER = 1
	IIR = 2 // interrupt identification, read
	FCR = 2 // fifo control, write
	LCR = 3
	MCR = 4
	LSR = 5
	MSR = 6
	SCR = 7

	Size = 8
)

// interrupt enable register bitfields
const ReceiveDataAvailable = 1 << 0
const TransmitHoldingEmpty = 1 << 1

// interrupt identification register bitfields
const NoInterruptPending = 1 << 0
const ReceiveInterruptID = 2 << 1
const TransmitInterruptID = 1 << 1

// fifo control register bitfields
const EnableFIFO = 1 << 0
const ClearReceiveFIFO = 1 << 1
const ClearTransmitFIFO = 1 << 2

// line control register bitfields
const DataLength8Bits = 3 << 0
const DLab = 1 << 7

// line status register bitfields
const DataReady = 1 << 0
const OverrunError = 1 << 1
const TransmitHoldingEmptyStatus = 1 << 5
const TransmitterIdle = 1 << 6

type UART struct {
	bus  mmio.Bus
	base uintptr
}

func New(bus mmio.Bus, base uintptr) UART {
	return UART{bus: bus, base: base}
}

func (u UART) reg(off uintptr) mmio.Register8 {
	return mmio.Reg8(u.bus, u.base+off)
}

// Init sets 8N1 and turns the fifos on.  The divisor is left to
// firmware, the simulated part has no baud rate.
func (u UART) Init() {
	u.reg(IER).Set(0)
	u.reg(LCR).Set(DataLength8Bits)
	u.reg(FCR).Set(EnableFIFO | ClearReceiveFIFO | ClearTransmitFIFO)
}

func (u UART) EnableRxInterrupt()  { u.reg(IER).Set(u.reg(IER).Get() | ReceiveDataAvailable) }
func (u UART) DisableRxInterrupt() { u.reg(IER).Set(u.reg(IER).Get() &^ ReceiveDataAvailable) }

// WriteByte waits for the holding register to drain and sends b.
func (u UART) WriteByte(b byte) error {
	for !u.reg(LSR).HasBits(TransmitHoldingEmptyStatus) {
	}
	u.reg(THR).Set(b)
	return nil
}

func (u UART) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		u.WriteByte(s[i])
	}
	return len(s), nil
}

func (u UART) Write(p []byte) (int, error) {
	for _, b := range p {
		u.WriteByte(b)
	}
	return len(p), nil
}

// TryReadByte returns a received byte if one is waiting.
func (u UART) TryReadByte() (byte, bool) {
	if !u.reg(LSR).HasBits(DataReady) {
		return 0, false
	}
	return u.reg(RBR).Get(), true
}

// Drain reads every waiting byte.
func (u UART) Drain(fn func(b byte)) int {
	n := 0
	for {
		b, ok := u.TryReadByte()
		if !ok {
			return n
		}
		fn(b)
		n++
	}
}

func hexDigit(d uint64) byte {
	d &= 0xf
	if d > 9 {
		return byte(d) + 0x37
	}
	return byte(d) + 0x30
}

// Hex32 prints d as eight hex digits and a space.
func (u UART) Hex32(d uint32) {
	for rb := 32; rb > 0; rb -= 4 {
		u.WriteByte(hexDigit(uint64(d) >> uint(rb-4)))
	}
	u.WriteByte(0x20)
}

func (u UART) Hex64(d uint64) {
	for rb := 64; rb > 0; rb -= 4 {
		u.WriteByte(hexDigit(d >> uint(rb-4)))
	}
	u.WriteByte(0x20)
}

// Dump prints n bytes of memory from addr, sixteen to a line.
func (u UART) Dump(mem mmio.Bus, addr uintptr, n int) {
	for a := addr; a < addr+uintptr(n); a += 16 {
		u.Hex32(uint32(a))
		u.WriteString(": ")
		for b := uintptr(0); b < 16; b++ {
			c := mem.Read8(a + b)
			u.WriteByte(hexDigit(uint64(c) >> 4))
			u.WriteByte(hexDigit(uint64(c)))
			u.WriteByte(' ')
		}
		u.WriteString("\r\n")
	}
}
