package trap

import (
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/riscv"
)

const (
	// FrameRegs is the number of registers in a TrapFrame.
	FrameRegs = 16
	// FrameSize is the stack space of a TrapFrame on RV64.
	FrameSize = FrameRegs * 8
	// StackAlign is the stack pointer alignment the ABI requires.
	StackAlign = 16
)

// frameOrder is the slot of each saved register, slot i at sp+8i.
var frameOrder = [FrameRegs]riscv.Reg{
	riscv.RA,
	riscv.T0, riscv.T1, riscv.T2, riscv.T3, riscv.T4, riscv.T5, riscv.T6,
	riscv.A0, riscv.A1, riscv.A2, riscv.A3, riscv.A4, riscv.A5, riscv.A6, riscv.A7,
}

// a0Slot is where the vectored trampolines park a0.
const a0Slot = 8

// TrapFrame holds the caller-saved registers of the interrupted code.
// The callee-saved registers survive the handler by the calling
// convention, so they are not part of it.  Exception handlers may edit
// the frame; the edits land in the registers on return from the trap.
type TrapFrame struct {
	RA                             uint64
	T0, T1, T2, T3, T4, T5, T6     uint64
	A0, A1, A2, A3, A4, A5, A6, A7 uint64
}

func (tf *TrapFrame) slots() [FrameRegs]*uint64 {
	return [FrameRegs]*uint64{
		&tf.RA,
		&tf.T0, &tf.T1, &tf.T2, &tf.T3, &tf.T4, &tf.T5, &tf.T6,
		&tf.A0, &tf.A1, &tf.A2, &tf.A3, &tf.A4, &tf.A5, &tf.A6, &tf.A7,
	}
}

// Reg returns slot i and the register stored there.
func (tf *TrapFrame) Reg(i int) (riscv.Reg, uint64) {
	return frameOrder[i], *tf.slots()[i]
}

// Save copies the registers of h into the frame.
func (tf *TrapFrame) Save(h riscv.Hart) {
	for i, p := range tf.slots() {
		*p = h.Reg(frameOrder[i])
	}
}

// Restore copies the frame back into the registers of h.
func (tf *TrapFrame) Restore(h riscv.Hart) {
	for i, p := range tf.slots() {
		h.SetReg(frameOrder[i], *p)
	}
}

// MarshalTo stores the frame at addr in its stack layout.
func (tf *TrapFrame) MarshalTo(bus mmio.Bus, addr uintptr) {
	for i, p := range tf.slots() {
		bus.Write64(addr+8*uintptr(i), *p)
	}
}

// LoadFrom reads a frame stored by MarshalTo.
func (tf *TrapFrame) LoadFrom(bus mmio.Bus, addr uintptr) {
	for i, p := range tf.slots() {
		*p = bus.Read64(addr + 8*uintptr(i))
	}
}

// allocFrame reserves a frame below the current stack pointer of h and
// returns its address.
func allocFrame(h riscv.Hart) uintptr {
	sp := h.Reg(riscv.SP) - FrameSize
	h.SetReg(riscv.SP, sp)
	return uintptr(sp)
}

func freeFrame(h riscv.Hart) {
	h.SetReg(riscv.SP, h.Reg(riscv.SP)+FrameSize)
}
