package riscv

// Enable sets mstatus.MIE.  Enabling interrupts inside a critical section
// built on Free breaks that section.
func Enable(h Hart) {
	h.SetCSR(Mstatus, MstatusMIE)
}

// Disable clears mstatus.MIE.
func Disable(h Hart) {
	h.ClearCSR(Mstatus, MstatusMIE)
}

// Enabled reports mstatus.MIE.
func Enabled(h Hart) bool {
	return h.ReadCSR(Mstatus)&MstatusMIE != 0
}

// EnableInterrupt sets the mie bit for one core interrupt.
func EnableInterrupt(h Hart, i Interrupt) {
	h.SetCSR(Mie, uint64(1)<<i.Number())
}

// DisableInterrupt clears the mie bit for one core interrupt.
func DisableInterrupt(h Hart, i Interrupt) {
	h.ClearCSR(Mie, uint64(1)<<i.Number())
}

func IsInterruptEnabled(h Hart, i Interrupt) bool {
	return h.ReadCSR(Mie)&(uint64(1)<<i.Number()) != 0
}

func IsInterruptPending(h Hart, i Interrupt) bool {
	return h.ReadCSR(Mip)&(uint64(1)<<i.Number()) != 0
}

// Free runs fn with machine interrupts disabled and restores MIE
// afterwards to whatever it was.
func Free(h Hart, fn func()) {
	prev := h.ClearCSR(Mstatus, MstatusMIE)
	defer func() {
		if prev&MstatusMIE != 0 {
			h.SetCSR(Mstatus, MstatusMIE)
		}
	}()
	fn()
}

// Nested runs fn with machine interrupts enabled from inside a trap
// handler.  A nested trap overwrites mepc, MPIE and MPP, so they are saved
// here and put back before returning.  Only call it from a handler, and
// only when the handler can tolerate being interrupted.
func Nested(h Hart, fn func()) {
	mstatus := h.ReadCSR(Mstatus)
	mepc := h.ReadCSR(Mepc)

	h.SetCSR(Mstatus, MstatusMIE)
	fn()
	if mstatus&MstatusMIE == 0 {
		h.ClearCSR(Mstatus, MstatusMIE)
	}

	after := h.ReadCSR(Mstatus)
	if mstatus&MstatusMPIE != 0 {
		after |= MstatusMPIE
	}
	after = WithMPP(after, MPP(mstatus))
	h.WriteCSR(Mstatus, after)
	h.WriteCSR(Mepc, mepc)
}
