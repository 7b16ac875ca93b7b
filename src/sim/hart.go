package sim

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"riscvrt/src/hardware/mmio"
	"riscvrt/src/hardware/virt"
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
	"riscvrt/src/rt/trap"
)

// interrupts in the order a hart takes them when several are pending
var interruptOrder = []riscv.Interrupt{
	riscv.MachineExternal,
	riscv.MachineSoft,
	riscv.MachineTimer,
	riscv.SupervisorExternal,
	riscv.SupervisorSoft,
	riscv.SupervisorTimer,
}

// bits of mip that software may write, the rest are wired to devices
const mipWritable = uint64(1)<<riscv.SupervisorSoft | uint64(1)<<riscv.SupervisorTimer | uint64(1)<<riscv.SupervisorExternal

// storms longer than this are reported as a handler that does not
// quiet its source
const stormLimit = 1 << 20

// Hart is one simulated hart.  It implements riscv.Hart and
// riscv.Halter.  Interrupts are taken when software changes mstatus, mie
// or mip, and in WaitForInterrupt; traps run the code found through mtvec
// on the hart's own goroutine and return with mret.
type Hart struct {
	m  *Machine
	id uint

	mu   sync.Mutex
	csr  map[riscv.CSR]uint64
	regs [32]uint64
	pc   uint64

	wake   chan struct{}
	halted atomic.Bool
	traps  atomic.Uint64
	log    *trust.Logger
}

func newHart(m *Machine, id uint) *Hart {
	h := &Hart{
		m:    m,
		id:   id,
		csr:  map[riscv.CSR]uint64{riscv.Mhartid: uint64(id)},
		wake: make(chan struct{}, 1),
		log:  m.log.WithPrefix(fmt.Sprintf("hart%d", id)),
	}
	h.csr[riscv.Mstatus] = riscv.WithMPP(0, riscv.Machine)
	// QEMU passes the hart id in a0
	h.regs[riscv.A0] = uint64(id)
	return h
}

func (h *Hart) ID() uint          { return h.id }
func (h *Hart) Traps() uint64     { return h.traps.Load() }
func (h *Hart) Halted() bool      { return h.halted.Load() }
func (h *Hart) Machine() *Machine { return h.m }

func (h *Hart) poke() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// lines is the part of mip driven by devices.
func (h *Hart) lines() uint64 {
	var mip uint64
	if h.m.CLINT.SoftPending(h.id) {
		mip |= 1 << riscv.MachineSoft
	}
	if h.m.CLINT.TimerPending(h.id) {
		mip |= 1 << riscv.MachineTimer
	}
	if h.m.PLIC.Line(virt.MachineContext(h.id)) {
		mip |= 1 << riscv.MachineExternal
	}
	if h.m.SSWI.Pending(h.id) {
		mip |= 1 << riscv.SupervisorSoft
	}
	if h.m.PLIC.Line(virt.SupervisorContext(h.id)) {
		mip |= 1 << riscv.SupervisorExternal
	}
	return mip
}

func (h *Hart) ReadCSR(c riscv.CSR) uint64 {
	if c == riscv.Mip {
		lines := h.lines()
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.csr[riscv.Mip] | lines
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.csr[c]
}

// update applies fn to a csr and returns the old value.  Changes to the
// interrupt enables and pendings may trap.
func (h *Hart) update(c riscv.CSR, fn func(old uint64) uint64) uint64 {
	if c == riscv.Mhartid {
		return uint64(h.id)
	}
	h.mu.Lock()
	old := h.csr[c]
	v := fn(old)
	if c == riscv.Mip {
		v = old&^mipWritable | v&mipWritable
	}
	h.csr[c] = v
	h.mu.Unlock()
	switch c {
	case riscv.Mstatus, riscv.Mie, riscv.Mip:
		h.deliver()
	}
	return old
}

func (h *Hart) WriteCSR(c riscv.CSR, v uint64) {
	h.update(c, func(uint64) uint64 { return v })
}

func (h *Hart) SetCSR(c riscv.CSR, bits uint64) uint64 {
	return h.update(c, func(old uint64) uint64 { return old | bits })
}

func (h *Hart) ClearCSR(c riscv.CSR, bits uint64) uint64 {
	return h.update(c, func(old uint64) uint64 { return old &^ bits })
}

func (h *Hart) Reg(r riscv.Reg) uint64 { return h.regs[r&31] }

func (h *Hart) SetReg(r riscv.Reg, v uint64) {
	if r != riscv.Zero {
		h.regs[r&31] = v
	}
}

// PC is the address of the code the hart last entered.
func (h *Hart) PC() uint64 { return h.pc }

func (h *Hart) pendingEnabled() uint64 {
	lines := h.lines()
	h.mu.Lock()
	defer h.mu.Unlock()
	return (h.csr[riscv.Mip] | lines) & h.csr[riscv.Mie]
}

func (h *Hart) interruptsOn() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.csr[riscv.Mstatus]&riscv.MstatusMIE != 0
}

// deliver takes pending enabled interrupts, highest first, for as long
// as mstatus.MIE allows.
func (h *Hart) deliver() {
	var last riscv.Interrupt
	repeats := 0
	for h.interruptsOn() {
		pend := h.pendingEnabled()
		if pend == 0 {
			return
		}
		for _, i := range interruptOrder {
			if pend&(1<<i) == 0 {
				continue
			}
			if i == last {
				repeats++
				if repeats > stormLimit {
					h.log.Errorf("%s is never cleared by its handler", i)
					h.m.fail(fmt.Errorf("hart %d: interrupt storm on %s", h.id, i))
					h.m.stop()
					h.Halt()
				}
				if i == riscv.MachineTimer {
					// the handler left the comparator where it was, let
					// time pass the way it would while the handler ran
					h.m.CLINT.Advance(1)
				}
			} else {
				last, repeats = i, 0
			}
			h.take(riscv.MakeCause(true, i.Number()), 0)
			break
		}
	}
}

// Raise takes an exception, ecall or ebreak for example, at the current
// pc.
func (h *Hart) Raise(e riscv.Exception, tval uint64) {
	h.take(riscv.MakeCause(false, e.Number()), tval)
	h.deliver()
}

// take enters a trap: the hardware half of it updates mstatus, mepc,
// mcause and mtval, then the code at the mtvec target runs and mret
// returns.
func (h *Hart) take(cause riscv.Cause, tval uint64) {
	h.mu.Lock()
	st := h.csr[riscv.Mstatus]
	if st&riscv.MstatusMIE != 0 {
		st |= riscv.MstatusMPIE
	} else {
		st &^= riscv.MstatusMPIE
	}
	st &^= riscv.MstatusMIE
	h.csr[riscv.Mstatus] = riscv.WithMPP(st, riscv.Machine)
	h.csr[riscv.Mepc] = h.pc
	h.csr[riscv.Mcause] = uint64(cause)
	h.csr[riscv.Mtval] = tval
	target := riscv.MtvecFromBits(h.csr[riscv.Mtvec]).Target(cause)
	h.mu.Unlock()

	sym, err := h.resolve(target)
	if err != nil {
		h.log.Errorf("%s: %v", cause, err)
		h.m.fail(fmt.Errorf("hart %d: %s: %w", h.id, cause, err))
		h.Halt()
	}
	h.traps.Add(1)
	h.log.Debugf("%s -> %s", cause, sym.Name)
	h.pc = sym.Addr
	sym.Entry(h)
	h.mret()
}

func (h *Hart) resolve(pc uint64) (sym trap.Symbol, err error) {
	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(*mmio.BusError)
			if !ok {
				panic(r)
			}
			err = be
		}
	}()
	return trap.Resolve(h.m.Memory, h.m.Symbols, pc)
}

func (h *Hart) mret() {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.csr[riscv.Mstatus]
	if st&riscv.MstatusMPIE != 0 {
		st |= riscv.MstatusMIE
	} else {
		st &^= riscv.MstatusMIE
	}
	st |= riscv.MstatusMPIE
	h.csr[riscv.Mstatus] = riscv.WithMPP(st, riscv.Machine)
	h.pc = h.csr[riscv.Mepc]
}

// WaitForInterrupt returns once an enabled interrupt is pending, taking
// it first if mstatus.MIE is set.  When the whole machine is waiting,
// time moves on to the next timer deadline.
func (h *Hart) WaitForInterrupt() {
	for {
		if h.pendingEnabled() != 0 {
			h.deliver()
			return
		}
		if h.m.idle.Add(1) >= h.m.running.Load() {
			h.m.idleAdvance()
		}
		select {
		case <-h.wake:
			h.m.idle.Add(-1)
		case <-h.m.done:
			h.m.idle.Add(-1)
			h.Halt()
		}
	}
}

// Halt stops the hart for good.  It must be called from the hart's own
// goroutine and does not return.
func (h *Hart) Halt() {
	h.exited()
	runtime.Goexit()
}

func (h *Hart) exited() {
	if h.halted.Swap(true) {
		return
	}
	h.log.Debugf("halted")
	if h.m.running.Add(-1) == 0 {
		h.m.stop()
		return
	}
	// the remaining harts may all be asleep now
	h.m.wakeAll()
}
