package aclint

import (
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/numspace"
	"riscvrt/src/riscv"
)

// NoDeadline is written to MTIMECMP to keep the timer from firing.
const NoDeadline = ^uint64(0)

// MTIMER is the machine timer: one shared free running MTIME and a compare
// register per hart.  A hart's timer interrupt is pending while
// MTIME >= MTIMECMP.
type MTIMER struct {
	bus          mmio.Bus
	mtimecmpBase uintptr
	mtime        uintptr
}

func NewMTIMER(bus mmio.Bus, mtimecmpBase, mtime uintptr) MTIMER {
	return MTIMER{bus: bus, mtimecmpBase: mtimecmpBase, mtime: mtime}
}

// MTIMECMP returns hart h's compare register at mtimecmpBase+8h.
func (t MTIMER) MTIMECMP(h numspace.HartIdNumber) mmio.Register64 {
	return t.mtimecmp(h.Number())
}

func (t MTIMER) mtimecmp(hart uint) mmio.Register64 {
	return mmio.Reg64(t.bus, t.mtimecmpBase+8*uintptr(hart))
}

func (t MTIMER) MTIME() mmio.Register64 {
	return mmio.Reg64(t.bus, t.mtime)
}

// Hart binds the timer to one hart.
func (t MTIMER) Hart(h numspace.HartIdNumber) HartTimer {
	return t.hart(h.Number())
}

func (t MTIMER) hart(hart uint) HartTimer {
	return HartTimer{mtime: t.MTIME(), mtimecmp: t.mtimecmp(hart)}
}

// HartTimer is the shared counter plus one hart's comparator.
type HartTimer struct {
	mtime    mmio.Register64
	mtimecmp mmio.Register64
}

func (h HartTimer) Now() uint64            { return h.mtime.Get() }
func (h HartTimer) Compare() uint64        { return h.mtimecmp.Get() }
func (h HartTimer) SetCompare(v uint64)    { h.mtimecmp.Set(v) }
func (h HartTimer) ClearCompare()          { h.mtimecmp.Set(NoDeadline) }
func (h HartTimer) Fired() bool            { return h.Now() >= h.Compare() }
func (h HartTimer) MTIME() mmio.Register64 { return h.mtime }

// EnableMTI sets mie.MTIE on the calling hart.
func EnableMTI(h riscv.Hart) {
	riscv.EnableInterrupt(h, riscv.MachineTimer)
}

func DisableMTI(h riscv.Hart) {
	riscv.DisableInterrupt(h, riscv.MachineTimer)
}
