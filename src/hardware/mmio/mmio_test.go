package mmio

import (
	"errors"
	"testing"

	"riscvrt/src/lib/fault"
)

// echo is a device that remembers the last store.
type echo struct {
	off  uintptr
	size int
	v    uint64
}

func (e *echo) Load(off uintptr, size int) uint64 { return e.v + uint64(off) }
func (e *echo) Store(off uintptr, size int, v uint64) {
	e.off, e.size, e.v = off, size, v
}

// plainBus hides the atomics of a Memory.
type plainBus struct{ Bus }

func expectBusError(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if _, ok := r.(*BusError); !ok {
			t.Errorf("expected a bus error but got %v", r)
		}
	}()
	fn()
}

func TestMemoryLittleEndian(t *testing.T) {
	m := NewMemory()
	if err := m.MapRAM("ram", 0x8000_0000, 0x1000); err != nil {
		t.Fatal(err)
	}
	m.Write64(0x8000_0008, 0x1122_3344_5566_7788)
	if m.Read32(0x8000_0008) != 0x5566_7788 || m.Read32(0x8000_000c) != 0x1122_3344 {
		t.Errorf("bad word split")
	}
	if m.Read8(0x8000_0008) != 0x88 {
		t.Errorf("bad byte order")
	}
	m.WriteBytes(0x8000_0100, []byte{1, 2, 3, 4})
	if m.Read32(0x8000_0100) != 0x0403_0201 {
		t.Errorf("WriteBytes not little endian: %#x", m.Read32(0x8000_0100))
	}
	if b := m.ReadBytes(0x8000_0101, 2); b[0] != 2 || b[1] != 3 {
		t.Errorf("bad ReadBytes %v", b)
	}
}

func TestMemoryFaults(t *testing.T) {
	m := NewMemory()
	m.MapRAM("ram", 0x1000, 0x100)
	expectBusError(t, func() { m.Read32(0x2000) })
	expectBusError(t, func() { m.Read32(0x1002) })
	expectBusError(t, func() { m.Write64(0x10fc, 0) })
	if err := m.MapRAM("overlap", 0x10f0, 0x100); err == nil {
		t.Errorf("expected overlap error")
	}
}

func TestDeviceRouting(t *testing.T) {
	m := NewMemory()
	dev := &echo{}
	m.MapDevice("echo", 0x0200_0000, 0x1_0000, dev)
	m.Write32(0x0200_4008, 7)
	if dev.off != 0x4008 || dev.size != 4 || dev.v != 7 {
		t.Errorf("device saw %#x/%d/%d", dev.off, dev.size, dev.v)
	}
	if m.Read64(0x0200_bff8) != 7+0xbff8 {
		t.Errorf("device load not routed")
	}
}

func TestRegisters(t *testing.T) {
	m := NewMemory()
	m.MapRAM("regs", 0x100, 0x100)
	r := Reg32(m, 0x104)
	r.Set(0xf0)
	r.SetBits(0x1)
	r.ClearBits(0x10)
	if r.Get() != 0xe1 {
		t.Errorf("bad bit ops %#x", r.Get())
	}
	r.ReplaceBits(0x5, 0x7, 8)
	if r.Get() != 0x5e1 || !r.HasBits(0x400) {
		t.Errorf("bad ReplaceBits %#x", r.Get())
	}
	if err := r.AtomicSetBits(0x8000_0000); err != nil || r.Get() != 0x8000_05e1 {
		t.Errorf("atomic set failed %v %#x", err, r.Get())
	}
	if err := r.AtomicClearBits(0x1); err != nil || r.Get() != 0x8000_05e0 {
		t.Errorf("atomic clear failed %v %#x", err, r.Get())
	}

	plain := Reg32(plainBus{m}, 0x104)
	if err := plain.AtomicSetBits(1); !errors.Is(err, fault.ErrUnimplemented) {
		t.Errorf("expected unimplemented without atomics, got %v", err)
	}

	r64 := Reg64(m, 0x110)
	r64.Set(0x0000_0001_ffff_ffff)
	if r64.Get32() != 0x0000_0001_ffff_ffff {
		t.Errorf("split read wrong %#x", r64.Get32())
	}
	b := Reg8(m, 0x121)
	b.ReplaceBits(0x3, 0x3, 6)
	if m.Read32(0x120) != 0xc000 || !b.HasBits(0x80) {
		t.Errorf("byte register landed wrong: %#x", m.Read32(0x120))
	}
	ro := RO32(m, 0x104)
	wo := WO32(m, 0x108)
	wo.Set(3)
	if ro.Get() != 0x8000_05e0 || m.Read32(0x108) != 3 || ro.Address() != 0x104 || wo.Address() != 0x108 {
		t.Errorf("typed access broken")
	}
	expectBusError(t, func() { Reg64(m, 0x104) })
}
