package mmio

import "riscvrt/src/lib/fault"

// Register32 is a read-write 32 bit register.
type Register32 struct {
	bus  Bus
	addr uintptr
}

func Reg32(bus Bus, addr uintptr) Register32 {
	checkAlign(addr, 4, false)
	return Register32{bus: bus, addr: addr}
}

func (r Register32) Address() uintptr { return r.addr }
func (r Register32) Get() uint32      { return r.bus.Read32(r.addr) }
func (r Register32) Set(v uint32)     { r.bus.Write32(r.addr, v) }

// SetBits is a read-modify-write, not atomic.
func (r Register32) SetBits(mask uint32) {
	r.Set(r.Get() | mask)
}

// ClearBits is a read-modify-write, not atomic.
func (r Register32) ClearBits(mask uint32) {
	r.Set(r.Get() &^ mask)
}

func (r Register32) HasBits(mask uint32) bool {
	return r.Get()&mask != 0
}

// ReplaceBits replaces the field mask<<pos with value.
func (r Register32) ReplaceBits(value uint32, mask uint32, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | (value&mask)<<pos)
}

// AtomicSetBits sets bits with a single amoor.w.  Buses without atomics
// report fault.ErrUnimplemented and leave the register alone.
func (r Register32) AtomicSetBits(mask uint32) error {
	a, ok := r.bus.(AtomicBus)
	if !ok {
		return fault.ErrUnimplemented
	}
	a.Or32(r.addr, mask)
	return nil
}

// AtomicClearBits clears bits with a single amoand.w.
func (r Register32) AtomicClearBits(mask uint32) error {
	a, ok := r.bus.(AtomicBus)
	if !ok {
		return fault.ErrUnimplemented
	}
	a.And32(r.addr, ^mask)
	return nil
}

// ReadOnly32 is a 32 bit register that must not be written.
type ReadOnly32 struct{ r Register32 }

func RO32(bus Bus, addr uintptr) ReadOnly32 { return ReadOnly32{Reg32(bus, addr)} }

func (r ReadOnly32) Address() uintptr         { return r.r.addr }
func (r ReadOnly32) Get() uint32              { return r.r.Get() }
func (r ReadOnly32) HasBits(mask uint32) bool { return r.r.HasBits(mask) }

// WriteOnly32 is a 32 bit register whose reads are meaningless.
type WriteOnly32 struct{ r Register32 }

func WO32(bus Bus, addr uintptr) WriteOnly32 { return WriteOnly32{Reg32(bus, addr)} }

func (r WriteOnly32) Address() uintptr { return r.r.addr }
func (r WriteOnly32) Set(v uint32)     { r.r.Set(v) }

// Register64 is a read-write 64 bit register.
type Register64 struct {
	bus  Bus
	addr uintptr
}

func Reg64(bus Bus, addr uintptr) Register64 {
	checkAlign(addr, 8, false)
	return Register64{bus: bus, addr: addr}
}

func (r Register64) Address() uintptr { return r.addr }
func (r Register64) Get() uint64      { return r.bus.Read64(r.addr) }
func (r Register64) Set(v uint64)     { r.bus.Write64(r.addr, v) }

// Get32 reads a 64 bit register as two words, high half first, retrying
// until the high half is stable.  This is how RV32 harts read mtime.
func (r Register64) Get32() uint64 {
	for {
		hi := r.bus.Read32(r.addr + 4)
		lo := r.bus.Read32(r.addr)
		if r.bus.Read32(r.addr+4) == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
	}
}

// Register8 is a read-write byte register.
type Register8 struct {
	bus  Bus
	addr uintptr
}

func Reg8(bus Bus, addr uintptr) Register8 {
	return Register8{bus: bus, addr: addr}
}

func (r Register8) Address() uintptr { return r.addr }
func (r Register8) Get() uint8       { return r.bus.Read8(r.addr) }
func (r Register8) Set(v uint8)      { r.bus.Write8(r.addr, v) }

func (r Register8) ReplaceBits(value uint8, mask uint8, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | (value&mask)<<pos)
}

func (r Register8) HasBits(mask uint8) bool {
	return r.Get()&mask != 0
}
