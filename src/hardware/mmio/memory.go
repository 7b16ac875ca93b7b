package mmio

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
)

// Device answers accesses to a mapped region.  Offsets are relative to
// the region base and size is 1, 4 or 8.
type Device interface {
	Load(offset uintptr, size int) uint64
	Store(offset uintptr, size int, v uint64)
}

type region struct {
	name string
	base uintptr
	size uintptr
	ram  []byte
	dev  Device
}

func (r *region) contains(addr uintptr, size int) bool {
	return addr >= r.base && addr-r.base+uintptr(size) <= r.size
}

// Memory is an in-process address space of RAM and device regions.  All
// accesses are serialized, which makes Or32 and And32 atomic and gives
// every hart the same view of memory.  Devices must not call back into
// the Memory that maps them.
type Memory struct {
	mu      sync.Mutex
	regions []*region
}

func NewMemory() *Memory {
	return &Memory{}
}

// MapRAM adds zeroed RAM at [base, base+size).
func (m *Memory) MapRAM(name string, base, size uintptr) error {
	return m.add(&region{name: name, base: base, size: size, ram: make([]byte, size)})
}

// MapDevice routes [base, base+size) to dev.
func (m *Memory) MapDevice(name string, base, size uintptr, dev Device) error {
	return m.add(&region{name: name, base: base, size: size, dev: dev})
}

func (m *Memory) add(r *region) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.regions {
		if r.base < other.base+other.size && other.base < r.base+r.size {
			return fmt.Errorf("region %s [%#x,%#x) overlaps %s", r.name, r.base,
				r.base+r.size, other.name)
		}
	}
	m.regions = append(m.regions, r)
	sort.Slice(m.regions, func(i, j int) bool { return m.regions[i].base < m.regions[j].base })
	return nil
}

func (m *Memory) find(addr uintptr, size int, write bool) *region {
	checkAlign(addr, size, write)
	for _, r := range m.regions {
		if r.contains(addr, size) {
			return r
		}
	}
	panic(&BusError{Addr: addr, Size: size, Write: write})
}

func (m *Memory) load(addr uintptr, size int) uint64 {
	r := m.find(addr, size, false)
	if r.dev != nil {
		return r.dev.Load(addr-r.base, size)
	}
	b := r.ram[addr-r.base:]
	switch size {
	case 1:
		return uint64(b[0])
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	}
	return binary.LittleEndian.Uint64(b)
}

func (m *Memory) store(addr uintptr, size int, v uint64) {
	r := m.find(addr, size, true)
	if r.dev != nil {
		r.dev.Store(addr-r.base, size, v)
		return
	}
	b := r.ram[addr-r.base:]
	switch size {
	case 1:
		b[0] = uint8(v)
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}

func (m *Memory) Read8(addr uintptr) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint8(m.load(addr, 1))
}

func (m *Memory) Write8(addr uintptr, v uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(addr, 1, uint64(v))
}

func (m *Memory) Read32(addr uintptr) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint32(m.load(addr, 4))
}

func (m *Memory) Write32(addr uintptr, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(addr, 4, uint64(v))
}

func (m *Memory) Read64(addr uintptr) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(addr, 8)
}

func (m *Memory) Write64(addr uintptr, v uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(addr, 8, v)
}

func (m *Memory) Or32(addr uintptr, bits uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := uint32(m.load(addr, 4))
	m.store(addr, 4, uint64(old|bits))
	return old
}

func (m *Memory) And32(addr uintptr, bits uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := uint32(m.load(addr, 4))
	m.store(addr, 4, uint64(old&bits))
	return old
}

// WriteBytes copies p into memory byte by byte, as a loader would.
func (m *Memory) WriteBytes(addr uintptr, p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range p {
		m.store(addr+uintptr(i), 1, uint64(b))
	}
}

// ReadBytes copies n bytes out of memory.
func (m *Memory) ReadBytes(addr uintptr, n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]byte, n)
	for i := range result {
		result[i] = uint8(m.load(addr+uintptr(i), 1))
	}
	return result
}
