package aclint

import (
	"sync"
)

// Model is a CLINT as seen from the bus: MSIP words, MTIMECMP words and a
// shared MTIME.  Time only moves when the owner calls Advance or
// AdvanceTo, which keeps simulations deterministic.  Notify, if set, is
// called with a hart id whenever that hart's interrupt lines may have
// changed; it must not block.
type Model struct {
	mu       sync.Mutex
	msip     []bool
	mtimecmp []uint64
	mtime    uint64
	Notify   func(hart uint)
}

// NewModel returns a CLINT for harts 0..maxHart with every comparator at
// its reset value of all ones.
func NewModel(maxHart uint) *Model {
	m := &Model{
		msip:     make([]bool, maxHart+1),
		mtimecmp: make([]uint64, maxHart+1),
	}
	for i := range m.mtimecmp {
		m.mtimecmp[i] = NoDeadline
	}
	return m
}

func (m *Model) notify(hart uint) {
	if m.Notify != nil {
		m.Notify(hart)
	}
}

func (m *Model) notifyAll() {
	for h := range m.msip {
		m.notify(uint(h))
	}
}

// Load implements mmio.Device.
func (m *Model) Load(off uintptr, size int) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case off < MTIMECMPOffset:
		h := int(off / 4)
		if h < len(m.msip) && m.msip[h] {
			return 1
		}
		return 0
	case off >= MTIMEOffset:
		return m.part(m.mtime, off-MTIMEOffset, size)
	default:
		rel := off - MTIMECMPOffset
		h := int(rel / 8)
		if h < len(m.mtimecmp) {
			return m.part(m.mtimecmp[h], rel%8, size)
		}
	}
	return 0
}

// part extracts a 32 bit half when RV32 code reads a 64 bit register.
func (m *Model) part(v uint64, within uintptr, size int) uint64 {
	if size == 8 {
		return v
	}
	return (v >> (8 * within)) & 0xffff_ffff
}

// Store implements mmio.Device.
func (m *Model) Store(off uintptr, size int, v uint64) {
	m.mu.Lock()
	hart := -1
	switch {
	case off < MTIMECMPOffset:
		h := int(off / 4)
		if h < len(m.msip) {
			m.msip[h] = v != 0
			hart = h
		}
	case off >= MTIMEOffset:
		m.mtime = m.merge(m.mtime, off-MTIMEOffset, size, v)
	default:
		rel := off - MTIMECMPOffset
		h := int(rel / 8)
		if h < len(m.mtimecmp) {
			m.mtimecmp[h] = m.merge(m.mtimecmp[h], rel%8, size, v)
			hart = h
		}
	}
	m.mu.Unlock()
	switch {
	case hart >= 0:
		m.notify(uint(hart))
	case off >= MTIMEOffset:
		m.notifyAll()
	}
}

func (m *Model) merge(old uint64, within uintptr, size int, v uint64) uint64 {
	if size == 8 {
		return v
	}
	shift := 8 * within
	return old&^(0xffff_ffff<<shift) | (v&0xffff_ffff)<<shift
}

// Now is the current MTIME.
func (m *Model) Now() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mtime
}

// Advance moves MTIME forward by ticks, wrapping silently.
func (m *Model) Advance(ticks uint64) {
	m.mu.Lock()
	m.mtime += ticks
	m.mu.Unlock()
	m.notifyAll()
}

// AdvanceTo moves MTIME to t if that is ahead of now, measured the short
// way around the wrap.
func (m *Model) AdvanceTo(t uint64) {
	m.mu.Lock()
	moved := false
	if d := t - m.mtime; d != 0 && d < 1<<63 {
		m.mtime = t
		moved = true
	}
	m.mu.Unlock()
	if moved {
		m.notifyAll()
	}
}

// SoftPending is the MSIP line of a hart.
func (m *Model) SoftPending(hart uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int(hart) < len(m.msip) && m.msip[hart]
}

// TimerPending is the MTIP line of a hart: MTIME >= MTIMECMP.
func (m *Model) TimerPending(hart uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int(hart) < len(m.mtimecmp) && m.mtime >= m.mtimecmp[hart]
}

// Deadline is a hart's MTIMECMP.
func (m *Model) Deadline(hart uint) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(hart) >= len(m.mtimecmp) {
		return NoDeadline
	}
	return m.mtimecmp[hart]
}

// SSWIModel is the SETSSIP block of an ACLINT.
type SSWIModel struct {
	mu     sync.Mutex
	ssip   []bool
	Notify func(hart uint)
}

func NewSSWIModel(maxHart uint) *SSWIModel {
	return &SSWIModel{ssip: make([]bool, maxHart+1)}
}

func (s *SSWIModel) Load(off uintptr, size int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h := int(off / 4); h < len(s.ssip) && s.ssip[h] {
		return 1
	}
	return 0
}

func (s *SSWIModel) Store(off uintptr, size int, v uint64) {
	h := int(off / 4)
	s.mu.Lock()
	if h >= len(s.ssip) {
		s.mu.Unlock()
		return
	}
	s.ssip[h] = v != 0
	s.mu.Unlock()
	if s.Notify != nil {
		s.Notify(uint(h))
	}
}

// Pending is the SSIP line of a hart.
func (s *SSWIModel) Pending(hart uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(hart) < len(s.ssip) && s.ssip[hart]
}
