package plic

import (
	"sync"

	"riscvrt/src/lib/upbeat"
)

// Model is a PLIC as seen from the bus.  Each source has an edge gateway:
// Raise latches a request, a claim moves it in flight, and a request
// raised while in flight is held until the source is completed.  Among
// equal priorities the lowest source id is claimed first.
//
// Notify, if set, is called with a context id whenever that context's
// interrupt line may have changed.  It must not block.
type Model struct {
	mu           sync.Mutex
	maxSource    uint
	priorityMask uint32
	priority     []uint32
	pending      *upbeat.BitSet
	inFlight     *upbeat.BitSet
	deferred     *upbeat.BitSet
	enable       []*upbeat.BitSet
	threshold    []uint32
	Notify       func(context uint)
}

// NewModel returns a controller with sources 1..maxSource, the given
// number of contexts and priorityBits bits of priority.
func NewModel(maxSource, contexts, priorityBits uint) *Model {
	bits := uint32(maxSource + 1)
	m := &Model{
		maxSource:    maxSource,
		priorityMask: uint32(1)<<priorityBits - 1,
		priority:     make([]uint32, maxSource+1),
		pending:      upbeat.NewBitSet(bits),
		inFlight:     upbeat.NewBitSet(bits),
		deferred:     upbeat.NewBitSet(bits),
		enable:       make([]*upbeat.BitSet, contexts),
		threshold:    make([]uint32, contexts),
	}
	for c := range m.enable {
		m.enable[c] = upbeat.NewBitSet(bits)
	}
	return m
}

func (m *Model) validSource(src uint) bool {
	return src != 0 && src <= m.maxSource
}

func (m *Model) notifyAll() {
	if m.Notify == nil {
		return
	}
	for c := range m.threshold {
		m.Notify(uint(c))
	}
}

// Raise is a device asserting src.
func (m *Model) Raise(src uint) {
	m.mu.Lock()
	if !m.validSource(src) {
		m.mu.Unlock()
		return
	}
	bit := upbeat.BitIndex(src)
	if m.inFlight.On(bit) {
		m.deferred.Set(bit)
	} else {
		m.pending.Set(bit)
	}
	m.mu.Unlock()
	m.notifyAll()
}

// Lower withdraws a request that has not been claimed yet.
func (m *Model) Lower(src uint) {
	m.mu.Lock()
	if !m.validSource(src) {
		m.mu.Unlock()
		return
	}
	m.pending.Clear(upbeat.BitIndex(src))
	m.deferred.Clear(upbeat.BitIndex(src))
	m.mu.Unlock()
	m.notifyAll()
}

// best is the source a claim on context c would return, 0 for none.
func (m *Model) best(c uint) uint {
	var bestSrc uint
	bestPrio := m.threshold[c]
	for src := uint(1); src <= m.maxSource; src++ {
		bit := upbeat.BitIndex(src)
		if !m.pending.On(bit) || !m.enable[c].On(bit) {
			continue
		}
		if m.priority[src] > bestPrio {
			bestPrio = m.priority[src]
			bestSrc = src
		}
	}
	return bestSrc
}

// Line reports whether context c's external interrupt is asserted.
func (m *Model) Line(c uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int(c) < len(m.threshold) && m.best(c) != 0
}

// InFlight reports whether src has been claimed and not completed.
func (m *Model) InFlight(src uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validSource(src) && m.inFlight.On(upbeat.BitIndex(src))
}

func (m *Model) claim(c uint) uint {
	src := m.best(c)
	if src != 0 {
		m.pending.Clear(upbeat.BitIndex(src))
		m.inFlight.Set(upbeat.BitIndex(src))
	}
	return src
}

// complete ignores ids that are out of range, not in flight or not
// enabled for the completing context.
func (m *Model) complete(c uint, src uint) {
	if !m.validSource(src) {
		return
	}
	bit := upbeat.BitIndex(src)
	if !m.inFlight.On(bit) || !m.enable[c].On(bit) {
		return
	}
	m.inFlight.Clear(bit)
	if m.deferred.On(bit) {
		m.deferred.Clear(bit)
		m.pending.Set(bit)
	}
}

// decode splits a context register offset.
func (m *Model) decode(off uintptr) (c uint, reg uintptr, ok bool) {
	rel := off - ContextOffset
	c = uint(rel / ContextStride)
	return c, rel % ContextStride, int(c) < len(m.threshold)
}

// Load implements mmio.Device.  Reading a claim register claims.
func (m *Model) Load(off uintptr, size int) uint64 {
	m.mu.Lock()
	claimed := false
	var v uint64
	switch {
	case off < PendingOffset:
		if src := uint(off / 4); src <= m.maxSource {
			v = uint64(m.priority[src])
		}
	case off < EnableOffset:
		if w := uint32((off - PendingOffset) / 4); w < m.pending.Words32() {
			v = uint64(m.pending.Word32(w))
		}
	case off < ContextOffset:
		rel := off - EnableOffset
		c, w := int(rel/EnableStride), uint32(rel%EnableStride/4)
		if c < len(m.enable) && w < m.enable[c].Words32() {
			v = uint64(m.enable[c].Word32(w))
		}
	default:
		c, reg, ok := m.decode(off)
		switch {
		case !ok:
		case reg == 0:
			v = uint64(m.threshold[c])
		case reg == ClaimOffset:
			v = uint64(m.claim(c))
			claimed = v != 0
		}
	}
	m.mu.Unlock()
	if claimed {
		m.notifyAll()
	}
	return v
}

// Store implements mmio.Device.  The pending array is read only and
// source 0 cannot be given a priority or enabled.
func (m *Model) Store(off uintptr, size int, v uint64) {
	m.mu.Lock()
	changed := true
	switch {
	case off < PendingOffset:
		if src := uint(off / 4); m.validSource(src) {
			m.priority[src] = uint32(v) & m.priorityMask
		}
	case off < EnableOffset:
		changed = false
	case off < ContextOffset:
		rel := off - EnableOffset
		c, w := int(rel/EnableStride), uint32(rel%EnableStride/4)
		if c < len(m.enable) && w < m.enable[c].Words32() {
			word := uint32(v)
			if w == 0 {
				word &^= 1
			}
			m.enable[c].SetWord32(w, word&m.sourceMask(w))
		}
	default:
		c, reg, ok := m.decode(off)
		switch {
		case !ok:
			changed = false
		case reg == 0:
			m.threshold[c] = uint32(v) & m.priorityMask
		case reg == ClaimOffset:
			m.complete(c, uint(v))
		}
	}
	m.mu.Unlock()
	if changed {
		m.notifyAll()
	}
}

// sourceMask keeps enable bits of sources that do not exist at zero.
func (m *Model) sourceMask(w uint32) uint32 {
	first := uint(w) * 32
	switch {
	case first > m.maxSource:
		return 0
	case m.maxSource-first >= 31:
		return 0xffff_ffff
	}
	return uint32(1)<<(m.maxSource-first+1) - 1
}
