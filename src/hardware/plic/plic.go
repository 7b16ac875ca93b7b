// Package plic drives the platform-level interrupt controller.  Sources
// have a shared priority and pending bit.  Every context (usually one per
// hart and privilege) has its own enable bits, threshold and claim
// register.
package plic

import (
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/lib/fault"
	"riscvrt/src/numspace"
	"riscvrt/src/riscv"
)

const (
	PriorityOffset = 0x0
	PendingOffset  = 0x1000
	EnableOffset   = 0x2000
	EnableStride   = 0x80
	ContextOffset  = 0x20_0000
	ContextStride  = 0x1000
	ClaimOffset    = 0x4

	// MaxSources is the architectural limit, source 0 included.
	MaxSources = 1024
	// MaxContexts is the architectural limit on contexts.
	MaxContexts = 15872
	// Size is the span of a PLIC register block.
	Size = 0x400_0000
)

// PLIC is a controller with sources 1..maxSource and contexts
// 0..contexts-1.
type PLIC struct {
	bus       mmio.Bus
	base      uintptr
	maxSource uint
	contexts  uint
}

func New(bus mmio.Bus, base uintptr, maxSource, contexts uint) PLIC {
	return PLIC{bus: bus, base: base, maxSource: maxSource, contexts: contexts}
}

func (p PLIC) Base() uintptr   { return p.base }
func (p PLIC) MaxSource() uint { return p.maxSource }
func (p PLIC) Contexts() uint  { return p.contexts }

func (p PLIC) Priorities() Priorities {
	return Priorities{bus: p.bus, base: p.base + PriorityOffset, maxSource: p.maxSource}
}

func (p PLIC) Pendings() Pendings {
	return Pendings{bus: p.bus, base: p.base + PendingOffset}
}

// Context returns the registers of context c, or an
// IndexOutOfBoundsError when c is not configured.
func (p PLIC) Context(c uint) (Context, error) {
	if p.contexts == 0 {
		return Context{}, &fault.IndexOutOfBoundsError{Index: c}
	}
	if err := fault.CheckIndex(c, 0, p.contexts-1); err != nil {
		return Context{}, err
	}
	return p.context(c), nil
}

func (p PLIC) context(c uint) Context {
	regs := p.base + ContextOffset + ContextStride*uintptr(c)
	return Context{
		id:        c,
		enables:   Enables{bus: p.bus, base: p.base + EnableOffset + EnableStride*uintptr(c)},
		threshold: Threshold{reg: mmio.Reg32(p.bus, regs)},
		claim:     Claim{reg: mmio.Reg32(p.bus, regs+ClaimOffset)},
		maxSource: p.maxSource,
	}
}

// Context is the per-context register view.
type Context struct {
	id        uint
	enables   Enables
	threshold Threshold
	claim     Claim
	maxSource uint
}

func (c Context) ID() uint             { return c.id }
func (c Context) Enables() Enables     { return c.enables }
func (c Context) Threshold() Threshold { return c.threshold }
func (c Context) Claim() Claim         { return c.claim }

// DisableAll clears every enable bit of the context.
func (c Context) DisableAll() {
	c.enables.DisableAll(c.maxSource)
}

// Priorities are the shared per-source priority registers at base+4*src.
// Priority 0 means never interrupt.
type Priorities struct {
	bus       mmio.Bus
	base      uintptr
	maxSource uint
}

func (p Priorities) Address(src numspace.ExternalInterruptNumber) uintptr {
	return p.base + 4*uintptr(src.Number())
}

// Get returns the raw priority of src.
func (p Priorities) Get(src numspace.ExternalInterruptNumber) uint32 {
	return p.bus.Read32(p.Address(src))
}

// Set changes the priority of src.  Raising a priority can break a
// critical section that relies on the threshold.
func (p Priorities) Set(src numspace.ExternalInterruptNumber, prio numspace.PriorityNumber) {
	p.bus.Write32(p.Address(src), uint32(prio.Number()))
}

// ResetAll writes priority 0 to every source.
func (p Priorities) ResetAll() {
	for src := uint(1); src <= p.maxSource; src++ {
		p.bus.Write32(p.base+4*uintptr(src), 0)
	}
}

// PriorityOf reads the priority of src as a member of a priority space.
func PriorityOf[P numspace.PriorityNumber](p Priorities, src numspace.ExternalInterruptNumber,
	from func(uint) (P, error)) (P, error) {
	return from(uint(p.Get(src)))
}

// Pendings is the shared pending bit array at base+0x1000.
type Pendings struct {
	bus  mmio.Bus
	base uintptr
}

// Address is the word that holds the pending bit of src.
func (p Pendings) Address(src numspace.ExternalInterruptNumber) uintptr {
	return p.base + 4*uintptr(src.Number()/32)
}

func (p Pendings) IsPending(src numspace.ExternalInterruptNumber) bool {
	return p.bus.Read32(p.Address(src))&(1<<(src.Number()%32)) != 0
}

// Enables is one context's enable bit array.
type Enables struct {
	bus  mmio.Bus
	base uintptr
}

func (e Enables) Address(src numspace.ExternalInterruptNumber) uintptr {
	return e.word(src.Number())
}

func (e Enables) word(src uint) uintptr {
	return e.base + 4*uintptr(src/32)
}

func (e Enables) reg(src numspace.ExternalInterruptNumber) (mmio.Register32, uint32) {
	return mmio.Reg32(e.bus, e.Address(src)), 1 << (src.Number() % 32)
}

func (e Enables) IsEnabled(src numspace.ExternalInterruptNumber) bool {
	r, bit := e.reg(src)
	return r.HasBits(bit)
}

// Enable sets the enable bit of src with a plain read-modify-write.  Use
// AtomicEnable when another context may write the same word.
func (e Enables) Enable(src numspace.ExternalInterruptNumber) {
	r, bit := e.reg(src)
	r.SetBits(bit)
}

func (e Enables) Disable(src numspace.ExternalInterruptNumber) {
	r, bit := e.reg(src)
	r.ClearBits(bit)
}

// AtomicEnable sets the bit with an atomic or.  It returns
// fault.ErrUnimplemented on a bus without atomics.
func (e Enables) AtomicEnable(src numspace.ExternalInterruptNumber) error {
	r, bit := e.reg(src)
	return r.AtomicSetBits(bit)
}

func (e Enables) AtomicDisable(src numspace.ExternalInterruptNumber) error {
	r, bit := e.reg(src)
	return r.AtomicClearBits(bit)
}

// EnableAll sets the enable bits of sources 0..maxSource one word at a
// time.  It is not atomic across words.
func (e Enables) EnableAll(maxSource uint) {
	for w := uint(0); w <= maxSource/32; w++ {
		e.bus.Write32(e.word(32*w), 0xffff_ffff)
	}
}

// DisableAll clears the enable words covering 0..maxSource.  It is not
// atomic across words.
func (e Enables) DisableAll(maxSource uint) {
	for w := uint(0); w <= maxSource/32; w++ {
		e.bus.Write32(e.word(32*w), 0)
	}
}

// Threshold masks every source with a priority at or below it.
type Threshold struct {
	reg mmio.Register32
}

func (t Threshold) Address() uintptr { return t.reg.Address() }
func (t Threshold) Get() uint32      { return t.reg.Get() }

func (t Threshold) Set(prio numspace.PriorityNumber) {
	t.reg.Set(uint32(prio.Number()))
}

// Claim is the claim/complete register of a context.
type Claim struct {
	reg mmio.Register32
}

func (c Claim) Address() uintptr { return c.reg.Address() }

// Claim takes the highest priority pending source of the context.  ok is
// false when nothing is pending above the threshold.
func (c Claim) Claim() (src uint, ok bool) {
	v := c.reg.Get()
	return uint(v), v != 0
}

// Complete tells the gateway that src has been handled.
func (c Claim) Complete(src numspace.ExternalInterruptNumber) {
	c.reg.Set(uint32(src.Number()))
}

// CompleteRaw completes a source id that has no number space member.
func (c Claim) CompleteRaw(src uint) {
	c.reg.Set(uint32(src))
}

// ClaimAs claims and converts the source id through a number space.  A
// source the space does not know is still claimed; it is returned as an
// InvalidVariantError and the caller must complete it.
func ClaimAs[S numspace.ExternalInterruptNumber](c Claim, from func(uint) (S, error)) (S, bool, error) {
	var zero S
	raw, ok := c.Claim()
	if !ok {
		return zero, false, nil
	}
	s, err := from(raw)
	if err != nil {
		return zero, true, err
	}
	return s, true, nil
}

// EnableMEI sets mie.MEIE on the calling hart.
func EnableMEI(h riscv.Hart) {
	riscv.EnableInterrupt(h, riscv.MachineExternal)
}

func DisableMEI(h riscv.Hart) {
	riscv.DisableInterrupt(h, riscv.MachineExternal)
}
