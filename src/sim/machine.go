// Package sim is a hosted RISC-V virt machine for the runtime: RAM, an
// ACLINT, a PLIC and a UART on an in-memory bus, and one goroutine per
// hart.  Time is simulated.  MTIME only moves when every running hart is
// waiting for an interrupt, and then jumps to the nearest comparator, so
// runs are repeatable and timer heavy programs finish at once.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"riscvrt/src/hardware/aclint"
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/hardware/ns16550"
	"riscvrt/src/hardware/plic"
	"riscvrt/src/hardware/virt"
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
	"riscvrt/src/rt/trap"
)

type Config struct {
	MaxHartID uint
	RAMSize   uintptr
	// Sources is the highest PLIC source id.
	Sources      uint
	PriorityBits uint
	Console      io.Writer
	// Interactive machines get input from outside, so a machine where
	// every hart sleeps with no timer armed is waiting, not stuck.
	Interactive bool
	Log         *trust.Logger
}

func (c *Config) defaults() {
	if c.RAMSize == 0 {
		c.RAMSize = 16 << 20
	}
	if c.Sources == 0 {
		c.Sources = virt.MaxSourceNumber
	}
	if c.PriorityBits == 0 {
		c.PriorityBits = 3
	}
	if c.Log == nil {
		c.Log = trust.Default()
	}
}

// ErrStalled ends a run in which every hart waits for an interrupt that
// can never come.
var ErrStalled = errors.New("every hart is waiting and nothing is scheduled")

type Machine struct {
	Memory  *mmio.Memory
	CLINT   *aclint.Model
	SSWI    *aclint.SSWIModel
	PLIC    *plic.Model
	UART    *ns16550.Model
	Symbols *trap.SymbolTable

	cfg   Config
	log   *trust.Logger
	harts []*Hart

	running atomic.Int64
	idle    atomic.Int64

	done     chan struct{}
	doneOnce sync.Once

	errMu sync.Mutex
	err   error
	exit  *ExitError
}

// New builds a machine with the virt memory map and harts 0..MaxHartID
// held in reset until Run.
func New(cfg Config) (*Machine, error) {
	cfg.defaults()
	m := &Machine{
		Memory:  mmio.NewMemory(),
		CLINT:   aclint.NewModel(cfg.MaxHartID),
		SSWI:    aclint.NewSSWIModel(cfg.MaxHartID),
		PLIC:    plic.NewModel(cfg.Sources, virt.Contexts(cfg.MaxHartID), cfg.PriorityBits),
		UART:    ns16550.NewModel(cfg.Console),
		Symbols: trap.NewSymbolTable(),
		cfg:     cfg,
		log:     cfg.Log,
		done:    make(chan struct{}),
	}
	for _, r := range []struct {
		name string
		base uintptr
		size uintptr
		dev  mmio.Device
	}{
		{"clint", virt.CLINTBase, aclint.Size - 0x4000, m.CLINT},
		{"sswi", virt.SSWIBase, 0x4000, m.SSWI},
		{"plic", virt.PLICBase, virt.PLICSize, m.PLIC},
		{"uart0", virt.UARTBase, virt.UARTSize, m.UART},
	} {
		if err := m.Memory.MapDevice(r.name, r.base, r.size, r.dev); err != nil {
			return nil, err
		}
	}
	if err := m.Memory.MapRAM("ram", virt.RAMBase, cfg.RAMSize); err != nil {
		return nil, err
	}

	for id := uint(0); id <= cfg.MaxHartID; id++ {
		m.harts = append(m.harts, newHart(m, id))
	}
	m.CLINT.Notify = m.wake
	m.SSWI.Notify = m.wake
	m.PLIC.Notify = func(c uint) { m.wake(c / 2) }
	m.UART.Raise = func() { m.PLIC.Raise(virt.Uart0.Number()) }
	return m, nil
}

func (m *Machine) Config() Config { return m.cfg }
func (m *Machine) Harts() []*Hart { return m.harts }

func (m *Machine) Hart(id uint) (*Hart, error) {
	if id >= uint(len(m.harts)) {
		return nil, fmt.Errorf("no hart %d, the machine has %d", id, len(m.harts))
	}
	return m.harts[id], nil
}

// RAMEnd is the first address past RAM.
func (m *Machine) RAMEnd() uint64 {
	return virt.RAMBase + uint64(m.cfg.RAMSize)
}

func (m *Machine) wake(hart uint) {
	if hart < uint(len(m.harts)) {
		m.harts[hart].poke()
	}
}

func (m *Machine) wakeAll() {
	for _, h := range m.harts {
		h.poke()
	}
}

// fail records the first error of a run.
func (m *Machine) fail(err error) {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	if m.err == nil {
		m.err = err
	}
}

func (m *Machine) stop() {
	m.doneOnce.Do(func() { close(m.done) })
}

// Stopped is closed when the run is over.
func (m *Machine) Stopped() <-chan struct{} { return m.done }

// Run starts every hart at entry and waits until all of them have halted
// or returned, the program exits through semihosting, or ctx is done.
// Harts still running Go code that never waits cannot be stopped.
func (m *Machine) Run(ctx context.Context, entry func(h *Hart)) error {
	var wg sync.WaitGroup
	m.running.Store(int64(len(m.harts)))
	m.log.Infof("starting %d harts, %d bytes of ram", len(m.harts), m.cfg.RAMSize)
	for _, h := range m.harts {
		wg.Add(1)
		go func(h *Hart) {
			defer wg.Done()
			defer h.exited()
			entry(h)
		}(h)
	}
	go func() {
		select {
		case <-ctx.Done():
			m.fail(ctx.Err())
			m.stop()
		case <-m.done:
		}
	}()
	wg.Wait()
	m.stop()

	for _, h := range m.harts {
		m.log.Statsf("sim", "hart %d took %d traps", h.id, h.Traps())
	}
	m.errMu.Lock()
	defer m.errMu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.exit != nil && !m.exit.Success() {
		return m.exit
	}
	return nil
}

// idleAdvance runs when every running hart waits.  Time moves to the
// nearest comparator ahead of now; with none armed the run is stalled,
// unless a hart already has something to take or input may still come.
func (m *Machine) idleAdvance() {
	now := m.CLINT.Now()
	next, found := aclint.NoDeadline, false
	for _, h := range m.harts {
		if h.halted.Load() {
			continue
		}
		d := m.CLINT.Deadline(h.id)
		if d == aclint.NoDeadline && !riscv.IsInterruptEnabled(h, riscv.MachineTimer) {
			// a silenced timer
			continue
		}
		if d > now && d <= next {
			next, found = d, true
		}
	}
	if found {
		m.log.Debugf("idle, mtime %d -> %d", now, next)
		m.CLINT.AdvanceTo(next)
		return
	}
	if m.cfg.Interactive {
		return
	}
	for _, h := range m.harts {
		if !h.halted.Load() && h.pendingEnabled() != 0 {
			return
		}
	}
	m.log.Errorf("stalled at mtime %d", now)
	m.fail(ErrStalled)
	m.stop()
}
