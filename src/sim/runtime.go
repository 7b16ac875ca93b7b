package sim

import (
	"fmt"
	"sync/atomic"

	"riscvrt/src/hardware/aclint"
	"riscvrt/src/hardware/ns16550"
	"riscvrt/src/hardware/plic"
	"riscvrt/src/hardware/virt"
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
	"riscvrt/src/rt/boot"
	"riscvrt/src/rt/delay"
	"riscvrt/src/rt/trap"
)

// Runtime layout in RAM
const (
	AbortOffset   = 0x0
	TrapOffset    = 0x100
	HartStackSize = 64 << 10
)

// RuntimeConfig describes an application for the machine.
type RuntimeConfig struct {
	Mode riscv.TrapMode
	// Main runs on every hart once booting is done.  When it returns the
	// hart parks.
	Main       func(rt *Runtime, h riscv.Hart)
	Exceptions map[riscv.Exception]trap.ExceptionHandler
	// External handlers, by PLIC source id, for the machine context of
	// every hart.
	External map[uint]plic.Handler
	// QueueCapacity bounds each hart's pending delays.
	QueueCapacity int
	Sections      boot.Sections
	FPU           bool
}

// Runtime is the runtime wired to a machine: the trap dispatcher, the
// boot sequencer, a delay scheduler per hart, and the PLIC routed to
// External.
type Runtime struct {
	Machine    *Machine
	Dispatcher *trap.Dispatcher
	Sequencer  *boot.Sequencer
	CLINT      aclint.CLINT
	PLIC       plic.PLIC
	UART       ns16550.UART

	cfg      RuntimeConfig
	log      *trust.Logger
	timers   []*delay.Scheduler
	bootHart atomic.Int64
	external plic.Lookup
}

func NewRuntime(m *Machine, cfg RuntimeConfig) (*Runtime, error) {
	if cfg.Main == nil {
		return nil, fmt.Errorf("runtime needs a main")
	}
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = 16
	}
	maxHart := m.cfg.MaxHartID
	rt := &Runtime{
		Machine:  m,
		CLINT:    aclint.New(m.Memory, virt.CLINTBase, maxHart),
		PLIC:     plic.New(m.Memory, virt.PLICBase, m.cfg.Sources, virt.Contexts(maxHart)),
		UART:     ns16550.New(m.Memory, virt.UARTBase),
		cfg:      cfg,
		log:      m.log,
		timers:   make([]*delay.Scheduler, maxHart+1),
		external: plic.MapLookup(cfg.External),
	}
	rt.bootHart.Store(-1)

	exceptions, err := trap.NewTable(riscv.Exceptions, cfg.Exceptions)
	if err != nil {
		return nil, err
	}
	interrupts, err := trap.NewTable(riscv.Interrupts, map[riscv.Interrupt]trap.InterruptHandler{
		riscv.MachineTimer:    rt.timerInterrupt,
		riscv.MachineExternal: rt.externalInterrupt,
	})
	if err != nil {
		return nil, err
	}
	rt.Dispatcher, err = trap.New(m.Memory, trap.Config{
		Mode:       cfg.Mode,
		Exceptions: exceptions,
		Interrupts: interrupts,
		Log:        m.log,
	})
	if err != nil {
		return nil, err
	}

	elect := boot.DefaultMPHook(rt.CLINT)
	rt.Sequencer, err = boot.New(m.Memory, boot.Config{
		MaxHartID:     maxHart,
		StackStart:    m.RAMEnd(),
		HartStackSize: HartStackSize,
		Sections:      cfg.Sections,
		FPU:           cfg.FPU,
		AbortVector:   virt.RAMBase + AbortOffset,
		Dispatcher:    rt.Dispatcher,
		TrapBase:      virt.RAMBase + TrapOffset,
		Symbols:       m.Symbols,
		CLINT:         &rt.CLINT,
		Log:           m.log,
	}, boot.Hooks{
		MPHook: func(h riscv.Hart, id uint) bool {
			if elect(h, id) {
				rt.bootHart.Store(int64(id))
				return true
			}
			return false
		},
		Main: rt.main,
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// BootHart is the elected hart, or -1 before the election.
func (rt *Runtime) BootHart() int { return int(rt.bootHart.Load()) }

// Timer is the calling hart's delay scheduler.
func (rt *Runtime) Timer(h riscv.Hart) *delay.Scheduler {
	return rt.timers[riscv.HartID(h)]
}

// Context is the calling hart's machine mode PLIC context.
func (rt *Runtime) Context(h riscv.Hart) plic.Context {
	c, err := rt.PLIC.Context(virt.MachineContext(riscv.HartID(h)))
	if err != nil {
		panic(err)
	}
	return c
}

func (rt *Runtime) timerInterrupt(h riscv.Hart) {
	if s := rt.Timer(h); s != nil {
		s.HandleTimer(h)
		return
	}
	aclint.DisableMTI(h)
}

func (rt *Runtime) externalInterrupt(h riscv.Hart) {
	plic.Dispatch(rt.Context(h), rt.external, rt.log)
}

func (rt *Runtime) main(h riscv.Hart, a0, a1, a2 uint64) {
	id := riscv.HartID(h)
	timer, err := rt.CLINT.Hart(id)
	if err != nil {
		rt.log.Errorf("hart %d: %v", id, err)
		riscv.Park(h)
		return
	}
	rt.timers[id] = delay.NewScheduler(h, timer, rt.cfg.QueueCapacity, virt.TimebaseFrequency,
		rt.log.WithPrefix(fmt.Sprintf("delay%d", id)))
	if int(id) == rt.BootHart() {
		if err := boot.WakeHarts(h, rt.CLINT, rt.Machine.cfg.MaxHartID); err != nil {
			rt.log.Errorf("waking harts: %v", err)
		}
	}
	rt.cfg.Main(rt, h)
	riscv.Park(h)
}

// Start is the reset entry for Machine.Run.
func (rt *Runtime) Start(h *Hart) {
	rt.Sequencer.Run(h)
}
