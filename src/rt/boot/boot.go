// Package boot is the reset sequence every hart runs before the
// application: a provisional abort vector, the hart id check, a stack per
// hart, the boot hart election, .data and .bss initialisation, the FPU
// and finally the trap vector.
package boot

import (
	"sync"

	"riscvrt/src/hardware/aclint"
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
	"riscvrt/src/rt/trap"
)

// AbortSymbol names the provisional trap vector.
const AbortSymbol = "abort"

type Config struct {
	MaxHartID uint
	// StackStart is the top of hart 0's stack.  Hart n's stack starts
	// n*HartStackSize below it.
	StackStart    uint64
	HartStackSize uint64
	Sections      Sections
	// FPU marks the floating point unit as present.
	FPU bool
	// AbortVector is where the provisional trap vector is placed.
	AbortVector uint64
	// Dispatcher is linked at TrapBase and installed by the default
	// SetupInterrupts.
	Dispatcher *trap.Dispatcher
	TrapBase   uint64
	// Symbols receives the abort vector and the dispatcher's entry
	// points.  A new table is made if it is nil.
	Symbols *trap.SymbolTable
	// CLINT, when set, is used by the default MPHook to park secondary
	// harts.
	CLINT *aclint.CLINT
	Log   *trust.Logger
}

// Sequencer runs the reset sequence.  One Sequencer is shared by all
// harts; each calls Run on its own instruction stream.
type Sequencer struct {
	bus     mmio.Bus
	cfg     Config
	hooks   Hooks
	symbols *trap.SymbolTable
	image   *trap.Image
	log     *trust.Logger

	mu     sync.Mutex
	states map[uint]State
	// OnTransition, if set, sees every state change.  It is called with
	// no locks held, possibly from several harts at once.
	OnTransition func(hart uint, from, to State)
}

// New checks cfg, fills in the default hooks, and places the abort vector
// and the dispatcher's trap code.  In vectored mode the vector table is
// written through bus.
func New(bus mmio.Bus, cfg Config, hooks Hooks) (*Sequencer, error) {
	if err := validate(cfg, hooks); err != nil {
		return nil, err
	}
	s := &Sequencer{
		bus:     bus,
		cfg:     cfg,
		hooks:   hooks,
		symbols: cfg.Symbols,
		log:     cfg.Log,
		states:  make(map[uint]State),
	}
	if s.log == nil {
		s.log = trust.Default()
	}
	if s.symbols == nil {
		s.symbols = trap.NewSymbolTable()
	}
	if err := s.symbols.Define(AbortSymbol, cfg.AbortVector, s.earlyTrap); err != nil {
		return nil, err
	}
	if cfg.Dispatcher != nil {
		img, err := cfg.Dispatcher.Link(cfg.TrapBase, s.symbols)
		if err != nil {
			return nil, err
		}
		if len(img.Vector) > 0 {
			trap.WriteTo(bus, img.VectorBase, img.Vector)
		}
		s.image = img
	}

	if s.hooks.MPHook == nil {
		switch {
		case cfg.CLINT != nil:
			s.hooks.MPHook = DefaultMPHook(*cfg.CLINT)
		case cfg.MaxHartID == 0:
			s.hooks.MPHook = SingleHartMPHook
		default:
			return nil, &ConfigError{Field: "CLINT", Reason: "is needed to park secondary harts"}
		}
	}
	if s.hooks.PreInit == nil {
		s.hooks.PreInit = func(riscv.Hart) {}
	}
	if s.hooks.SetupInterrupts == nil {
		s.hooks.SetupInterrupts = s.installDispatcher
	}
	if s.hooks.Abort == nil {
		s.hooks.Abort = DefaultAbort(s.log)
	}
	return s, nil
}

func validate(cfg Config, hooks Hooks) error {
	if hooks.Main == nil {
		return &ConfigError{Field: "Hooks.Main", Reason: "is required"}
	}
	if cfg.HartStackSize == 0 || cfg.HartStackSize%16 != 0 {
		return &ConfigError{Field: "HartStackSize", Reason: "must be a non zero multiple of 16"}
	}
	if cfg.StackStart%16 != 0 {
		return &ConfigError{Field: "StackStart", Reason: "must be 16 byte aligned"}
	}
	if uint64(cfg.MaxHartID)*cfg.HartStackSize >= cfg.StackStart {
		return &ConfigError{Field: "StackStart", Reason: "leaves no room for every hart's stack"}
	}
	if cfg.AbortVector%4 != 0 {
		return &ConfigError{Field: "AbortVector", Reason: "must be 4 byte aligned"}
	}
	if cfg.Dispatcher == nil && hooks.SetupInterrupts == nil {
		return &ConfigError{Field: "Dispatcher", Reason: "is needed by the default SetupInterrupts"}
	}
	return cfg.Sections.validate()
}

func (s *Sequencer) Symbols() *trap.SymbolTable { return s.symbols }

// Image is the linked trap code, nil when no dispatcher was configured.
func (s *Sequencer) Image() *trap.Image { return s.image }

// StackTop is the initial sp of a hart.
func (s *Sequencer) StackTop(hart uint) uint64 {
	return s.cfg.StackStart - uint64(hart)*s.cfg.HartStackSize
}

// State reports how far hart has got.
func (s *Sequencer) State(hart uint) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[hart]
}

// advance moves hart to next.  An aborted hart stays aborted, and the
// caller must stop when advance returns false.
func (s *Sequencer) advance(hart uint, next State) bool {
	s.mu.Lock()
	prev := s.states[hart]
	if prev == Aborted {
		s.mu.Unlock()
		return false
	}
	s.states[hart] = next
	s.mu.Unlock()

	s.log.Debugf("hart %d: %s -> %s", hart, prev, next)
	if s.OnTransition != nil {
		s.OnTransition(hart, prev, next)
	}
	return true
}

func (s *Sequencer) abort(h riscv.Hart, hart uint, reason error) {
	s.advance(hart, Aborted)
	s.hooks.Abort(h, reason)
	riscv.Park(h)
}

// earlyTrap is the provisional trap vector, every trap before
// SetupInterrupts is fatal.
func (s *Sequencer) earlyTrap(h riscv.Hart) {
	s.abort(h, riscv.HartID(h), &EarlyTrapError{
		Cause: riscv.ReadCause(h),
		Mepc:  h.ReadCSR(riscv.Mepc),
		Mtval: h.ReadCSR(riscv.Mtval),
	})
}

func (s *Sequencer) installDispatcher(h riscv.Hart) {
	s.cfg.Dispatcher.Install(h, s.image)
}

// Run is the reset handler.  It returns only when the hart was aborted
// and its Abort hook and parking both returned, which happens with test
// harts and recording semihosts.
func (s *Sequencer) Run(h riscv.Hart) {
	a0, a1, a2 := h.Reg(riscv.A0), h.Reg(riscv.A1), h.Reg(riscv.A2)

	h.WriteCSR(riscv.Mie, 0)
	h.WriteCSR(riscv.Mip, 0)
	riscv.WriteMtvec(h, riscv.NewMtvec(s.cfg.AbortVector, riscv.Direct))
	hart := riscv.HartID(h)
	if !s.advance(hart, EarlyTrapInstalled) {
		return
	}

	if hart > s.cfg.MaxHartID {
		s.abort(h, hart, &HartIDError{Hart: hart, Max: s.cfg.MaxHartID})
		return
	}
	h.SetReg(riscv.SP, s.StackTop(hart))
	if !s.advance(hart, HartIdChecked) {
		return
	}

	if s.hooks.MPHook(h, hart) {
		s.hooks.PreInit(h)
		InitSections(s.bus, s.cfg.Sections)
		if !s.advance(hart, SectionsInitialized) {
			return
		}
	}

	if s.cfg.FPU {
		h.ClearCSR(riscv.Mstatus, riscv.MstatusFS)
		h.SetCSR(riscv.Mstatus, riscv.FSInitial)
		h.WriteCSR(riscv.Fcsr, 0)
	}

	s.hooks.SetupInterrupts(h)
	if !s.advance(hart, InterruptsConfigured) {
		return
	}

	h.SetReg(riscv.A0, a0)
	h.SetReg(riscv.A1, a1)
	h.SetReg(riscv.A2, a2)
	if !s.advance(hart, UserEntry) {
		return
	}
	s.hooks.Main(h, a0, a1, a2)
	s.abort(h, hart, ErrMainReturned)
}
