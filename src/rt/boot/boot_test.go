package boot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"riscvrt/src/hardware/aclint"
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/hardware/virt"
	"riscvrt/src/lib/fault"
	"riscvrt/src/lib/semihosting"
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
	"riscvrt/src/rt/trap"
)

const (
	ramBase   = virt.RAMBase
	ramSize   = 0x2_0000
	stackTop  = ramBase + ramSize
	stackSize = 0x1000
	abortAt   = ramBase + 0x40
	trapBase  = ramBase + 0x100
	dataLMA   = ramBase + 0x8000
	dataVMA   = ramBase + 0x9000
)

// bootHart reads mip.MSIP from the CLINT model and halts by recording it.
type bootHart struct {
	csr    map[riscv.CSR]uint64
	regs   [32]uint64
	clint  *aclint.Model
	halted bool
}

func newBootHart(id uint64, clint *aclint.Model) *bootHart {
	return &bootHart{csr: map[riscv.CSR]uint64{riscv.Mhartid: id}, clint: clint}
}

func (h *bootHart) WriteCSR(c riscv.CSR, v uint64) { h.csr[c] = v }
func (h *bootHart) Reg(r riscv.Reg) uint64         { return h.regs[r] }
func (h *bootHart) SetReg(r riscv.Reg, v uint64)   { h.regs[r] = v }
func (h *bootHart) WaitForInterrupt()              {}
func (h *bootHart) Halt() { h.halted = true }

func (h *bootHart) ReadCSR(c riscv.CSR) uint64 {
	if c == riscv.Mip && h.clint != nil && h.clint.SoftPending(uint(h.csr[riscv.Mhartid])) {
		return h.csr[c] | 1<<riscv.MachineSoft.Number()
	}
	return h.csr[c]
}

func (h *bootHart) SetCSR(c riscv.CSR, bits uint64) uint64 {
	old := h.csr[c]
	h.csr[c] = old | bits
	return old
}

func (h *bootHart) ClearCSR(c riscv.CSR, bits uint64) uint64 {
	old := h.csr[c]
	h.csr[c] = old &^ bits
	return old
}

type machine struct {
	mem   *mmio.Memory
	model *aclint.Model
	clint aclint.CLINT
}

func newMachine(t *testing.T, maxHart uint) *machine {
	t.Helper()
	m := &machine{mem: mmio.NewMemory(), model: aclint.NewModel(maxHart)}
	if err := m.mem.MapRAM("ram", ramBase, ramSize); err != nil {
		t.Fatal(err)
	}
	if err := m.mem.MapDevice("clint", virt.CLINTBase, aclint.Size, m.model); err != nil {
		t.Fatal(err)
	}
	m.clint = aclint.New(m.mem, virt.CLINTBase, maxHart)
	return m
}

func (m *machine) config(t *testing.T, maxHart uint, mode riscv.TrapMode) Config {
	t.Helper()
	d, err := trap.New(m.mem, trap.Config{Mode: mode})
	if err != nil {
		t.Fatal(err)
	}
	return Config{
		MaxHartID:     maxHart,
		StackStart:    stackTop,
		HartStackSize: stackSize,
		AbortVector:   abortAt,
		Dispatcher:    d,
		TrapBase:      trapBase,
		CLINT:         &m.clint,
		Sections: Sections{
			DataLMA:   dataLMA,
			DataStart: dataVMA,
			DataEnd:   dataVMA + 16,
			BssStart:  dataVMA + 16,
			BssEnd:    dataVMA + 48,
		},
	}
}

func TestElectionUniqueness(t *testing.T) {
	const maxHart = 3
	m := newMachine(t, maxHart)
	hook := DefaultMPHook(m.clint)
	elected := 0
	for id := uint(0); id <= maxHart; id++ {
		// wake the hart ahead of time so the hook does not sleep forever
		if id != 0 {
			m.clint.MSIP(virt.Hart(id)).Pend()
		}
		h := newBootHart(uint64(id), m.model)
		if hook(h, id) {
			elected++
			continue
		}
		if m.model.SoftPending(id) {
			t.Errorf("hart %d left with MSIP set", id)
		}
		if riscv.IsInterruptEnabled(h, riscv.MachineSoft) {
			t.Errorf("hart %d left with MSIE set", id)
		}
	}
	if elected != 1 {
		t.Errorf("expected exactly one boot hart, got %d", elected)
	}
}

func TestWakeHarts(t *testing.T) {
	m := newMachine(t, 2)
	h := newBootHart(1, m.model)
	if err := WakeHarts(h, m.clint, 2); err != nil {
		t.Fatal(err)
	}
	if !m.model.SoftPending(0) || m.model.SoftPending(1) || !m.model.SoftPending(2) {
		t.Errorf("every hart but the caller should be pended")
	}
	var oob *fault.IndexOutOfBoundsError
	if err := WakeHarts(h, m.clint, 3); !errors.As(err, &oob) {
		t.Errorf("expected out of bounds for hart 3, got %v", err)
	}
}

func TestBootSequence(t *testing.T) {
	m := newMachine(t, 0)
	m.mem.WriteBytes(dataLMA, []byte("0123456789abcdef"))
	m.mem.WriteBytes(dataVMA+16, bytes.Repeat([]byte{0xee}, 32))

	var got [3]uint64
	mainRan := false
	hooks := Hooks{
		Main: func(h riscv.Hart, a0, a1, a2 uint64) {
			mainRan = true
			got = [3]uint64{a0, a1, a2}
			riscv.Park(h)
		},
		Abort: func(riscv.Hart, error) {},
	}
	cfg := m.config(t, 0, riscv.Direct)
	cfg.FPU = true
	s, err := New(m.mem, cfg, hooks)
	if err != nil {
		t.Fatal(err)
	}
	var trail []State
	s.OnTransition = func(hart uint, from, to State) { trail = append(trail, to) }

	h := newBootHart(0, m.model)
	h.regs[riscv.A0], h.regs[riscv.A1], h.regs[riscv.A2] = 11, 22, 33
	h.csr[riscv.Mstatus] = riscv.FSDirty
	h.csr[riscv.Fcsr] = 0x1f
	s.Run(h)

	want := []State{EarlyTrapInstalled, HartIdChecked, SectionsInitialized, InterruptsConfigured, UserEntry, Aborted}
	if len(trail) != len(want) {
		t.Fatalf("transitions %v, expected %v", trail, want)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Errorf("transition %d: expected %s got %s", i, want[i], trail[i])
		}
	}
	if !mainRan || got != [3]uint64{11, 22, 33} {
		t.Errorf("main should see the reset arguments, got %v", got)
	}
	if string(m.mem.ReadBytes(dataVMA, 16)) != "0123456789abcdef" {
		t.Errorf(".data not copied")
	}
	if !bytes.Equal(m.mem.ReadBytes(dataVMA+16, 32), make([]byte, 32)) {
		t.Errorf(".bss not zeroed")
	}
	if h.regs[riscv.SP] != stackTop {
		t.Errorf("sp is %#x", h.regs[riscv.SP])
	}
	if h.csr[riscv.Mstatus]&riscv.MstatusFS != riscv.FSInitial || h.csr[riscv.Fcsr] != 0 {
		t.Errorf("fpu not initialised: mstatus %#x fcsr %#x", h.csr[riscv.Mstatus], h.csr[riscv.Fcsr])
	}
	start, _ := s.Symbols().Lookup(trap.StartTrap)
	if riscv.ReadMtvec(h).Bits() != start.Addr {
		t.Errorf("mtvec %#x, expected direct %#x", riscv.ReadMtvec(h).Bits(), start.Addr)
	}
}

func TestSecondaryHartStack(t *testing.T) {
	m := newMachine(t, 3)
	cfg := m.config(t, 3, riscv.Direct)
	s, err := New(m.mem, cfg, Hooks{
		MPHook: func(h riscv.Hart, id uint) bool { return id == 0 },
		Main:   func(h riscv.Hart, a0, a1, a2 uint64) { riscv.Park(h) },
		Abort:  func(riscv.Hart, error) {},
	})
	if err != nil {
		t.Fatal(err)
	}
	h := newBootHart(2, m.model)
	s.Run(h)
	if h.regs[riscv.SP] != stackTop-2*stackSize {
		t.Errorf("hart 2 sp %#x", h.regs[riscv.SP])
	}
	if s.State(2) != Aborted || s.State(0) != Reset {
		t.Errorf("states %s %s", s.State(2), s.State(0))
	}
}

func TestVectoredSetup(t *testing.T) {
	m := newMachine(t, 0)
	s, err := New(m.mem, m.config(t, 0, riscv.Vectored), Hooks{
		Main:  func(h riscv.Hart, a0, a1, a2 uint64) {},
		Abort: func(riscv.Hart, error) {},
	})
	if err != nil {
		t.Fatal(err)
	}
	h := newBootHart(0, nil)
	s.Run(h)
	v := riscv.ReadMtvec(h)
	if mode, _ := v.Mode(); mode != riscv.Vectored || v.Address() != s.Image().VectorBase {
		t.Errorf("mtvec %#x should point at the vector table %#x", v.Bits(), s.Image().VectorBase)
	}
	timer := riscv.MakeCause(true, riscv.MachineTimer.Number())
	sym, err := trap.Resolve(m.mem, s.Symbols(), v.Target(timer))
	if err != nil || sym.Name != trap.DefaultHandlerTrap {
		t.Errorf("timer slot resolves to %q, %v", sym.Name, err)
	}
}

func TestHartIDOverflowAborts(t *testing.T) {
	m := newMachine(t, 1)
	var reasons []error
	mainRan := false
	s, err := New(m.mem, m.config(t, 1, riscv.Direct), Hooks{
		Main:  func(riscv.Hart, uint64, uint64, uint64) { mainRan = true },
		Abort: func(h riscv.Hart, reason error) { reasons = append(reasons, reason) },
	})
	if err != nil {
		t.Fatal(err)
	}
	h := newBootHart(5, m.model)
	s.Run(h)
	var hid *HartIDError
	if len(reasons) != 1 || !errors.As(reasons[0], &hid) || hid.Hart != 5 || hid.Max != 1 {
		t.Fatalf("expected a hart id abort, got %v", reasons)
	}
	if fault.CodeOf(reasons[0]) != HartIDCode {
		t.Errorf("wrong code %v", fault.CodeOf(reasons[0]))
	}
	if mainRan || !h.halted || s.State(5) != Aborted {
		t.Errorf("hart 5 should be parked, main %v halted %v state %s", mainRan, h.halted, s.State(5))
	}
}

func TestEarlyTrapAborts(t *testing.T) {
	m := newMachine(t, 0)
	var reasons []error
	var s *Sequencer
	s, err := New(m.mem, m.config(t, 0, riscv.Direct), Hooks{
		PreInit: func(h riscv.Hart) {
			// an illegal instruction, taken the way the hart would
			h.WriteCSR(riscv.Mcause, uint64(riscv.MakeCause(false, riscv.IllegalInstruction.Number())))
			h.WriteCSR(riscv.Mepc, 0x8000_1234)
			sym, err := trap.Resolve(m.mem, s.Symbols(), riscv.ReadMtvec(h).Target(riscv.ReadCause(h)))
			if err != nil {
				t.Fatal(err)
			}
			sym.Entry(h)
		},
		Main:  func(riscv.Hart, uint64, uint64, uint64) { t.Errorf("main must not run") },
		Abort: func(h riscv.Hart, reason error) { reasons = append(reasons, reason) },
	})
	if err != nil {
		t.Fatal(err)
	}
	s.Run(newBootHart(0, m.model))
	var early *EarlyTrapError
	if len(reasons) != 1 || !errors.As(reasons[0], &early) || early.Mepc != 0x8000_1234 {
		t.Fatalf("expected one early trap abort, got %v", reasons)
	}
	if s.State(0) != Aborted {
		t.Errorf("state %s", s.State(0))
	}
}

func TestDefaultAbort(t *testing.T) {
	rec := &semihosting.Recorder{}
	prev := semihosting.SetHost(rec)
	defer semihosting.SetHost(prev)

	var buf bytes.Buffer
	h := newBootHart(2, nil)
	DefaultAbort(trust.New(&buf, "boot"))(h, ErrMainReturned)
	last, ok := rec.Last()
	if !ok || last.Subcode != uint64(MainReturnedCode.WithHart(2)) {
		t.Errorf("expected exit with %#x, got %+v", uint64(MainReturnedCode.WithHart(2)), last)
	}
	if !h.halted || !bytes.Contains(buf.Bytes(), []byte("boot aborted: main returned")) {
		t.Errorf("expected a fatal line and a parked hart, got %q", buf.String())
	}
}

func TestConfigErrors(t *testing.T) {
	m := newMachine(t, 1)
	entry := func(riscv.Hart, uint64, uint64, uint64) {}
	for name, mutate := range map[string]func(*Config, *Hooks){
		"no main":        func(c *Config, h *Hooks) { h.Main = nil },
		"stack size":     func(c *Config, h *Hooks) { c.HartStackSize = 100 },
		"stack overlap":  func(c *Config, h *Hooks) { c.StackStart = 0x1000 },
		"abort vector":   func(c *Config, h *Hooks) { c.AbortVector = abortAt + 2 },
		"unaligned data": func(c *Config, h *Hooks) { c.Sections.DataEnd++ },
		"no clint":       func(c *Config, h *Hooks) { c.CLINT = nil },
	} {
		cfg := m.config(t, 1, riscv.Direct)
		hooks := Hooks{Main: entry}
		mutate(&cfg, &hooks)
		_, err := New(m.mem, cfg, hooks)
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("%s: expected a config error, got %v", name, err)
		}
	}
}

// elfImage builds a little endian RV64 executable with a .data section
// loaded at lma and run at vma, and a .bss after it.
func elfImage(lma, vma uint64, data []byte, bssSize uint64) []byte {
	const (
		ehsize    = 64
		phentsize = 56
		shentsize = 64
		dataOff   = 128
	)
	shstrtab := []byte("\x00.data\x00.bss\x00.shstrtab\x00")
	strOff := uint64(dataOff + len(data))
	shOff := (strOff + uint64(len(shstrtab)) + 7) &^ 7

	var b bytes.Buffer
	w := func(v interface{}) { binary.Write(&b, binary.LittleEndian, v) }
	b.Write([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0})
	b.Write(make([]byte, 8))
	w(uint16(2))   // ET_EXEC
	w(uint16(243)) // EM_RISCV
	w(uint32(1))
	w(vma)            // entry
	w(uint64(ehsize)) // phoff
	w(shOff)
	w(uint32(0))
	w(uint16(ehsize))
	w(uint16(phentsize))
	w(uint16(1))
	w(uint16(shentsize))
	w(uint16(4))
	w(uint16(3))

	// PT_LOAD
	w(uint32(1))
	w(uint32(6))
	w(uint64(dataOff))
	w(vma)
	w(lma)
	w(uint64(len(data)))
	w(uint64(len(data)) + bssSize)
	w(uint64(8))
	b.Write(make([]byte, dataOff-b.Len()))

	b.Write(data)
	b.Write(shstrtab)
	b.Write(make([]byte, int(shOff)-b.Len()))

	section := func(name, typ uint32, flags, addr, off, size, align uint64) {
		w(name)
		w(typ)
		w(flags)
		w(addr)
		w(off)
		w(size)
		w(uint32(0))
		w(uint32(0))
		w(align)
		w(uint64(0))
	}
	section(0, 0, 0, 0, 0, 0, 0)
	section(1, 1, 3, vma, dataOff, uint64(len(data)), 4)        // .data
	section(7, 8, 3, vma+uint64(len(data)), strOff, bssSize, 4) // .bss
	section(12, 3, 0, 0, strOff, uint64(len(shstrtab)), 1)      // .shstrtab
	return b.Bytes()
}

func TestSectionsFromELF(t *testing.T) {
	img := elfImage(dataLMA, dataVMA, []byte("0123456789abcdef"), 32)
	s, err := SectionsFromELF(bytes.NewReader(img))
	if err != nil {
		t.Fatal(err)
	}
	want := Sections{
		DataLMA:   dataLMA,
		DataStart: dataVMA,
		DataEnd:   dataVMA + 16,
		BssStart:  dataVMA + 16,
		BssEnd:    dataVMA + 48,
	}
	if s != want {
		t.Errorf("expected %+v, got %+v", want, s)
	}
	if s.DataSize() != 16 || s.BssSize() != 32 {
		t.Errorf("sizes %d %d", s.DataSize(), s.BssSize())
	}
	if _, err := SectionsFromELF(bytes.NewReader([]byte("not an elf file at all, really"))); err == nil {
		t.Errorf("expected an error for a non elf input")
	}
}
