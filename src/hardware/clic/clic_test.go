package clic

import (
	"errors"
	"testing"

	"riscvrt/src/hardware/mmio"
	"riscvrt/src/lib/fault"
	"riscvrt/src/numspace"
	"riscvrt/src/riscv"
)

const base = 0x0280_0000

func newCLIC(t *testing.T) (*mmio.Memory, CLIC) {
	t.Helper()
	m := mmio.NewMemory()
	if err := m.MapRAM("clic", base, 0x2000); err != nil {
		t.Fatal(err)
	}
	return m, New(m, base)
}

func TestCLICAddresses(t *testing.T) {
	_, c := newCLIC(t)
	if c.SMCLICCONFIG().Address() != base {
		t.Errorf("smclicconfig at %#x", c.SMCLICCONFIG().Address())
	}
	trig, err := c.INTTRIG(3)
	if err != nil || trig.Address() != base+0x40+12 {
		t.Errorf("inttrig 3 at %#x (%v)", trig.Address(), err)
	}
	word := uintptr(base + 0x1000 + 4*7)
	i := riscv.MachineTimer
	if c.IP(i).Address() != word || c.IE(i).Address() != word+1 ||
		c.ATTR(i).Address() != word+2 || c.CTL(i).Address() != word+3 {
		t.Errorf("interrupt 7 registers not packed in %#x", word)
	}
	_, err = c.INTTRIG(MaxTriggers)
	var oob *fault.IndexOutOfBoundsError
	if !errors.As(err, &oob) {
		t.Errorf("expected index out of bounds, got %v", err)
	}
}

func TestPendingAndEnable(t *testing.T) {
	m, c := newCLIC(t)
	locals, err := numspace.NewCoreInterrupts("local", numspace.Range("Local", 16, 17)...)
	if err != nil {
		t.Fatal(err)
	}
	for _, i := range locals.Members() {
		ip, ie := c.IP(i), c.IE(i)
		ip.Pend()
		ie.Enable()
		if !ip.IsPending() || !ie.IsEnabled() {
			t.Errorf("%s: pend/enable did not stick", i)
		}
		ip.Unpend()
		ie.Disable()
		if ip.IsPending() || ie.IsEnabled() {
			t.Errorf("%s: unpend/disable did not stick", i)
		}
	}
	c.IE(riscv.MachineSoft).Enable()
	if m.Read32(base+0x1000+4*3) != 0x100 {
		t.Errorf("IE is byte 1 of the word, got %#x", m.Read32(base+0x1000+4*3))
	}
}

func TestAttributes(t *testing.T) {
	_, c := newCLIC(t)
	a := c.ATTR(riscv.MachineExternal)
	for _, p := range []riscv.Privilege{riscv.User, riscv.Supervisor, riscv.Machine} {
		a.SetMode(p)
		if got, err := a.Mode(); err != nil || got != p {
			t.Errorf("mode %d read back as %d (%v)", p, got, err)
		}
	}
	a.SetTrig(Edge)
	a.SetPolarity(Negative)
	a.SetSHV(true)
	if a.Trig() != Edge || a.Polarity() != Negative || !a.SHV() {
		t.Errorf("attribute bits lost")
	}
	if m, _ := a.Mode(); m != riscv.Machine {
		t.Errorf("mode disturbed by trig/polarity writes")
	}
	a.SetTrig(Level)
	a.SetPolarity(Positive)
	a.SetSHV(false)
	if a.Trig() != Level || a.Polarity() != Positive || a.SHV() {
		t.Errorf("attribute bits did not clear")
	}
	a.SetMode(2)
	var bad *fault.InvalidFieldVariantError
	if _, err := a.Mode(); !errors.As(err, &bad) || bad.Value != 2 {
		t.Errorf("reserved mode should fail, got %v", err)
	}
}

func TestConfigAndControl(t *testing.T) {
	_, c := newCLIC(t)
	cfg := c.SMCLICCONFIG()
	if err := cfg.SetMNLBITS(4); err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetNMBITS(2); err != nil {
		t.Fatal(err)
	}
	if cfg.MNLBITS() != 4 || cfg.NMBITS() != 2 {
		t.Errorf("config read back %d %d", cfg.MNLBITS(), cfg.NMBITS())
	}
	if err := cfg.SetMNLBITS(9); err == nil {
		t.Errorf("mnlbits above 8 should fail")
	}
	if err := cfg.SetNMBITS(3); err == nil {
		t.Errorf("nmbits 3 is reserved")
	}

	ctl := c.CTL(riscv.MachineTimer)
	ctl.Set(0xa0)
	if ctl.Level(cfg.MNLBITS()) != 0xaf {
		t.Errorf("level with 4 bits: %#x", ctl.Level(4))
	}
	if ctl.Level(0) != 0xff || ctl.Level(8) != 0xa0 {
		t.Errorf("level edge cases wrong")
	}

	trig, _ := c.INTTRIG(0)
	if err := trig.SetInterrupt(riscv.MachineSoft); err != nil {
		t.Fatal(err)
	}
	trig.Enable()
	if !trig.Enabled() || trig.Interrupt() != 3 {
		t.Errorf("trigger read back %v %d", trig.Enabled(), trig.Interrupt())
	}
	trig.Disable()
	if trig.Enabled() {
		t.Errorf("trigger still enabled")
	}
}
