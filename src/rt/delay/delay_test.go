package delay

import (
	"bytes"
	"errors"
	"testing"

	"riscvrt/src/hardware/aclint"
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/hardware/virt"
	"riscvrt/src/lib/fault"
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
)

// timerHart has just the CSRs a scheduler touches.  Waiting for an
// interrupt jumps time to the comparator and, when the timer interrupt
// is enabled, runs the handler the way a trap would.
type timerHart struct {
	csr     map[riscv.CSR]uint64
	model   *aclint.Model
	handler func(riscv.Hart)
	waits   int
}

func (h *timerHart) ReadCSR(c riscv.CSR) uint64     { return h.csr[c] }
func (h *timerHart) WriteCSR(c riscv.CSR, v uint64) { h.csr[c] = v }
func (h *timerHart) Reg(riscv.Reg) uint64           { return 0 }
func (h *timerHart) SetReg(riscv.Reg, uint64)       {}

func (h *timerHart) SetCSR(c riscv.CSR, bits uint64) uint64 {
	old := h.csr[c]
	h.csr[c] = old | bits
	return old
}

func (h *timerHart) ClearCSR(c riscv.CSR, bits uint64) uint64 {
	old := h.csr[c]
	h.csr[c] = old &^ bits
	return old
}

func (h *timerHart) WaitForInterrupt() {
	h.waits++
	if !riscv.IsInterruptEnabled(h, riscv.MachineTimer) {
		h.model.Advance(1)
		return
	}
	h.model.AdvanceTo(h.model.Deadline(0))
	if h.model.TimerPending(0) && riscv.Enabled(h) && h.handler != nil {
		h.handler(h)
	}
}

func setup(t *testing.T, start uint64, capacity int) (*Scheduler, *timerHart, *bytes.Buffer) {
	t.Helper()
	model := aclint.NewModel(0)
	m := mmio.NewMemory()
	if err := m.MapDevice("clint", virt.CLINTBase, aclint.Size, model); err != nil {
		t.Fatal(err)
	}
	timer, err := aclint.New(m, virt.CLINTBase, 0).Hart(0)
	if err != nil {
		t.Fatal(err)
	}
	model.Advance(start)
	h := &timerHart{csr: map[riscv.CSR]uint64{}, model: model}
	var buf bytes.Buffer
	log := trust.New(&buf, "delay ")
	s := NewScheduler(h, timer, capacity, virt.TimebaseFrequency, log)
	h.handler = s.Handler()
	return s, h, &buf
}

func TestTickConversion(t *testing.T) {
	s, _, _ := setup(t, 0, 4)
	for _, tc := range []struct {
		d    *Delay
		want uint64
	}{
		{s.AfterNs(1000), 10},
		{s.AfterNs(99), 0},
		{s.AfterUs(3), 30},
		{s.AfterMs(2), 20_000},
		{s.After(7), 7},
	} {
		if tc.d.Ticks() != tc.want {
			t.Errorf("expected %d ticks, got %d", tc.want, tc.d.Ticks())
		}
	}
}

func TestPollAcrossWrap(t *testing.T) {
	start := ^uint64(0) - 5
	s, h, _ := setup(t, start, 4)
	d := s.After(10)
	ready, err := d.Poll(nil)
	if ready || err != nil {
		t.Fatalf("fresh delay ready=%v err=%v", ready, err)
	}
	if d.State() != Armed || s.Pending() != 1 {
		t.Errorf("first poll should arm, state %s pending %d", d.State(), s.Pending())
	}
	h.model.Advance(9)
	if ready, _ := d.Poll(nil); ready {
		t.Errorf("ready one tick early at %d", s.Now())
	}
	if d.State() != Pending {
		t.Errorf("second poll should leave the delay pending, got %s", d.State())
	}
	h.model.Advance(1)
	if s.Now() != 4 {
		t.Fatalf("counter should have wrapped to 4, got %d", s.Now())
	}
	if ready, _ := d.Poll(nil); !ready || d.State() != Ready {
		t.Errorf("delay should be ready after the wrap")
	}
}

func TestZeroDelayIsReadyAtOnce(t *testing.T) {
	s, _, _ := setup(t, 100, 1)
	d := s.After(0)
	if ready, err := d.Poll(nil); !ready || err != nil {
		t.Errorf("zero delay ready=%v err=%v", ready, err)
	}
	if s.Pending() != 0 {
		t.Errorf("zero delay should not be queued")
	}
}

func TestHandleTimerDrainsInOrder(t *testing.T) {
	s, h, buf := setup(t, 1000, 8)
	var order []int
	mk := func(id int, ticks uint64) *Delay {
		d := s.After(ticks)
		if _, err := d.Poll(func() { order = append(order, id) }); err != nil {
			t.Fatal(err)
		}
		return d
	}
	mk(3, 300)
	mk(1, 100)
	mk(2, 200)
	mk(4, 200) // ties keep arming order
	late := mk(5, 900)

	if !riscv.IsInterruptEnabled(h, riscv.MachineTimer) {
		t.Errorf("arming should enable MTIE")
	}
	if h.model.Deadline(0) != 1100 {
		t.Errorf("comparator should hold the nearest expiry, got %d", h.model.Deadline(0))
	}

	h.model.AdvanceTo(1250)
	if n := s.HandleTimer(h); n != 3 {
		t.Errorf("expected 3 drained, got %d", n)
	}
	if want := []int{1, 2, 4}; len(order) != 3 || order[0] != want[0] || order[1] != want[1] || order[2] != want[2] {
		t.Errorf("wake order %v, expected %v", order, want)
	}
	if h.model.Deadline(0) != 1300 || !riscv.IsInterruptEnabled(h, riscv.MachineTimer) {
		t.Errorf("timer should be rearmed for 1300, got %d", h.model.Deadline(0))
	}

	late.Cancel()
	h.model.AdvanceTo(2000)
	if n := s.HandleTimer(h); n != 2 {
		t.Errorf("expected the cancelled entry drained too, got %d", n)
	}
	if len(order) != 4 || order[3] != 3 {
		t.Errorf("cancelled delay should not be woken: %v", order)
	}
	if riscv.IsInterruptEnabled(h, riscv.MachineTimer) || h.model.Deadline(0) != aclint.NoDeadline {
		t.Errorf("empty queue should leave MTIE clear and the timer silent")
	}
	if !bytes.Contains(buf.Bytes(), []byte("woke 1 of 2 due")) {
		t.Errorf("expected stats line, got %q", buf.String())
	}
}

func TestQueueFull(t *testing.T) {
	s, _, buf := setup(t, 0, 2)
	for i := 0; i < 2; i++ {
		if _, err := s.After(50).Poll(nil); err != nil {
			t.Fatal(err)
		}
	}
	d := s.After(10)
	_, err := d.Poll(nil)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if fault.CodeOf(err) != QueueFullCode || QueueFullCode.Subsystem() != fault.DelaySubsystem {
		t.Errorf("queue full carries the wrong code %v", fault.CodeOf(err))
	}
	if d.State() != Created {
		t.Errorf("a delay that could not be armed stays created, got %s", d.State())
	}
	if !bytes.Contains(buf.Bytes(), []byte("cannot arm")) {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestBlockWithInterrupts(t *testing.T) {
	s, h, _ := setup(t, 40, 4)
	riscv.Enable(h)
	if err := s.DelayUs(5); err != nil {
		t.Fatal(err)
	}
	if s.Now() != 90 {
		t.Errorf("expected to wake at 90, now %d", s.Now())
	}
	if h.waits != 1 {
		t.Errorf("expected one wfi, got %d", h.waits)
	}
	if s.Pending() != 0 || riscv.IsInterruptEnabled(h, riscv.MachineTimer) {
		t.Errorf("handler should have drained the queue")
	}
	if !riscv.Enabled(h) {
		t.Errorf("polling must restore MIE")
	}
}

func TestBlockWithoutInterrupts(t *testing.T) {
	s, h, _ := setup(t, 0, 4)
	if err := s.DelayTicks(3); err != nil {
		t.Fatal(err)
	}
	if s.Now() != 3 {
		t.Errorf("expected to finish at 3, now %d", s.Now())
	}
	if riscv.Enabled(h) {
		t.Errorf("MIE was never set")
	}
}

func TestAll(t *testing.T) {
	s, h, _ := setup(t, 0, 4)
	riscv.Enable(h)
	a, b := s.After(30), s.After(10)
	if err := s.All(a, b); err != nil {
		t.Fatal(err)
	}
	if !a.Woken() || !b.Woken() || s.Now() != 30 {
		t.Errorf("both delays should be woken by 30, now %d", s.Now())
	}
}

func TestBlockAcrossWrap(t *testing.T) {
	start := ^uint64(0) - 5
	s, h, _ := setup(t, start, 4)
	riscv.Enable(h)
	d := s.After(10)
	if _, err := d.Poll(nil); err != nil {
		t.Fatal(err)
	}
	if h.model.Deadline(0) != aclint.NoDeadline {
		t.Errorf("a target past the rollover should first fire at the top, got %#x", h.model.Deadline(0))
	}
	if err := s.Block(d); err != nil {
		t.Fatal(err)
	}
	if s.Now() != 4 || s.Now()-start != 10 {
		t.Errorf("expected to wake at 4, now %d", s.Now())
	}
	// one interrupt at the top, one after the rollover, one at the target
	if h.waits != 3 {
		t.Errorf("expected three wfi, got %d", h.waits)
	}
	if s.Pending() != 0 || riscv.IsInterruptEnabled(h, riscv.MachineTimer) {
		t.Errorf("handler should have drained the queue")
	}
}

func TestRearmAtTopOfCounter(t *testing.T) {
	s, h, _ := setup(t, ^uint64(0)-2, 4)
	d := s.After(8)
	if _, err := d.Poll(nil); err != nil {
		t.Fatal(err)
	}
	h.model.AdvanceTo(aclint.NoDeadline)
	if n := s.HandleTimer(h); n != 0 {
		t.Fatalf("nothing is due at the top, drained %d", n)
	}
	if h.model.Deadline(0) != 0 || !riscv.IsInterruptEnabled(h, riscv.MachineTimer) {
		t.Errorf("expected the comparator at the first tick after the rollover, got %#x", h.model.Deadline(0))
	}
	h.model.Advance(1)
	if n := s.HandleTimer(h); n != 0 {
		t.Fatalf("nothing is due right after the rollover, drained %d", n)
	}
	if h.model.Deadline(0) != 5 {
		t.Errorf("expected the real target once wrapped, got %d", h.model.Deadline(0))
	}
}

func TestBlockCancelled(t *testing.T) {
	s, h, _ := setup(t, 0, 4)
	riscv.Enable(h)
	d := s.After(50)
	if _, err := d.Poll(nil); err != nil {
		t.Fatal(err)
	}
	d.Cancel()
	err := s.Block(d)
	if !errors.Is(err, ErrCancelled) || fault.CodeOf(err) != CancelledCode {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if err := s.All(s.After(20), d); !errors.Is(err, ErrCancelled) {
		t.Errorf("All should give up on a cancelled delay, got %v", err)
	}
	if h.waits != 0 {
		t.Errorf("a cancelled delay should not wait, got %d wfi", h.waits)
	}
}
