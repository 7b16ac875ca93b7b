package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	tty "github.com/mattn/go-tty"

	"riscvrt/src/hardware/plic"
	"riscvrt/src/hardware/virt"
	"riscvrt/src/lib/semihosting"
	"riscvrt/src/lib/trust"
	"riscvrt/src/riscv"
	"riscvrt/src/rt/boot"
	"riscvrt/src/sim"
)

var helpFlag = flag.Bool("h", false, "get usage info")
var hartsFlag = flag.Uint("harts", 1, "number of harts to boot")
var vectoredFlag = flag.Bool("vectored", false, "install the vectored trap table instead of the direct one")
var periodFlag = flag.Uint("period", 250, "tick period of hart 0 in ms, hart n ticks every (n+1)*period")
var countFlag = flag.Uint("n", 4, "ticks per hart before the program exits")
var elfFlag = flag.String("elf", "", "load an elf image into ram and initialize its .data and .bss at boot")
var interactiveFlag = flag.Bool("i", false, "feed the terminal to the uart; q quits")
var verbose = flag.Int("v", 0, "verbosity level: 0 terse (default), 1 debug info, 2 show stats")

///////////////////////////////////////////////////////////////////////
// main
///////////////////////////////////////////////////////////////////////
func main() {
	flag.Parse()
	if *helpFlag || *hartsFlag == 0 {
		usage()
	}
	logger := trust.New(os.Stderr, "rvsim")
	switch *verbose {
	case 0:
		logger.SetLevel(trust.ErrorMask | trust.WarnMask)
	case 1:
		logger.SetLevel(trust.ErrorMask | trust.WarnMask | trust.InfoMask | trust.DebugMask)
	default:
		logger.SetLevel(trust.ErrorMask | trust.WarnMask | trust.InfoMask | trust.DebugMask | trust.StatsMask)
	}

	m, err := sim.New(sim.Config{
		MaxHartID:   *hartsFlag - 1,
		Console:     os.Stdout,
		Interactive: *interactiveFlag,
		Log:         logger,
	})
	if err != nil {
		log.Fatalf("building machine: %v", err)
	}
	prev := semihosting.SetHost(m.Host())
	defer semihosting.SetHost(prev)

	sections := boot.Sections{}
	if *elfFlag != "" {
		sections = loadImage(m, *elfFlag)
	}

	app := newTicker(*periodFlag, *countFlag, *hartsFlag)
	cfg := sim.RuntimeConfig{
		Mode:     riscv.Direct,
		Main:     app.main,
		Sections: sections,
		External: map[uint]plic.Handler{virt.Uart0.Number(): app.uartInterrupt},
	}
	if *vectoredFlag {
		cfg.Mode = riscv.Vectored
	}
	rt, err := sim.NewRuntime(m, cfg)
	if err != nil {
		log.Fatalf("building runtime: %v", err)
	}
	app.rt = rt

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if *interactiveFlag {
		restore := feedTerminal(ctx, m)
		defer restore()
	}

	err = m.Run(ctx, rt.Start)
	var exit *sim.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exit):
		log.Printf("!!! program exited: %v", exit)
		if exit.Code != 0 {
			os.Exit(int(exit.Code))
		}
		os.Exit(1)
	default:
		log.Fatalf("!!! run failed: %v", err)
	}
}

func usage() {
	fmt.Printf("usage: rvsim [flags]\n")
	flag.PrintDefaults()
	os.Exit(1)
}

// loadImage puts the PT_LOAD segments of the image at path into RAM and
// returns the sections the boot hart has to set up.
func loadImage(m *sim.Machine, path string) boot.Sections {
	fp, err := os.Open(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer fp.Close()
	entry, err := sim.LoadELF(m.Memory, fp)
	if err != nil {
		log.Fatalf("loading %s: %v", path, err)
	}
	s, err := boot.SectionsFromELF(fp)
	if errors.Is(err, boot.NoDataSections) {
		return boot.Sections{}
	}
	if err != nil {
		log.Fatalf("reading sections of %s: %v", path, err)
	}
	if *verbose > 0 {
		log.Printf("@@@ loaded %s, entry point is %x, .data %x-%x from %x, .bss %x-%x",
			path, entry, s.DataStart, s.DataEnd, s.DataLMA, s.BssStart, s.BssEnd)
	}
	return s
}

// feedTerminal puts the terminal in raw mode and copies what is typed
// into the UART's receive buffer until ctx is done.
func feedTerminal(ctx context.Context, m *sim.Machine) func() {
	t, err := tty.Open()
	if err != nil {
		log.Fatalf("opening terminal: %v", err)
	}
	restore := t.MustRaw()
	go func() {
		for {
			r, err := t.ReadRune()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-m.Stopped():
				return
			default:
			}
			m.UART.Feed([]byte(string(r)))
		}
	}()
	return func() {
		_ = restore()
		_ = t.Close()
	}
}

///////////////////////////////////////////////////////////////////////
// ticker is the program the harts run
///////////////////////////////////////////////////////////////////////
type ticker struct {
	rt     *sim.Runtime
	period uint
	count  uint
	harts  uint

	console sync.Mutex
	done    atomic.Uint32
	quit    atomic.Bool
}

func newTicker(period, count, harts uint) *ticker {
	return &ticker{period: period, count: count, harts: harts}
}

func (a *ticker) printf(format string, params ...interface{}) {
	a.console.Lock()
	defer a.console.Unlock()
	fmt.Fprintf(a.rt.UART, format, params...)
}

func (a *ticker) main(rt *sim.Runtime, h riscv.Hart) {
	id := riscv.HartID(h)
	timer := rt.Timer(h)
	boss := int(id) == rt.BootHart()
	if boss {
		rt.UART.Init()
		a.printf("booted %d harts, mtvec %#x\r\n", a.harts, riscv.ReadMtvec(h).Bits())
	}
	if *interactiveFlag {
		rt.PLIC.Priorities().Set(virt.Uart0, virt.P1)
		ctx := rt.Context(h)
		ctx.Threshold().Set(virt.P0)
		if boss {
			ctx.Enables().Enable(virt.Uart0)
		}
		plic.EnableMEI(h)
	}
	riscv.Enable(h)
	if boss && *interactiveFlag {
		rt.UART.EnableRxInterrupt()
	}

	for i := uint(0); i < a.count && !a.quit.Load(); i++ {
		if err := timer.DelayMs(uint32(a.period * uint(id+1))); err != nil {
			a.printf("hart %d: %v\r\n", id, err)
			break
		}
		a.printf("hart %d: tick %d at mtime %d\r\n", id, i, timer.Now())
	}
	a.done.Add(1)
	if !boss {
		return
	}
	for a.done.Load() < uint32(a.harts) || (*interactiveFlag && !a.quit.Load()) {
		if err := timer.DelayMs(1); err != nil {
			break
		}
	}
	a.printf("all harts done\r\n")
	semihosting.Exit(0)
}

// uartInterrupt echoes what was typed.
func (a *ticker) uartInterrupt(uint) {
	a.rt.UART.Drain(func(b byte) {
		if b == 'q' {
			a.quit.Store(true)
			return
		}
		if b == '\r' {
			a.printf("\r\n")
			return
		}
		a.printf("%c", b)
	})
}
