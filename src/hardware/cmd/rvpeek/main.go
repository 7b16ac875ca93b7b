//go:build linux

// Command rvpeek prints the CLINT and PLIC state of a running virt board
// through /dev/mem.  It needs root and a kernel that allows the mapping.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"riscvrt/src/hardware/aclint"
	"riscvrt/src/hardware/mmio"
	"riscvrt/src/hardware/plic"
	"riscvrt/src/hardware/virt"
)

var helpFlag = flag.Bool("h", false, "get usage info")
var maxHartFlag = flag.Uint("maxhart", 0, "highest hart id on the board")
var ipiFlag = flag.Int("ipi", -1, "set the MSIP of this hart before printing")
var sourcesFlag = flag.Bool("all", false, "print every PLIC source, not only the ones with a priority")

func main() {
	flag.Parse()
	if *helpFlag {
		usage()
	}
	clintMem, err := mmio.OpenDevMem(virt.CLINTBase, aclint.Size)
	if err != nil {
		log.Fatalf("unable to map the clint: %v", err)
	}
	defer clintMem.Close()
	plicMem, err := mmio.OpenDevMem(virt.PLICBase, virt.PLICSize)
	if err != nil {
		log.Fatalf("unable to map the plic: %v", err)
	}
	defer plicMem.Close()

	clint := aclint.New(clintMem, virt.CLINTBase, *maxHartFlag)
	if *ipiFlag >= 0 {
		msip, err := clint.MSIPChecked(uint(*ipiFlag))
		if err != nil {
			log.Fatalf("%v", err)
		}
		msip.Pend()
	}
	for id := uint(0); id <= *maxHartFlag; id++ {
		timer, err := clint.Hart(id)
		if err != nil {
			log.Fatalf("%v", err)
		}
		msip, _ := clint.MSIPChecked(id)
		fmt.Printf("hart %d: mtime %d mtimecmp %#x fired %v msip %v\n",
			id, timer.Now(), timer.Compare(), timer.Fired(), msip.IsPending())
	}

	p := plic.New(plicMem, virt.PLICBase, virt.MaxSourceNumber, virt.Contexts(*maxHartFlag))
	for _, raw := range virt.Sources.Codes() {
		src, _ := virt.SourceFromNumber(raw)
		prio := p.Priorities().Get(src)
		if prio == 0 && !*sourcesFlag {
			continue
		}
		fmt.Printf("source %-8s priority %d pending %v\n", src, prio, p.Pendings().IsPending(src))
	}
	for c := uint(0); c < p.Contexts(); c++ {
		ctx, err := p.Context(c)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("context %d: threshold %d\n", c, ctx.Threshold().Get())
	}
}

func usage() {
	fmt.Printf("usage: rvpeek [flags]\n")
	flag.PrintDefaults()
	os.Exit(1)
}
