package sim

import (
	"debug/elf"
	"fmt"
	"io"

	"riscvrt/src/hardware/mmio"
)

type notRISCV struct {
	machine elf.Machine
}

func (n *notRISCV) Error() string {
	return fmt.Sprintf("elf file is for %s, not riscv", n.machine)
}

// LoadELF copies every PT_LOAD segment of an image to its physical
// address and zero fills the rest of its memory size.  It returns the
// entry point.
func LoadELF(mem *mmio.Memory, r io.ReaderAt) (entry uint64, err error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if f.Machine != elf.EM_RISCV {
		return 0, &notRISCV{f.Machine}
	}

	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(*mmio.BusError)
			if !ok {
				panic(r)
			}
			err = be
		}
	}()
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, p.Filesz)
		if _, err := p.ReadAt(data, 0); err != nil && err != io.EOF {
			return 0, err
		}
		mem.WriteBytes(uintptr(p.Paddr), data)
		if p.Memsz > p.Filesz {
			mem.WriteBytes(uintptr(p.Paddr+p.Filesz), make([]byte, p.Memsz-p.Filesz))
		}
	}
	return f.Entry, nil
}
