package boot

import (
	"debug/elf"
	"fmt"
	"io"

	"riscvrt/src/hardware/mmio"
)

// Sections are the bounds of the initialised and zeroed data of an image.
// DataLMA is where the initial .data contents were loaded, DataStart and
// DataEnd where the program expects them.  All five are word aligned.
type Sections struct {
	DataLMA   uint64
	DataStart uint64
	DataEnd   uint64
	BssStart  uint64
	BssEnd    uint64
}

func (s Sections) DataSize() uint64 { return s.DataEnd - s.DataStart }
func (s Sections) BssSize() uint64  { return s.BssEnd - s.BssStart }

func (s Sections) validate() error {
	for _, f := range []struct {
		name string
		v    uint64
	}{
		{"Sections.DataLMA", s.DataLMA},
		{"Sections.DataStart", s.DataStart},
		{"Sections.DataEnd", s.DataEnd},
		{"Sections.BssStart", s.BssStart},
		{"Sections.BssEnd", s.BssEnd},
	} {
		if f.v%4 != 0 {
			return &ConfigError{Field: f.name, Reason: fmt.Sprintf("%#x is not word aligned", f.v)}
		}
	}
	if s.DataEnd < s.DataStart {
		return &ConfigError{Field: "Sections.DataEnd", Reason: "is below DataStart"}
	}
	if s.BssEnd < s.BssStart {
		return &ConfigError{Field: "Sections.BssEnd", Reason: "is below BssStart"}
	}
	return nil
}

// InitSections copies .data from its load address and zeroes .bss, one
// word at a time.
func InitSections(bus mmio.Bus, s Sections) {
	for off := uint64(0); off < s.DataSize(); off += 4 {
		bus.Write32(uintptr(s.DataStart+off), bus.Read32(uintptr(s.DataLMA+off)))
	}
	for a := s.BssStart; a < s.BssEnd; a += 4 {
		bus.Write32(uintptr(a), 0)
	}
}

type noDataSections struct{}

func (noDataSections) Error() string {
	return "no .data or .bss found in elf file"
}

// NoDataSections is returned by SectionsFromELF for an image that has
// neither the linker symbols nor the sections.
var NoDataSections error = noDataSections{}

// the symbols the link script exports for the startup code
var sectionSymbols = []string{"_sidata", "_sdata", "_edata", "_sbss", "_ebss"}

// SectionsFromELF recovers the section bounds of an image.  The linker
// symbols are used when the image has a symbol table, otherwise the .data
// and .bss section headers are, with the load address of .data taken from
// the PT_LOAD segment that carries it.
func SectionsFromELF(r io.ReaderAt) (Sections, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return Sections{}, err
	}
	defer f.Close()

	if s, ok := sectionsFromSymbols(f); ok {
		return s, nil
	}

	var s Sections
	found := false
	if data := f.Section(".data"); data != nil {
		lma, err := loadAddress(f, data)
		if err != nil {
			return Sections{}, err
		}
		s.DataLMA = lma
		s.DataStart = data.Addr
		s.DataEnd = data.Addr + data.Size
		found = true
	}
	if bss := f.Section(".bss"); bss != nil {
		s.BssStart = bss.Addr
		s.BssEnd = bss.Addr + bss.Size
		found = true
	}
	if !found {
		return Sections{}, NoDataSections
	}
	return s, nil
}

func sectionsFromSymbols(f *elf.File) (Sections, bool) {
	syms, err := f.Symbols()
	if err != nil {
		return Sections{}, false
	}
	values := make(map[string]uint64)
	for _, sym := range syms {
		values[sym.Name] = sym.Value
	}
	for _, name := range sectionSymbols {
		if _, ok := values[name]; !ok {
			return Sections{}, false
		}
	}
	return Sections{
		DataLMA:   values["_sidata"],
		DataStart: values["_sdata"],
		DataEnd:   values["_edata"],
		BssStart:  values["_sbss"],
		BssEnd:    values["_ebss"],
	}, true
}

func loadAddress(f *elf.File, s *elf.Section) (uint64, error) {
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if s.Offset >= p.Off && s.Offset+s.Size <= p.Off+p.Filesz {
			return p.Paddr + (s.Offset - p.Off), nil
		}
	}
	return 0, fmt.Errorf("section %s is not in a loadable segment", s.Name)
}
