package trap

import (
	"fmt"

	"riscvrt/src/hardware/mmio"
)

const (
	opJAL = 0x6f
	// jalRange is the reach of a jal offset, +/- 1MiB.
	jalRange = 1 << 20
)

// EncodeJAL assembles jal rd, off.
func EncodeJAL(rd uint32, off int64) (uint32, error) {
	if off&1 != 0 || off < -jalRange || off >= jalRange {
		return 0, fmt.Errorf("jal offset %d out of range", off)
	}
	imm := uint32(off)
	word := opJAL | (rd&0x1f)<<7
	word |= (imm >> 20 & 0x1) << 31
	word |= (imm >> 1 & 0x3ff) << 21
	word |= (imm >> 11 & 0x1) << 20
	word |= (imm >> 12 & 0xff) << 12
	return word, nil
}

// DecodeJAL disassembles a jal.  ok is false for any other instruction.
func DecodeJAL(word uint32) (rd uint32, off int64, ok bool) {
	if word&0x7f != opJAL {
		return 0, 0, false
	}
	imm := (word>>31&0x1)<<20 | (word>>21&0x3ff)<<1 | (word>>20&0x1)<<11 | (word>>12&0xff)<<12
	// sign extend from bit 20
	return word >> 7 & 0x1f, int64(int32(imm<<11) >> 11), true
}

// VectorTable is one jump per interrupt code.  Slot 0 is where exceptions
// land and goes to the direct path; every other slot goes to the
// interrupt's own trampoline or to the default one.
type VectorTable struct {
	targets []string
}

// NewVectorTable lays out a table covering every slot of interrupts.
func NewVectorTable(interrupts *Table[InterruptHandler]) VectorTable {
	v := VectorTable{targets: make([]string, interrupts.Len())}
	for code := range v.targets {
		switch _, ok := interrupts.Lookup(uint(code)); {
		case code == 0:
			v.targets[code] = StartTrap
		case ok:
			v.targets[code] = InterruptTrap(interrupts.Name(uint(code)))
		default:
			v.targets[code] = DefaultHandlerTrap
		}
	}
	return v
}

func (v VectorTable) Len() int { return len(v.targets) }

// Target is the symbol slot code jumps to.
func (v VectorTable) Target(code uint) string {
	return v.targets[code]
}

// Size is the table's footprint in bytes.
func (v VectorTable) Size() uint64 {
	return 4 * uint64(len(v.targets))
}

// Encode assembles the table for base.  Every target must already be in
// symbols and within reach of a jal.
func (v VectorTable) Encode(base uint64, symbols *SymbolTable) ([]uint32, error) {
	words := make([]uint32, len(v.targets))
	for i, name := range v.targets {
		sym, ok := symbols.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("vector slot %d: undefined symbol %s", i, name)
		}
		pc := base + 4*uint64(i)
		w, err := EncodeJAL(0, int64(sym.Addr-pc))
		if err != nil {
			return nil, fmt.Errorf("vector slot %d to %s: %w", i, name, err)
		}
		words[i] = w
	}
	return words, nil
}

// WriteTo stores encoded words at base.
func WriteTo(bus mmio.Bus, base uint64, words []uint32) {
	for i, w := range words {
		bus.Write32(uintptr(base)+4*uintptr(i), w)
	}
}

// Resolve finds the code a hart runs when it jumps to pc: the symbol at
// pc, or the target of the jal stored there.
func Resolve(bus mmio.Bus, symbols *SymbolTable, pc uint64) (Symbol, error) {
	for hops := 0; hops < 2; hops++ {
		if sym, ok := symbols.At(pc); ok && sym.Entry != nil {
			return sym, nil
		}
		_, off, ok := DecodeJAL(bus.Read32(uintptr(pc)))
		if !ok {
			break
		}
		pc += uint64(off)
	}
	return Symbol{}, fmt.Errorf("no code at %#x", pc)
}
