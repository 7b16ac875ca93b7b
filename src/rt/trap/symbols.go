package trap

import (
	"fmt"
	"sort"
	"sync"

	"riscvrt/src/riscv"
)

// Names of the entry points the runtime defines or expects.
const (
	StartTrap             = "_start_trap"
	VectorTableSymbol     = "_vector_table"
	ContinueInterruptTrap = "_continue_interrupt_trap"
	DefaultHandlerTrap    = "_start_DefaultHandler_trap"
	ExceptionHandlerName  = "ExceptionHandler"
	DefaultHandlerName    = "DefaultHandler"
)

// InterruptTrap is the name of the vectored trampoline for an interrupt.
func InterruptTrap(name string) string {
	return "_start_" + name + "_trap"
}

// Entry is code that a trap can land on.  The hart has already entered
// the trap when it runs; returning from it is mret.
type Entry func(h riscv.Hart)

// Symbol is a named entry point at a fixed address.
type Symbol struct {
	Name  string
	Addr  uint64
	Entry Entry
}

// SymbolTable resolves entry points by name and by address.  It stands in
// for the linker: code addresses are assigned once and never move.
type SymbolTable struct {
	mu     sync.RWMutex
	byName map[string]Symbol
	byAddr map[uint64]Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: map[string]Symbol{}, byAddr: map[uint64]Symbol{}}
}

// Define adds a symbol.  Redefining a name or an address is an error, the
// way a duplicate strong symbol is at link time.
func (s *SymbolTable) Define(name string, addr uint64, e Entry) error {
	if addr&0b11 != 0 {
		return fmt.Errorf("symbol %s at %#x is not 4 byte aligned", name, addr)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byName[name]; ok {
		return fmt.Errorf("symbol %s already defined at %#x", name, old.Addr)
	}
	if old, ok := s.byAddr[addr]; ok {
		return fmt.Errorf("address %#x already holds %s", addr, old.Name)
	}
	sym := Symbol{Name: name, Addr: addr, Entry: e}
	s.byName[name] = sym
	s.byAddr[addr] = sym
	return nil
}

func (s *SymbolTable) Lookup(name string) (Symbol, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sym, ok := s.byName[name]
	return sym, ok
}

// At finds the symbol that starts exactly at addr.
func (s *SymbolTable) At(addr uint64) (Symbol, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sym, ok := s.byAddr[addr]
	return sym, ok
}

// Symbols lists every symbol ordered by address.
func (s *SymbolTable) Symbols() []Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Symbol, 0, len(s.byAddr))
	for _, sym := range s.byAddr {
		result = append(result, sym)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Addr < result[j].Addr })
	return result
}
