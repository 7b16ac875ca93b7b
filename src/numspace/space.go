package numspace

import (
	"errors"
	"fmt"
	"sort"

	"riscvrt/src/lib/fault"
)

// ErrEmptySpace is returned when a number space has no members.
var ErrEmptySpace = errors.New("number space has no members")

type DuplicateCodeError struct {
	Code  uint
	First string
	Other string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("code %d used by both %s and %s", e.Code, e.First, e.Other)
}

type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("name %s registered twice", e.Name)
}

// Run is an inclusive range of contiguous codes.
type Run struct {
	Lo, Hi uint
}

// Space is a number space built at startup from (name, code) pairs.
// Lookups go through the contiguous runs of codes, so a dense space costs
// one or two comparisons.  A Space is immutable once built.
type Space[T Number] struct {
	name    string
	members []T // sorted by code
	runs    []Run
	byName  map[string]int
}

// New builds a space from pairs, wrapping each entry with wrap.  Codes
// and names must be unique.
func New[T Number](name string, wrap func(Entry) T, pairs ...Entry) (*Space[T], error) {
	if len(pairs) == 0 {
		return nil, ErrEmptySpace
	}
	sorted := make([]Entry, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	s := &Space[T]{name: name, byName: make(map[string]int, len(sorted))}
	for i, e := range sorted {
		if i > 0 && sorted[i-1].Code == e.Code {
			return nil, &DuplicateCodeError{Code: e.Code, First: sorted[i-1].Name, Other: e.Name}
		}
		if _, dup := s.byName[e.Name]; dup {
			return nil, &DuplicateNameError{Name: e.Name}
		}
		s.byName[e.Name] = i
		s.members = append(s.members, wrap(e))
		if n := len(s.runs); n > 0 && s.runs[n-1].Hi+1 == e.Code {
			s.runs[n-1].Hi = e.Code
		} else {
			s.runs = append(s.runs, Run{Lo: e.Code, Hi: e.Code})
		}
	}
	return s, nil
}

// MustNew is New for spaces declared in var blocks.
func MustNew[T Number](name string, wrap func(Entry) T, pairs ...Entry) *Space[T] {
	s, err := New(name, wrap, pairs...)
	if err != nil {
		panic("numspace " + name + ": " + err.Error())
	}
	return s
}

func NewExceptions(name string, pairs ...Entry) (*Space[Exception], error) {
	return New(name, func(e Entry) Exception { return Exception{e} }, pairs...)
}

func NewCoreInterrupts(name string, pairs ...Entry) (*Space[CoreInterrupt], error) {
	return New(name, func(e Entry) CoreInterrupt { return CoreInterrupt{e} }, pairs...)
}

func NewExternalInterrupts(name string, pairs ...Entry) (*Space[ExternalInterrupt], error) {
	return New(name, func(e Entry) ExternalInterrupt { return ExternalInterrupt{e} }, pairs...)
}

func NewPriorities(name string, pairs ...Entry) (*Space[Priority], error) {
	return New(name, func(e Entry) Priority { return Priority{e} }, pairs...)
}

func NewHartIds(name string, pairs ...Entry) (*Space[HartId], error) {
	return New(name, func(e Entry) HartId { return HartId{e} }, pairs...)
}

// Range returns entries named prefix+i for codes lo..hi inclusive, a
// convenience for priority levels and hart ids.  It is empty when hi is
// below lo.
func Range(prefix string, lo, hi uint) []Entry {
	if hi < lo {
		return nil
	}
	result := make([]Entry, 0, hi-lo+1)
	for c := lo; ; c++ {
		result = append(result, Entry{Name: fmt.Sprintf("%s%d", prefix, c), Code: c})
		if c == hi {
			return result
		}
	}
}

func (s *Space[T]) Name() string { return s.name }

// Max is the largest registered code.
func (s *Space[T]) Max() uint {
	return s.runs[len(s.runs)-1].Hi
}

// Runs returns the contiguous runs of codes in increasing order.
func (s *Space[T]) Runs() []Run {
	return append([]Run(nil), s.runs...)
}

func (s *Space[T]) Contains(raw uint) bool {
	_, ok := s.index(raw)
	return ok
}

func (s *Space[T]) Codes() []uint {
	result := make([]uint, len(s.members))
	for i, m := range s.members {
		result[i] = m.Number()
	}
	return result
}

func (s *Space[T]) Members() []T {
	return append([]T(nil), s.members...)
}

// FromNumber converts a raw code to its member.  Codes that are not
// registered come back as a *fault.InvalidVariantError carrying raw.
func (s *Space[T]) FromNumber(raw uint) (T, error) {
	i, ok := s.index(raw)
	if !ok {
		var zero T
		return zero, &fault.InvalidVariantError{Value: raw}
	}
	return s.members[i], nil
}

// ByName finds a member by name.
func (s *Space[T]) ByName(name string) (T, bool) {
	i, ok := s.byName[name]
	if !ok {
		var zero T
		return zero, false
	}
	return s.members[i], true
}

// index maps raw to a position in members by walking the runs: every
// code in a run is registered, so the position is an offset from the
// run's start.
func (s *Space[T]) index(raw uint) (int, bool) {
	r := sort.Search(len(s.runs), func(i int) bool { return s.runs[i].Hi >= raw })
	if r == len(s.runs) || raw < s.runs[r].Lo {
		return 0, false
	}
	before := 0
	for _, run := range s.runs[:r] {
		before += int(run.Hi - run.Lo + 1)
	}
	return before + int(raw-s.runs[r].Lo), true
}
