package trap

import (
	"fmt"

	"riscvrt/src/lib/fault"
	"riscvrt/src/numspace"
)

// Code is a number space member usable as a table key.
type Code interface {
	comparable
	numspace.Number
	fmt.Stringer
}

type slot[H any] struct {
	name    string
	handler H
	present bool
}

// Table maps the codes of a number space to optional handlers.  It has
// one slot per code up to the space's maximum and is never changed after
// NewTable returns.
type Table[H any] struct {
	slots []slot[H]
}

// NewTable builds a table for set from handlers.  A key whose code is not
// a member of set is reported as a *fault.InvalidVariantError.
func NewTable[N Code, H any](set numspace.Set, handlers map[N]H) (*Table[H], error) {
	t := &Table[H]{slots: make([]slot[H], set.Max()+1)}
	for k, h := range handlers {
		code := k.Number()
		if !set.Contains(code) {
			return nil, &fault.InvalidVariantError{Value: code}
		}
		t.slots[code] = slot[H]{name: k.String(), handler: h, present: true}
	}
	return t, nil
}

// MustTable is NewTable for tables built from package level values.
func MustTable[N Code, H any](set numspace.Set, handlers map[N]H) *Table[H] {
	t, err := NewTable(set, handlers)
	if err != nil {
		panic(err)
	}
	return t
}

// Len is the number of slots, the space's maximum code plus one.
func (t *Table[H]) Len() int { return len(t.slots) }

// Lookup returns the handler for code.  Codes past the end of the table
// are simply absent.
func (t *Table[H]) Lookup(code uint) (H, bool) {
	if code >= uint(len(t.slots)) || !t.slots[code].present {
		var zero H
		return zero, false
	}
	return t.slots[code].handler, true
}

// Name is the member name registered at code, empty when absent.
func (t *Table[H]) Name(code uint) string {
	if code >= uint(len(t.slots)) {
		return ""
	}
	return t.slots[code].name
}

// Present lists the codes that have a handler in increasing order.
func (t *Table[H]) Present() []uint {
	var result []uint
	for i, s := range t.slots {
		if s.present {
			result = append(result, uint(i))
		}
	}
	return result
}
