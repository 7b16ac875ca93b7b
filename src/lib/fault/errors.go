package fault

import (
	"errors"
	"fmt"
)

// InvalidVariantError reports a raw code that is not a member of a
// number space.  Value is the offending number, unchanged.
type InvalidVariantError struct {
	Value uint
}

func (e *InvalidVariantError) Error() string {
	return fmt.Sprintf("invalid variant %d", e.Value)
}

func (e *InvalidVariantError) Code() Code { return InvalidVariantCode }

// IndexOutOfBoundsError reports an index outside [Min, Max].
type IndexOutOfBoundsError struct {
	Index uint
	Min   uint
	Max   uint
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d out of bounds [%d, %d]", e.Index, e.Min, e.Max)
}

func (e *IndexOutOfBoundsError) Code() Code { return IndexOutOfBoundsCode }

// CheckIndex returns an IndexOutOfBoundsError unless min <= index <= max.
func CheckIndex(index, min, max uint) error {
	if index < min || index > max {
		return &IndexOutOfBoundsError{Index: index, Min: min, Max: max}
	}
	return nil
}

// InvalidFieldValueError reports a value that does not fit a register field.
type InvalidFieldValueError struct {
	Field   string
	Value   uint64
	Bitmask uint64
}

func (e *InvalidFieldValueError) Error() string {
	return fmt.Sprintf("invalid value %#x for field %s (mask %#x)", e.Value, e.Field, e.Bitmask)
}

func (e *InvalidFieldValueError) Code() Code { return InvalidFieldValueCode }

// InvalidFieldVariantError reports a field value that fits but names nothing.
type InvalidFieldVariantError struct {
	Field string
	Value uint64
}

func (e *InvalidFieldVariantError) Error() string {
	return fmt.Sprintf("invalid variant %d for field %s", e.Value, e.Field)
}

func (e *InvalidFieldVariantError) Code() Code { return InvalidFieldVariantCode }

// InvalidValueError reports a whole register value rejected by its mask.
type InvalidValueError struct {
	Value   uint64
	Bitmask uint64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %#x (mask %#x)", e.Value, e.Bitmask)
}

func (e *InvalidValueError) Code() Code { return InvalidValueCode }

type unimplemented struct{}

func (unimplemented) Error() string { return "unimplemented" }
func (unimplemented) Code() Code    { return UnimplementedCode }

// ErrUnimplemented is returned by operations a target does not support.
var ErrUnimplemented error = unimplemented{}

// OffendingValue returns the raw number carried by an InvalidVariantError.
func OffendingValue(err error) (uint, bool) {
	var iv *InvalidVariantError
	if errors.As(err, &iv) {
		return iv.Value, true
	}
	return 0, false
}

// Hart wraps err so that its code names the hart that saw it.
func Hart(err error, hart uint) error {
	if err == nil {
		return nil
	}
	return &hartError{err: err, hart: hart}
}

type hartError struct {
	err  error
	hart uint
}

func (h *hartError) Error() string { return fmt.Sprintf("hart %d: %v", h.hart, h.err) }
func (h *hartError) Unwrap() error { return h.err }
func (h *hartError) Code() Code    { return CodeOf(h.err).WithHart(h.hart) }
