package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodePacking(t *testing.T) {
	c := MakeCode(DelaySubsystem, 7).WithHart(3)
	if c.Subsystem() != DelaySubsystem || c.Number() != 7 || c.Hart() != 3 {
		t.Errorf("bad unpacking of %#x: %d %d %d", uint64(c), c.Subsystem(), c.Number(), c.Hart())
	}
	if uint64(c) != 0x0005_0003_0000_0007 {
		t.Errorf("unexpected layout %#x", uint64(c))
	}
	if c.WithHart(1).Hart() != 1 {
		t.Errorf("WithHart should replace the hart")
	}
}

func TestCodeMessages(t *testing.T) {
	if s := InvalidVariantCode.WithHart(2).String(); s != "Hart 2: invalid variant" {
		t.Errorf("unexpected message %q", s)
	}
	if s := MakeCode(99, 99).String(); s != "Unknown error code" {
		t.Errorf("unexpected message %q", s)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Code
	}{
		{nil, NoError},
		{&InvalidVariantError{Value: 2}, InvalidVariantCode},
		{CheckIndex(9, 0, 4), IndexOutOfBoundsCode},
		{fmt.Errorf("wrapped: %w", &InvalidValueError{Value: 1, Bitmask: 2}), InvalidValueCode},
		{ErrUnimplemented, UnimplementedCode},
		{errors.New("plain"), UnimplementedCode},
		{Hart(&InvalidFieldVariantError{Field: "mode", Value: 3}, 4), InvalidFieldVariantCode.WithHart(4)},
	}
	for i, tc := range tests {
		if got := CodeOf(tc.err); got != tc.want {
			t.Errorf("case %d: expected %#x but got %#x", i, uint64(tc.want), uint64(got))
		}
	}
}

func TestCheckIndexAndOffendingValue(t *testing.T) {
	if err := CheckIndex(3, 1, 3); err != nil {
		t.Errorf("3 is inside [1,3]: %v", err)
	}
	err := CheckIndex(0, 1, 3)
	var oob *IndexOutOfBoundsError
	if !errors.As(err, &oob) || oob.Index != 0 || oob.Min != 1 || oob.Max != 3 {
		t.Errorf("bad bounds error %v", err)
	}
	if v, ok := OffendingValue(fmt.Errorf("x: %w", &InvalidVariantError{Value: 42})); !ok || v != 42 {
		t.Errorf("expected offending value 42 got %d,%v", v, ok)
	}
	if _, ok := OffendingValue(err); ok {
		t.Errorf("bounds errors carry no offending variant")
	}
}
