// Package fault holds the error values shared by the runtime packages.
// Every error carries a packed Code so that firmware can report it as a
// single number, for example as the semihosting exit subcode.
package fault

import (
	"errors"
	"fmt"
	"sync"
)

const subsystemMask = 0x00ff_0000_0000_0000
const hartIDMask = 0x0000_ffff_0000_0000
const errorNumberMask = 0x0000_0000_0000_ffff

// Code is subsystem<<48 | hart<<32 | number.
type Code uint64

const NoError = Code(0)

type Subsystem byte

const (
	NumberSpaceSubsystem Subsystem = 1
	BootSubsystem        Subsystem = 2
	TrapSubsystem        Subsystem = 3
	InterruptSubsystem   Subsystem = 4
	DelaySubsystem       Subsystem = 5
)

// Number space errors
const (
	InvalidVariantNumber      = 1
	IndexOutOfBoundsNumber    = 2
	InvalidFieldValueNumber   = 3
	InvalidFieldVariantNumber = 4
	InvalidValueNumber        = 5
	UnimplementedNumber       = 6
)

var (
	messageLock sync.RWMutex
	messages    = map[Code]string{}
)

// Register associates a message with the constant part of a code and
// returns that code.  Packages call it from their var blocks.
func Register(subsys Subsystem, number uint16, message string) Code {
	c := MakeCode(subsys, number)
	messageLock.Lock()
	defer messageLock.Unlock()
	messages[c] = message
	return c
}

func MakeCode(subsys Subsystem, number uint16) Code {
	ss := subsystemMask & (uint64(subsys) << 48)
	en := errorNumberMask & uint64(number)
	return Code(ss | en)
}

// WithHart adds the hart that observed the error.
func (c Code) WithHart(hart uint) Code {
	return Code(uint64(c)&^hartIDMask | (uint64(hart)<<32)&hartIDMask)
}

func (c Code) Subsystem() Subsystem {
	return Subsystem((uint64(c) & subsystemMask) >> 48)
}

func (c Code) Hart() uint {
	return uint((uint64(c) & hartIDMask) >> 32)
}

func (c Code) Number() uint16 {
	return uint16(uint64(c) & errorNumberMask)
}

func (c Code) String() string {
	messageLock.RLock()
	t, ok := messages[c&^hartIDMask]
	messageLock.RUnlock()
	if !ok {
		return "Unknown error code"
	}
	return fmt.Sprintf("Hart %d: %s", c.Hart(), t)
}

// Coded is implemented by every error in this module.
type Coded interface {
	error
	Code() Code
}

// CodeOf digs a Code out of err.  Errors that do not carry one map to
// NoError for nil and to an unimplemented code otherwise.
func CodeOf(err error) Code {
	if err == nil {
		return NoError
	}
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return UnimplementedCode
}

var (
	InvalidVariantCode      = Register(NumberSpaceSubsystem, InvalidVariantNumber, "invalid variant")
	IndexOutOfBoundsCode    = Register(NumberSpaceSubsystem, IndexOutOfBoundsNumber, "index out of bounds")
	InvalidFieldValueCode   = Register(NumberSpaceSubsystem, InvalidFieldValueNumber, "invalid field value")
	InvalidFieldVariantCode = Register(NumberSpaceSubsystem, InvalidFieldVariantNumber, "invalid field variant")
	InvalidValueCode        = Register(NumberSpaceSubsystem, InvalidValueNumber, "invalid value")
	UnimplementedCode       = Register(NumberSpaceSubsystem, UnimplementedNumber, "unimplemented")
)
