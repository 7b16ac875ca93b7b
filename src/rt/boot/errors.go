package boot

import (
	"fmt"

	"riscvrt/src/lib/fault"
	"riscvrt/src/riscv"
)

var (
	HartIDCode       = fault.Register(fault.BootSubsystem, 1, "hart id above the configured maximum")
	EarlyTrapCode    = fault.Register(fault.BootSubsystem, 2, "trap before interrupts were configured")
	MainReturnedCode = fault.Register(fault.BootSubsystem, 3, "main returned")
	ConfigCode       = fault.Register(fault.BootSubsystem, 4, "bad boot configuration")
)

// HartIDError is raised on a hart whose mhartid is above MaxHartID.
// There is no stack for it, so it never gets past the check.
type HartIDError struct {
	Hart uint
	Max  uint
}

func (e *HartIDError) Error() string {
	return fmt.Sprintf("hart %d is above the maximum hart id %d", e.Hart, e.Max)
}

func (e *HartIDError) Code() fault.Code { return HartIDCode }

// EarlyTrapError is a trap taken through the provisional abort vector.
type EarlyTrapError struct {
	Cause riscv.Cause
	Mepc  uint64
	Mtval uint64
}

func (e *EarlyTrapError) Error() string {
	return fmt.Sprintf("%s at %#x during boot", e.Cause, e.Mepc)
}

func (e *EarlyTrapError) Code() fault.Code { return EarlyTrapCode }

type mainReturned struct{}

func (mainReturned) Error() string    { return "main returned" }
func (mainReturned) Code() fault.Code { return MainReturnedCode }

// ErrMainReturned is the abort reason when Main comes back.
var ErrMainReturned error = mainReturned{}

// ConfigError reports a Config that cannot be booted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("boot config: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Code() fault.Code { return ConfigCode }
