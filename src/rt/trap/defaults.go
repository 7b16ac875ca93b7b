package trap

import (
	"riscvrt/src/lib/fault"
	"riscvrt/src/lib/trust"
	"riscvrt/src/lib/upbeat"
	"riscvrt/src/riscv"
)

var (
	UnhandledExceptionCode = fault.Register(fault.TrapSubsystem, 1, "unhandled exception")
	UnhandledInterruptCode = fault.Register(fault.TrapSubsystem, 2, "unhandled interrupt")
)

// DefaultExceptionHandler explains the trap on log, reports it through
// semihosting and parks the hart.
func DefaultExceptionHandler(log *trust.Logger) ExceptionHandler {
	return func(h riscv.Hart, _ *TrapFrame) {
		fatalTrap(h, log, UnhandledExceptionCode)
	}
}

// DefaultInterruptHandler treats an unexpected interrupt as fatal: left
// alone it would fire again as soon as the handler returned.
func DefaultInterruptHandler(log *trust.Logger) InterruptHandler {
	return func(h riscv.Hart) {
		fatalTrap(h, log, UnhandledInterruptCode)
	}
}

func fatalTrap(h riscv.Hart, log *trust.Logger, code fault.Code) {
	cause := riscv.ReadCause(h)
	upbeat.PrintoutTrap(cause, h.ReadCSR(riscv.Mepc), h.ReadCSR(riscv.Mtval), log)
	hart := riscv.HartID(h)
	log.Fatalf(int(code.WithHart(hart)), "%s", code.WithHart(hart))
	riscv.Park(h)
}
