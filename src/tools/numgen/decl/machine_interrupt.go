package decl

import "riscvrt/src/tools/numgen"

var MachineInterrupt = &numgen.SpaceDef{
	Type: "Interrupt",
	Kind: numgen.CoreInterrupt,
	Description: `Interrupt is a standard core interrupt code, the low bits of mcause
when the interrupt bit is set.  The same code is the bit index in mie and mip.`,
	Member: []numgen.MemberDef{
		{Name: "SupervisorSoft", Code: 1, Description: "Supervisor software interrupt"},
		{Name: "MachineSoft", Code: 3, Description: "Machine software interrupt"},
		{Name: "SupervisorTimer", Code: 5, Description: "Supervisor timer interrupt"},
		{Name: "MachineTimer", Code: 7, Description: "Machine timer interrupt"},
		{Name: "SupervisorExternal", Code: 9, Description: "Supervisor external interrupt"},
		{Name: "MachineExternal", Code: 11, Description: "Machine external interrupt"},
	},
}
