package decl

import "riscvrt/src/tools/numgen"

var MachineException = &numgen.SpaceDef{
	Type: "Exception",
	Kind: numgen.Exception,
	Description: `Exception is a standard machine-level exception code, the low bits
of mcause when the interrupt bit is clear.`,
	Member: []numgen.MemberDef{
		{Name: "InstructionMisaligned", Code: 0, Description: "Instruction address misaligned"},
		{Name: "InstructionFault", Code: 1, Description: "Instruction access fault"},
		{Name: "IllegalInstruction", Code: 2, Description: "Illegal instruction"},
		{Name: "Breakpoint", Code: 3, Description: "Breakpoint"},
		{Name: "LoadMisaligned", Code: 4, Description: "Load address misaligned"},
		{Name: "LoadFault", Code: 5, Description: "Load access fault"},
		{Name: "StoreMisaligned", Code: 6, Description: "Store/AMO address misaligned"},
		{Name: "StoreFault", Code: 7, Description: "Store/AMO access fault"},
		{Name: "UserEnvCall", Code: 8, Description: "Environment call from U-mode"},
		{Name: "SupervisorEnvCall", Code: 9, Description: "Environment call from S-mode"},
		{Name: "MachineEnvCall", Code: 11, Description: "Environment call from M-mode"},
		{Name: "InstructionPageFault", Code: 12, Description: "Instruction page fault"},
		{Name: "LoadPageFault", Code: 13, Description: "Load page fault"},
		{Name: "StorePageFault", Code: 15, Description: "Store/AMO page fault"},
	},
}
