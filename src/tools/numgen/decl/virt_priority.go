package decl

import "riscvrt/src/tools/numgen"

var VirtPriority = &numgen.SpaceDef{
	Type:    "Priority",
	Kind:    numgen.Priority,
	SetName: "Priorities",
	Description: `Priority is a PLIC priority level.  P0 means never interrupt and is
the reset value of every source.`,
	Member: []numgen.MemberDef{
		{Name: "P0", Code: 0, Description: "Never interrupt"},
		{Name: "P1", Code: 1},
		{Name: "P2", Code: 2},
		{Name: "P3", Code: 3},
		{Name: "P4", Code: 4},
		{Name: "P5", Code: 5},
		{Name: "P6", Code: 6},
		{Name: "P7", Code: 7},
	},
}
