package decl

import "riscvrt/src/tools/numgen"

var VirtHart = &numgen.SpaceDef{
	Type:        "Hart",
	Kind:        numgen.HartId,
	Description: `Hart is a hart id on a QEMU virt board started with -smp 8 or less.`,
	Member: []numgen.MemberDef{
		{Name: "H0", Code: 0},
		{Name: "H1", Code: 1},
		{Name: "H2", Code: 2},
		{Name: "H3", Code: 3},
		{Name: "H4", Code: 4},
		{Name: "H5", Code: 5},
		{Name: "H6", Code: 6},
		{Name: "H7", Code: 7},
	},
}
