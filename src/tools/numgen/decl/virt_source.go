package decl

import "riscvrt/src/tools/numgen"

var VirtSource = &numgen.SpaceDef{
	Type: "Source",
	Kind: numgen.ExternalInterrupt,
	Description: `Source is a PLIC interrupt source wired on the QEMU virt board.
Source 0 is reserved by the PLIC and is not a member.`,
	Member: []numgen.MemberDef{
		{Name: "VirtIO0", Code: 1},
		{Name: "VirtIO1", Code: 2},
		{Name: "VirtIO2", Code: 3},
		{Name: "VirtIO3", Code: 4},
		{Name: "VirtIO4", Code: 5},
		{Name: "VirtIO5", Code: 6},
		{Name: "VirtIO6", Code: 7},
		{Name: "VirtIO7", Code: 8},
		{Name: "Uart0", Code: 10, Description: "NS16550 compatible UART"},
		{Name: "RTC", Code: 11, Description: "Goldfish real time clock"},
		{Name: "PCIe0", Code: 32},
		{Name: "PCIe1", Code: 33},
		{Name: "PCIe2", Code: 34},
		{Name: "PCIe3", Code: 35},
	},
}
