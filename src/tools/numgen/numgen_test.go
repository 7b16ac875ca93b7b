package numgen

import (
	"bytes"
	"go/parser"
	"go/token"
	"strings"
	"testing"
)

const sourceDecl = `package decl

import "riscvrt/src/tools/numgen"

var TestSource = &numgen.SpaceDef{
	Type: "Source",
	Kind: numgen.ExternalInterrupt,
	Description: "Source is a test interrupt line.",
	Member: []numgen.MemberDef{
		{Name: "Rtc", Code: 11},
		{Name: "Uart0", Code: 10, Description: "The console"},
		{Name: "Virtio1", Code: 2},
		{Name: "Virtio0", Code: 1},
		{Name: "Pci", Code: 0x20},
	},
}
`

func TestParseDecl(t *testing.T) {
	name, def, err := ParseDecl("source.go", strings.NewReader(sourceDecl))
	if err != nil {
		t.Fatal(err)
	}
	if name != "TestSource" {
		t.Errorf("expected the var name, got %s", name)
	}
	if def.Type != "Source" || def.Kind != ExternalInterrupt || len(def.Member) != 5 {
		t.Fatalf("unexpected definition %+v", def)
	}
	if def.Member[1].Description != "The console" || def.Member[4].Code != 0x20 {
		t.Errorf("members not read: %+v", def.Member)
	}
}

func TestParseDeclRejects(t *testing.T) {
	for _, src := range []string{
		"package decl\nvar A, B = 1, 2\n",
		"package decl\nvar A = 1\nvar B = 2\n",
		"package decl\nfunc f() {}\n",
		"package decl\nvar A = &numgen.SpaceDef{Bogus: 1}\n",
		"package decl\nvar A = &numgen.SpaceDef{Kind: numgen.Unknown}\n",
		"package decl\nvar A = &numgen.SpaceDef{Member: []numgen.MemberDef{{Code: -1}}}\n",
	} {
		if _, _, err := ParseDecl("bad.go", strings.NewReader(src)); err == nil {
			t.Errorf("expected an error for %q", src)
		}
	}
}

func TestValidateRuns(t *testing.T) {
	_, def, err := ParseDecl("source.go", strings.NewReader(sourceDecl))
	if err != nil {
		t.Fatal(err)
	}
	sorted, runs, err := def.validate()
	if err != nil {
		t.Fatal(err)
	}
	if sorted[0].Name != "Virtio0" || sorted[len(sorted)-1].Name != "Pci" {
		t.Errorf("members not sorted by code: %+v", sorted)
	}
	want := []run{{1, 2}, {10, 11}, {0x20, 0x20}}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %+v", len(want), runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d: expected %+v, got %+v", i, want[i], runs[i])
		}
	}
	if cond(runs[0]) != "1 <= raw && raw <= 2" || cond(runs[2]) != "raw == 32" {
		t.Errorf("bad conditions %q %q", cond(runs[0]), cond(runs[2]))
	}
	if cond(run{0, 3}) != "raw <= 3" {
		t.Errorf("a run from zero needs no lower bound, got %q", cond(run{0, 3}))
	}
}

func TestValidateRejects(t *testing.T) {
	for name, def := range map[string]*SpaceDef{
		"unexported": {Type: "source", Kind: Priority, Member: []MemberDef{{Name: "A"}}},
		"kind":       {Type: "Source", Kind: "nope", Member: []MemberDef{{Name: "A"}}},
		"empty":      {Type: "Source", Kind: Priority},
		"twice":      {Type: "Source", Kind: Priority, Member: []MemberDef{{Name: "A"}, {Name: "A", Code: 1}}},
		"code":       {Type: "Source", Kind: Priority, Member: []MemberDef{{Name: "A"}, {Name: "B"}}},
		"member":     {Type: "Source", Kind: Priority, Member: []MemberDef{{Name: "b"}}},
	} {
		if _, _, err := def.validate(); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestGenerate(t *testing.T) {
	_, def, err := ParseDecl("source.go", strings.NewReader(sourceDecl))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	opts := &UserOptions{Out: "zz_source.go", Pkg: "virt", InputFilename: "source.go"}
	if err := Generate(def, opts, &out); err != nil {
		t.Fatal(err)
	}
	code := out.String()
	if _, err := parser.ParseFile(token.NewFileSet(), opts.Out, code, 0); err != nil {
		t.Fatalf("output does not parse: %v\n%s", err, code)
	}
	for _, want := range []string{
		"// Code generated by numgen from source.go. DO NOT EDIT.",
		"package virt",
		"// The console",
		"const MaxSourceNumber = 32",
		"func (Source) InterruptNumber() {}",
		"func (Source) ExternalInterruptNumber() {}",
		"case 10 <= raw && raw <= 11:",
		"var Sources numspace.Set = sourceSet{}",
		"return []uint{1, 2, 10, 11, 32}",
		`return "Uart0"`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("expected %q in output:\n%s", want, code)
		}
	}
	if strings.Contains(code, "CoreInterruptNumber") {
		t.Errorf("external sources must not be core interrupts")
	}
}
