package numgen

var preambleTemplateText = `// Code generated by numgen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import (
	"fmt"

	"riscvrt/src/lib/fault"
	"riscvrt/src/numspace"
)
`

var spaceTemplateText = `
{{comment "" .Description -}}
type {{.Type}} uint

const (
{{- range $i, $m := .Sorted}}
{{if $i}}
{{end -}}
{{comment "\t" $m.Description -}}
	{{$m.Name}} {{$.Type}} = {{$m.Code}}
{{- end}}
)

// Max{{.Type}}Number is the largest {{.Type}} code.
const Max{{.Type}}Number = {{.Max}}

// Number returns the raw code.
func (v {{.Type}}) Number() uint { return uint(v) }
{{range .Markers}}
func ({{$.Type}}) {{.}}() {}
{{end}}
// {{.Type}}FromNumber converts a raw code.  Codes that are not registered
// come back as a *fault.InvalidVariantError carrying raw.
func {{.Type}}FromNumber(raw uint) ({{.Type}}, error) {
	switch {
{{- range .Runs}}
	case {{cond .}}:
		return {{$.Type}}(raw), nil
{{- end}}
	}
	return 0, &fault.InvalidVariantError{Value: raw}
}

func (v {{.Type}}) String() string {
	switch v {
{{- range .Sorted}}
	case {{.Name}}:
		return "{{.Name}}"
{{- end}}
	}
	return fmt.Sprintf("{{.Type}}(%d)", uint(v))
}

// {{.SetName}} is the closed set of {{.Type}} codes.
var {{.SetName}} numspace.Set = {{lower .Type}}Set{}

type {{lower .Type}}Set struct{}

func ({{lower .Type}}Set) Max() uint { return Max{{.Type}}Number }

func ({{lower .Type}}Set) Contains(raw uint) bool {
	_, err := {{.Type}}FromNumber(raw)
	return err == nil
}

func ({{lower .Type}}Set) Codes() []uint {
	return []uint{ {{- codes .Sorted -}} }
}
`
