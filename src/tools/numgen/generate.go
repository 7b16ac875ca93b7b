package numgen

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
)

// UserOptions come from the command line.
type UserOptions struct {
	Out           string
	Pkg           string
	InputFilename string
}

type templateGroup struct {
	preamble *template.Template
	space    *template.Template
}

var funcs = template.FuncMap{
	"comment": comment,
	"cond":    cond,
	"lower":   lowerFirst,
	"codes":   codes,
}

func createOutputTemplates() *templateGroup {
	preambleTemplate := template.New("preamble").Funcs(funcs)
	preambleTemplate = template.Must(preambleTemplate.Parse(preambleTemplateText))

	spaceTemplate := template.New("space").Funcs(funcs)
	spaceTemplate = template.Must(spaceTemplate.Parse(spaceTemplateText))

	return &templateGroup{preamble: preambleTemplate, space: spaceTemplate}
}

type spaceParams struct {
	*SpaceDef
	Package string
	Source  string
	Sorted  []MemberDef
	Runs    []run
	Max     uint
	Markers []string
}

// Generate writes the Go source for def into w.  The output is run
// through goimports so it is formatted the way gofmt would leave it.
func Generate(def *SpaceDef, opts *UserOptions, w io.Writer) error {
	sorted, runs, err := def.validate()
	if err != nil {
		return err
	}
	markers, _ := def.Kind.markers()
	p := spaceParams{
		SpaceDef: def,
		Package:  opts.Pkg,
		Source:   opts.InputFilename,
		Sorted:   sorted,
		Runs:     runs,
		Max:      sorted[len(sorted)-1].Code,
		Markers:  markers,
	}
	if p.SetName == "" {
		p.SetName = def.Type + "s"
	}

	group := createOutputTemplates()
	var output bytes.Buffer
	if err := group.preamble.Execute(&output, p); err != nil {
		return fmt.Errorf("failed to execute the preamble template: %v", err)
	}
	if err := group.space.Execute(&output, p); err != nil {
		return fmt.Errorf("failed to execute the space template: %v", err)
	}
	name := opts.Out
	if name == "" {
		name = "generated.go"
	}
	formatted, err := imports.Process(name, output.Bytes(), nil)
	if err != nil {
		return fmt.Errorf("generated code does not parse: %v", err)
	}
	_, err = w.Write(formatted)
	return err
}

// comment turns free text into // lines at the given indent.
func comment(indent string, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(indent + "// " + strings.TrimSpace(line) + "\n")
	}
	return b.String()
}

func cond(r run) string {
	switch {
	case r.Lo == r.Hi:
		return fmt.Sprintf("raw == %d", r.Lo)
	case r.Lo == 0:
		return fmt.Sprintf("raw <= %d", r.Hi)
	}
	return fmt.Sprintf("%d <= raw && raw <= %d", r.Lo, r.Hi)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func codes(ms []MemberDef) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = fmt.Sprint(m.Code)
	}
	return strings.Join(parts, ", ")
}
