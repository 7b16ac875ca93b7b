package main

import (
	"flag"
	"io"
	"log"
	"os"

	"riscvrt/src/tools/numgen"
)

var outfile = flag.String("o", "", "output filename (default stdout)")
var pkg = flag.String("p", "main", "package to emit generated code into")

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: numgen -p <pkg> -o <outputfile> <declaration file>")
	}
	fp, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer fp.Close()
	opts := &numgen.UserOptions{
		Out:           *outfile,
		Pkg:           *pkg,
		InputFilename: flag.Arg(0),
	}
	name, def, err := numgen.ParseDecl(opts.InputFilename, fp)
	if err != nil {
		log.Fatalf("unable to read declaration: %v", err)
	}
	log.Printf("creating number space %s from declaration of '%s'", def.Type, name)

	var out io.Writer = os.Stdout
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			log.Fatalf("error creating output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	if err := numgen.Generate(def, opts, out); err != nil {
		log.Fatalf("unable to generate %s: %v", def.Type, err)
	}
}
