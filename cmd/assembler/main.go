// Command assembler translates the line-oriented text grammar of spec.md
// §6 into the 24-byte-per-instruction wire format isa.Program.Encode
// produces, following the teacher's package-level flag-var / parseFlags
// idiom (see _examples/n-ulricksen-nes/main.go).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"valida/isa"
)

var (
	flagInput  string
	flagOutput string
)

func parseFlags() {
	flag.StringVar(&flagInput, "i", "", "input assembly file (default stdin)")
	flag.StringVar(&flagOutput, "o", "", "output binary file (default stdout)")
	flag.Parse()
}

func main() {
	parseFlags()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "assembler: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	in, err := openInput(flagInput)
	if err != nil {
		return err
	}
	defer in.Close()

	src, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	prog, err := isa.Assemble(string(src))
	if err != nil {
		return err
	}

	out, err := openOutput(flagOutput)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(prog.Encode()); err != nil {
		return fmt.Errorf("writing program: %w", err)
	}
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
