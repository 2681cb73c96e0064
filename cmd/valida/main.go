// Command valida loads a program, runs it to completion on stdin-fed
// advice, and writes the output-chip buffer to stdout (spec.md §6), in the
// teacher's package-level flag-var / parseFlags idiom (see
// _examples/n-ulricksen-nes/main.go).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"

	"valida/advice"
	"valida/debugger"
	"valida/isa"
	"valida/machine"
)

var (
	flagStackHeight uint
	flagInitialFP   uint
	flagDebug       bool
	flagTrace       bool
)

func parseFlags() {
	flag.UintVar(&flagStackHeight, "stack-height", uint(machine.DefaultRunConfig().StackHeight), "bytes of address space available past the initial frame pointer")
	flag.UintVar(&flagInitialFP, "fp", uint(machine.DefaultInitialFP), "initial frame pointer")
	flag.BoolVar(&flagDebug, "debug", false, "step through execution in an interactive TUI")
	flag.BoolVar(&flagTrace, "trace", false, "print the final CPU state to stderr after the run")
	flag.Parse()
}

func main() {
	parseFlags()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: valida <program> [--stack-height N] [--fp N] [--debug] [--trace]")
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "valida: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	prog, err := isa.LoadProgram(f)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	cfg := machine.RunConfig{
		InitialFP:   uint32(flagInitialFP),
		StackHeight: uint32(flagStackHeight),
		Trace:       flagTrace,
		MaxCycles:   machine.DefaultMaxCycles,
	}
	m := machine.NewDefault(prog, cfg, advice.FromReader(os.Stdin))

	if flagDebug {
		if err := debugger.Run(m.CPU(), m.Memory()); err != nil {
			return err
		}
	} else if err := m.Run(); err != nil {
		return err
	}

	if cfg.Trace {
		fmt.Fprintf(os.Stderr, "final state: pc=%d fp=%d clk=%d\n", m.CPU().PC(), m.CPU().FP(), m.CPU().Clock())
		spew.Fdump(os.Stderr, m.CPU())
	}

	for _, w := range m.Output().Buffer() {
		for i := 0; i < 4; i++ {
			if _, err := os.Stdout.Write([]byte{w.Byte(i)}); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
	}
	return nil
}
