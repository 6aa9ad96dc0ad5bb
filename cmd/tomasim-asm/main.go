// Command tomasim-asm assembles a tomasim source file into a raw
// little-endian word stream the simulator can load directly.
package main

import (
	"fmt"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"tomasim/asm"
)

func main() {
	os.Exit(run())
}

func run() int {
	optOutput := getopt.StringLong("output", 'o', "a.out", "Output file path")
	optHelp := getopt.BoolLong("help", 'h', "Show usage")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		return 0
	}

	args := getopt.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: tomasim-asm [-o output] <input.asm>")
		return 1
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "tomasim-asm: %v\n", err)
		return 1
	}

	words, err := asm.Assemble(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "tomasim-asm: %v\n", err)
		return 1
	}

	if err := os.WriteFile(*optOutput, asm.Serialize(words), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "tomasim-asm: %v\n", err)
		return 1
	}

	return 0
}
