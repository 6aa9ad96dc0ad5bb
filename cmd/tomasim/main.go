// Command tomasim is a headless driver for the out-of-order simulator: the
// in-scope stand-in for a GUI viewer, exercising the same Machine API a
// graphical front end would drive per rendered frame.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"tomasim/asm"
	"tomasim/internal/logging"
	"tomasim/machine"
)

func main() {
	os.Exit(run())
}

func run() int {
	optVerbose := getopt.BoolLong("v", 'v', "Print a snapshot every cycle")
	optCycles := getopt.IntLong("cycles", 'c', 0, "Stop after N cycles (0 = run to completion)")
	optLogFile := getopt.StringLong("log", 'l', "", "Mirror log output to this file")
	optHelp := getopt.BoolLong("help", 'h', "Show usage")
	// -timing is accepted for parity with the viewer's invocation contract;
	// this driver always runs the timing model, there being no separate
	// functional-only mode.
	getopt.BoolLong("timing", 't', "Run with timing (always on)")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		return 0
	}

	args := getopt.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: tomasim [-timing] [-v] [-cycles N] <program.asm|program.bin>")
		return 1
	}

	var logFile *os.File
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tomasim: %v\n", err)
			return 1
		}
		logFile = f
		defer logFile.Close()
	}
	logger := slog.New(logging.NewHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))

	words, err := loadProgram(args[0])
	if err != nil {
		logger.Error("load failed", "path", args[0], "error", err)
		return 1
	}

	m := machine.New()
	for i, w := range words {
		if err := m.LoadInstruction(machine.BasePC+uint32(i), w); err != nil {
			logger.Error("load failed", "path", args[0], "error", err)
			return 1
		}
	}
	if err := m.SetMemorySize(machine.BasePC + uint32(len(words))); err != nil {
		logger.Error("load failed", "path", args[0], "error", err)
		return 1
	}

	logger.Info("program loaded", "path", args[0], "words", len(words))

	halted := false
	for !halted {
		halted = m.Step()

		if *optVerbose {
			printSnapshot(m.Snapshot())
		}

		if *optCycles > 0 && m.Cycles >= uint64(*optCycles) {
			break
		}
	}

	if err := m.Err(); err != nil {
		logger.Error("fatal", "error", err)
		return 1
	}

	if halted {
		logger.Info("halted", "cycles", m.Cycles)
	} else {
		logger.Info("cycle budget exhausted", "cycles", m.Cycles)
	}

	if !*optVerbose {
		printSnapshot(m.Snapshot())
	}

	return 0
}

// loadProgram assembles path if it has a .asm extension, or else treats it
// as a raw little-endian word stream.
func loadProgram(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, ".asm") {
		return asm.Assemble(string(data))
	}

	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: truncated word stream (%d bytes)", path, len(data))
	}
	return asm.Deserialize(data), nil
}

// printSnapshot renders a compact, single-block view of machine state,
// enough to follow a run cycle by cycle without a GUI.
func printSnapshot(s machine.Snapshot) {
	fmt.Printf("cycle=%d pc=%d halted=%t\n", s.Cycles, s.PC, s.Halted)

	fmt.Print("  regs:")
	for i, v := range s.Registers {
		if v != 0 {
			fmt.Printf(" r%d=%d", i, v)
		}
	}
	fmt.Println()

	if len(s.ROB) > 0 {
		fmt.Print("  rob:")
		for _, e := range s.ROB {
			fmt.Printf(" [%s %s]", e.Instr.Op, e.Status)
		}
		fmt.Println()
	}
}
