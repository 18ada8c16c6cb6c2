// Package main provides the entry point for R5Sim.
// R5Sim is a cycle-level RV32I 5-stage pipeline simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/r5sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("R5Sim - RV32I 5-Stage Pipeline Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: r5sim [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -emu            Run in functional emulation mode")
	fmt.Println("  -config         Path to configuration JSON file")
	fmt.Println("  -mem            Memory size in bytes")
	fmt.Println("  -max-cycles     Cycle limit, 0 for none")
	fmt.Println("  -lenient-align  Allow misaligned data accesses")
	fmt.Println("  -trace          Print per-cycle pipeline state")
	fmt.Println("  -v              Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/r5sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/r5sim' instead.")
	}
}
