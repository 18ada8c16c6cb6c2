// Package main provides the entry point for R5Sim.
// R5Sim is a cycle-level RV32I 5-stage pipeline simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/r5sim/config"
	"github.com/sarchlab/r5sim/emu"
	"github.com/sarchlab/r5sim/loader"
	"github.com/sarchlab/r5sim/timing/core"
	"github.com/sarchlab/r5sim/timing/pipeline"
)

var (
	emuMode      = flag.Bool("emu", false, "Run in functional emulation mode (no pipeline timing)")
	configPath   = flag.String("config", "", "Path to configuration JSON file")
	memSize      = flag.Uint("mem", 0, "Memory size in bytes (overrides config)")
	maxCycles    = flag.Uint64("max-cycles", 0, "Cycle limit, 0 for none (overrides config)")
	lenientAlign = flag.Bool("lenient-align", false, "Allow misaligned data accesses")
	trace        = flag.Bool("trace", false, "Print per-cycle pipeline state")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: r5sim [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := loadConfig()

	programPath := flag.Arg(0)
	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	if *emuMode {
		os.Exit(runEmulation(cfg, prog, programPath))
	}
	os.Exit(runTiming(cfg, prog, programPath))
}

// loadConfig merges the config file, defaults, and flag overrides.
func loadConfig() *config.Config {
	cfg := config.DefaultConfig()

	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	if *memSize != 0 {
		cfg.MemSize = uint32(*memSize)
	}
	if *maxCycles != 0 {
		cfg.MaxCycles = *maxCycles
	}
	if *lenientAlign {
		cfg.StrictAlign = false
	}
	if *trace {
		cfg.Trace = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

// buildMachine creates the memory and register file and loads the program.
func buildMachine(
	cfg *config.Config,
	prog *loader.Program,
) (*emu.RegFile, *emu.Memory) {
	var opts []emu.MemoryOption
	if !cfg.StrictAlign {
		opts = append(opts, emu.WithLenientAlignment())
	}
	memory := emu.NewMemory(cfg.MemSize, opts...)

	for _, seg := range prog.Segments {
		if err := memory.LoadSegment(seg.VirtAddr, seg.Data); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading segment at 0x%x: %v\n",
				seg.VirtAddr, err)
			os.Exit(1)
		}
		// BSS (memsize > filesize) needs no explicit zero-fill; memory
		// starts zeroed.
	}

	regFile := &emu.RegFile{}
	regFile.WriteReg(emu.RegSP, prog.StackPointer(cfg.MemSize))
	regFile.PC = prog.EntryPoint

	return regFile, memory
}

// runEmulation runs the program in functional emulation mode.
func runEmulation(
	cfg *config.Config,
	prog *loader.Program,
	programPath string,
) int {
	regFile, memory := buildMachine(cfg, prog)

	emulator := emu.NewEmulator(regFile, memory,
		emu.WithStdout(os.Stdout),
	)

	exitCode, err := emulator.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation fault: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Exit code: %d\n", exitCode)
		fmt.Printf("Instructions executed: %d\n", emulator.InstructionCount())
	}

	return int(exitCode)
}

// runTiming runs the program on the cycle-level pipeline, driven by the
// event engine.
func runTiming(
	cfg *config.Config,
	prog *loader.Program,
	programPath string,
) int {
	regFile, memory := buildMachine(cfg, prog)

	pipe := pipeline.NewPipeline(regFile, memory,
		pipeline.WithStdout(os.Stdout),
		pipeline.WithMaxCycles(cfg.MaxCycles),
	)

	if cfg.Trace {
		// The trace loop steps the pipeline directly so every cycle can
		// be printed.
		return runTraced(pipe, programPath)
	}

	engine := sim.NewSerialEngine()
	c := core.NewCore("Core", engine, 1*sim.GHz, pipe)
	c.Start()

	if err := engine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Simulation error: %v\n", err)
		os.Exit(1)
	}

	if err := c.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Simulation fault: %v\n", err)
		os.Exit(1)
	}

	reportStats(c.Stats(), c.ExitCode(), programPath)
	return int(c.ExitCode())
}

// runTraced steps the pipeline one cycle at a time, printing latch state.
func runTraced(pipe *pipeline.Pipeline, programPath string) int {
	for pipe.Tick() {
		printTraceLine(pipe)
	}
	printTraceLine(pipe)

	if err := pipe.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Simulation fault: %v\n", err)
		os.Exit(1)
	}

	reportStats(pipe.Stats(), pipe.ExitCode(), programPath)
	return int(pipe.ExitCode())
}

// printTraceLine prints one cycle of pipeline state: the fetch PC and the
// instruction resident in each stage latch.
func printTraceLine(pipe *pipeline.Pipeline) {
	stats := pipe.Stats()
	fmt.Printf("cycle %6d  pc=0x%08X  ifid=%-24s idex=%-24s exmem=%-24s memwb=%s\n",
		stats.Cycles,
		pipe.PC(),
		ifidString(pipe.IFID()),
		latchString(pipe.IDEX().Valid, pipe.IDEX().Inst, pipe.IDEX().PC),
		latchString(pipe.EXMEM().Valid, pipe.EXMEM().Inst, pipe.EXMEM().PC),
		latchString(pipe.MEMWB().Valid, pipe.MEMWB().Inst, pipe.MEMWB().PC),
	)
}

func ifidString(r pipeline.IFIDRegister) string {
	if !r.Valid {
		return "-"
	}
	return fmt.Sprintf("[%08X @%X]", r.InstructionWord, r.PC)
}

func latchString(valid bool, inst fmt.Stringer, pc uint32) string {
	if !valid {
		return "-"
	}
	return fmt.Sprintf("[%s @%X]", inst, pc)
}

// reportStats prints the end-of-run statistics report.
func reportStats(stats pipeline.Statistics, exitCode int32, programPath string) {
	if !*verbose {
		return
	}

	fmt.Printf("\n")
	fmt.Printf("Program: %s\n", programPath)
	fmt.Printf("Exit code: %d\n", exitCode)
	fmt.Printf("Total Instructions: %d\n", stats.Instructions)
	fmt.Printf("Total Cycles: %d\n", stats.Cycles)
	fmt.Printf("CPI: %.2f\n", stats.CPI())
	fmt.Printf("\n")
	fmt.Printf("Pipeline Events:\n")
	fmt.Printf("  Stalls:  %d\n", stats.Stalls)
	fmt.Printf("  Flushes: %d\n", stats.Flushes)
}
