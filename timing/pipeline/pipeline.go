package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/r5sim/emu"
	"github.com/sarchlab/r5sim/insts"
)

// Statistics collects per-run pipeline counters.
type Statistics struct {
	// Cycles is the number of cycles simulated.
	Cycles uint64

	// Instructions is the number of instructions retired.
	Instructions uint64

	// Stalls is the number of cycles the front end was held.
	Stalls uint64

	// Flushes is the number of wrong-path instructions squashed.
	Flushes uint64
}

// CPI returns cycles per retired instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Pipeline is the cycle-level model of a classic 5-stage in-order RV32I
// core. Each Tick evaluates the stages in reverse order against the previous
// cycle's latch contents, then commits all latches at once, so every stage
// sees a consistent snapshot of the machine.
//
// The register file is write-through: a value written in Writeback is
// visible to a Decode read in the same cycle. Forwarding therefore only
// needs the EX/MEM and MEM/WB paths, and a load-use dependency costs exactly
// one stall cycle.
type Pipeline struct {
	regFile *emu.RegFile
	memory  *emu.Memory

	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage
	hazardUnit     *HazardUnit

	syscallHandler emu.SyscallHandler
	stdout         io.Writer

	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	pc        uint32
	fetchDone bool
	halted    bool
	exitCode  int32
	err       error

	maxCycles uint64
	stats     Statistics
}

// Option is a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithStdout sets the writer that receives write-syscall output.
func WithStdout(w io.Writer) Option {
	return func(p *Pipeline) {
		p.stdout = w
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler emu.SyscallHandler) Option {
	return func(p *Pipeline) {
		p.syscallHandler = handler
	}
}

// WithMaxCycles caps the number of cycles Run will simulate. A value of 0
// means no limit.
func WithMaxCycles(max uint64) Option {
	return func(p *Pipeline) {
		p.maxCycles = max
	}
}

// NewPipeline creates a pipeline over the given register file and memory.
// Execution starts at the register file's current PC.
func NewPipeline(
	regFile *emu.RegFile,
	memory *emu.Memory,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		regFile:        regFile,
		memory:         memory,
		fetchStage:     NewFetchStage(memory),
		decodeStage:    NewDecodeStage(regFile),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(memory),
		writebackStage: NewWritebackStage(regFile),
		hazardUnit:     NewHazardUnit(),
		pc:             regFile.PC,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.syscallHandler == nil {
		p.syscallHandler = emu.NewDefaultSyscallHandler(
			regFile, memory, p.stdout)
	}

	return p
}

// PC returns the fetch program counter.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// SetPC redirects the fetch program counter. Only meaningful before the
// first Tick.
func (p *Pipeline) SetPC(pc uint32) {
	p.pc = pc
	p.regFile.PC = pc
}

// Halted returns true once the simulation has finished or faulted.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// ExitCode returns the program's exit status. Only meaningful once Halted
// returns true and Err returns nil.
func (p *Pipeline) ExitCode() int32 {
	return p.exitCode
}

// Err returns the fatal simulation fault, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Stats returns a copy of the run counters.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// RegFile returns the architectural register file.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// Memory returns the simulated memory.
func (p *Pipeline) Memory() *emu.Memory {
	return p.memory
}

// IFID returns a copy of the IF/ID latch.
func (p *Pipeline) IFID() IFIDRegister {
	return p.ifid
}

// IDEX returns a copy of the ID/EX latch.
func (p *Pipeline) IDEX() IDEXRegister {
	return p.idex
}

// EXMEM returns a copy of the EX/MEM latch.
func (p *Pipeline) EXMEM() EXMEMRegister {
	return p.exmem
}

// MEMWB returns a copy of the MEM/WB latch.
func (p *Pipeline) MEMWB() MEMWBRegister {
	return p.memwb
}

// fail records a fatal fault stamped with the offending PC and cycle, and
// halts the pipeline.
func (p *Pipeline) fail(err error, pc uint32, cycle uint64) {
	var simErr *emu.SimError
	if errors.As(err, &simErr) {
		p.err = simErr.At(pc, cycle)
	} else {
		kind := emu.IllegalInstruction
		if errors.Is(err, insts.ErrUnsupportedOperation) {
			kind = emu.UnsupportedOperation
		}
		p.err = emu.NewFault(kind, err).At(pc, cycle)
	}
	p.halted = true
}

// Tick advances the pipeline by one cycle. It returns false once the
// pipeline has halted, whether by program exit, drain, or fault.
func (p *Pipeline) Tick() bool {
	if p.halted {
		return false
	}

	if p.maxCycles > 0 && p.stats.Cycles >= p.maxCycles {
		p.err = fmt.Errorf("cycle limit of %d reached", p.maxCycles)
		p.halted = true
		return false
	}

	p.stats.Cycles++
	cycle := p.stats.Cycles

	// Snapshot of the latches as left by the previous cycle. All stage
	// decisions this cycle are made against these values.
	ifid := p.ifid
	idex := p.idex
	exmem := p.exmem
	memwb := p.memwb

	// Writeback. Runs first so its register write is visible to this
	// cycle's Decode read.
	p.writebackStage.Writeback(&memwb)
	if memwb.Valid {
		p.stats.Instructions++
	}

	// Memory.
	nextMEMWB := MEMWBRegister{}
	if exmem.Valid {
		memResult, err := p.memoryStage.Access(&exmem)
		if err != nil {
			p.fail(err, exmem.PC, cycle)
			return false
		}
		nextMEMWB = MEMWBRegister{
			Valid:     true,
			PC:        exmem.PC,
			Inst:      exmem.Inst,
			ALUResult: exmem.ALUResult,
			MemData:   memResult.MemData,
			Rd:        exmem.Rd,
			RegWrite:  exmem.RegWrite,
			MemToReg:  exmem.MemToReg,
		}
	}

	// Execute.
	nextEXMEM := EXMEMRegister{}
	branchTaken := false
	branchTarget := uint32(0)
	systemStall := false

	if idex.Valid {
		if idex.IsSystem {
			// ECALL and EBREAK observe architectural state directly,
			// so they wait in Execute until every older instruction
			// has written back.
			if exmem.Valid {
				systemStall = true
			} else {
				var done bool
				nextEXMEM, done = p.executeSystem(&idex, cycle)
				if done {
					return false
				}
			}
		} else {
			forward := p.hazardUnit.DetectForwarding(&idex, &exmem, &memwb)
			rs1Value := p.hazardUnit.ForwardedValue(
				forward.ForwardRs1, idex.Rs1Value, &exmem, &memwb)
			rs2Value := p.hazardUnit.ForwardedValue(
				forward.ForwardRs2, idex.Rs2Value, &exmem, &memwb)

			execResult := p.executeStage.Execute(&idex, rs1Value, rs2Value)
			branchTaken = execResult.BranchTaken
			branchTarget = execResult.BranchTarget

			nextEXMEM = EXMEMRegister{
				Valid:      true,
				PC:         idex.PC,
				Inst:       idex.Inst,
				ALUResult:  execResult.ALUResult,
				StoreValue: execResult.StoreValue,
				Rd:         idex.Rd,
				MemRead:    idex.MemRead,
				MemWrite:   idex.MemWrite,
				RegWrite:   idex.RegWrite,
				MemToReg:   idex.MemToReg,
			}
		}
	}

	// Load-use hazard for the instruction about to decode. The check
	// looks one instruction ahead in IF/ID so the bubble lands in Execute
	// on the very next cycle.
	loadUse := false
	if !branchTaken && idex.Valid && idex.MemRead && ifid.Valid {
		if next := p.decodeStage.Peek(ifid.InstructionWord); next != nil {
			loadUse = p.hazardUnit.DetectLoadUseHazard(
				idex.Rd,
				next.Rs1, next.Rs2,
				next.ReadsRs1(), next.ReadsRs2(),
			)
		}
	}

	ctrl := p.hazardUnit.ComputeStalls(loadUse || systemStall, branchTaken)
	if ctrl.StallIF {
		p.stats.Stalls++
	}

	// Fetch.
	nextIFID := IFIDRegister{}
	nextPC := p.pc
	switch {
	case ctrl.FlushIF:
		// The slot being fetched this cycle is wrong-path.
		if !p.fetchDone {
			p.stats.Flushes++
		}
	case ctrl.StallIF:
		nextIFID = ifid
	case p.fetchDone:
		// Past the end of memory; the back end keeps draining.
	default:
		word, err := p.fetchStage.Fetch(p.pc)
		if err != nil {
			var simErr *emu.SimError
			if errors.As(err, &simErr) &&
				simErr.Kind == emu.OutOfBoundsAccess {
				// Running off the end of memory ends the program
				// once the pipeline drains.
				p.fetchDone = true
			} else {
				p.fail(err, p.pc, cycle)
				return false
			}
		} else {
			nextIFID = IFIDRegister{
				Valid:           true,
				PC:              p.pc,
				InstructionWord: word,
			}
			nextPC = p.pc + 4
		}
	}

	// Decode.
	nextIDEX := IDEXRegister{}
	switch {
	case ctrl.FlushID:
		if ifid.Valid {
			p.stats.Flushes++
		}
	case systemStall:
		// The serialized system instruction waits in ID/EX.
		nextIDEX = idex
	case ctrl.InsertBubbleEX:
		// Load-use stall: bubble into Execute, IF/ID holds.
	case ifid.Valid:
		decResult, err := p.decodeStage.Decode(ifid.InstructionWord)
		if err != nil {
			p.fail(err, ifid.PC, cycle)
			return false
		}
		nextIDEX = IDEXRegister{
			Valid:    true,
			PC:       ifid.PC,
			Inst:     decResult.Inst,
			Rs1Value: decResult.Rs1Value,
			Rs2Value: decResult.Rs2Value,
			Rd:       decResult.Inst.Rd,
			Rs1:      decResult.Inst.Rs1,
			Rs2:      decResult.Inst.Rs2,
			MemRead:  decResult.MemRead,
			MemWrite: decResult.MemWrite,
			RegWrite: decResult.RegWrite,
			MemToReg: decResult.MemToReg,
			IsBranch: decResult.IsBranch,
			IsSystem: decResult.IsSystem,
		}
	}

	if branchTaken {
		nextPC = branchTarget
	}

	// Commit the cycle.
	p.ifid = nextIFID
	p.idex = nextIDEX
	p.exmem = nextEXMEM
	p.memwb = nextMEMWB
	p.pc = nextPC
	p.regFile.PC = nextPC

	// Once fetch has run off the end of memory and the pipeline is empty,
	// the program is complete.
	if p.fetchDone && !p.ifid.Valid && !p.idex.Valid &&
		!p.exmem.Valid && !p.memwb.Valid {
		p.halted = true
		return false
	}

	return true
}

// executeSystem handles an ECALL or EBREAK whose older instructions have all
// written back. It returns the EX/MEM latch value the instruction produces
// and whether the pipeline halted.
func (p *Pipeline) executeSystem(
	idex *IDEXRegister,
	cycle uint64,
) (EXMEMRegister, bool) {
	if idex.Inst.Op == insts.OpEBREAK {
		p.stats.Instructions++
		p.halted = true
		p.exitCode = 0
		return EXMEMRegister{}, true
	}

	result := p.syscallHandler.Handle()
	if result.Err != nil {
		p.fail(result.Err, idex.PC, cycle)
		return EXMEMRegister{}, true
	}
	if result.Exited {
		p.stats.Instructions++
		p.halted = true
		p.exitCode = result.ExitCode
		return EXMEMRegister{}, true
	}
	if result.HasRet {
		// The return value flows to a0 through the remaining stages
		// like any other register write, so younger instructions pick
		// it up via the regular forwarding paths.
		return EXMEMRegister{
			Valid:     true,
			PC:        idex.PC,
			Inst:      idex.Inst,
			ALUResult: result.Ret,
			Rd:        emu.RegA0,
			RegWrite:  true,
		}, false
	}

	p.stats.Instructions++
	return EXMEMRegister{}, false
}

// Run simulates cycles until the program exits, a fault occurs, or the
// cycle cap is reached.
func (p *Pipeline) Run() (int32, error) {
	for p.Tick() {
	}

	if p.err != nil {
		return 0, p.err
	}

	return p.exitCode, nil
}

// RunCycles simulates at most n cycles. It returns true if the pipeline is
// still running.
func (p *Pipeline) RunCycles(n uint64) bool {
	for i := uint64(0); i < n; i++ {
		if !p.Tick() {
			return false
		}
	}
	return !p.halted
}
