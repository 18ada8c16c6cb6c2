package pipeline

// ForwardSource indicates where a forwarded operand value should come from.
type ForwardSource int

const (
	// ForwardNone means no forwarding needed - use the register file value.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means forward from the EX/MEM pipeline latch.
	ForwardFromEXMEM
	// ForwardFromMEMWB means forward from the MEM/WB pipeline latch.
	ForwardFromMEMWB
)

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	// ForwardRs1 specifies the forwarding source for the rs1 operand.
	ForwardRs1 ForwardSource
	// ForwardRs2 specifies the forwarding source for the rs2 operand.
	// For stores, rs2 is the store data.
	ForwardRs2 ForwardSource
}

// StallResult contains stall and flush control signals for one cycle.
type StallResult struct {
	// StallIF holds the current IF/ID latch and suppresses the fetch.
	StallIF bool
	// StallID suppresses decode so the held instruction is not re-issued.
	StallID bool
	// InsertBubbleEX replaces the ID/EX latch with a bubble.
	InsertBubbleEX bool
	// FlushIF discards the instruction being fetched this cycle.
	FlushIF bool
	// FlushID discards the instruction in the IF/ID latch.
	FlushID bool
}

// HazardUnit makes the per-cycle stall, forward, and flush decisions by
// comparing destination registers of instructions in the later stages
// against source registers of younger instructions. It holds no state; every
// decision is recomputed from the current latch contents.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectForwarding determines forwarding for the instruction entering
// Execute. An operand matching the destination of the instruction in EX/MEM
// takes the EX/MEM value; otherwise a match in MEM/WB takes that value. The
// more recent producer always wins. x0 never forwards.
func (h *HazardUnit) DetectForwarding(
	idex *IDEXRegister,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardingResult {
	result := ForwardingResult{}

	if !idex.Valid || idex.Inst == nil {
		return result
	}

	if idex.Inst.ReadsRs1() {
		result.ForwardRs1 = h.detectForwardForReg(idex.Rs1, exmem, memwb)
	}
	if idex.Inst.ReadsRs2() {
		result.ForwardRs2 = h.detectForwardForReg(idex.Rs2, exmem, memwb)
	}

	return result
}

// detectForwardForReg checks whether a specific register needs forwarding.
func (h *HazardUnit) detectForwardForReg(
	reg uint8,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardSource {
	// x0 always reads as 0; there is nothing to forward.
	if reg == 0 {
		return ForwardNone
	}

	// Priority: EX/MEM over MEM/WB (the more recent value). A load in
	// EX/MEM never matches here: the load-use stall guarantees a
	// dependent instruction is at least two slots behind a load, so the
	// value is forwarded from MEM/WB once it exists.
	if exmem.Valid && exmem.RegWrite && exmem.Rd == reg {
		return ForwardFromEXMEM
	}

	if memwb.Valid && memwb.RegWrite && memwb.Rd == reg {
		return ForwardFromMEMWB
	}

	return ForwardNone
}

// DetectLoadUseHazard reports whether the load in ID/EX produces a register
// that the next instruction (about to decode) needs as a source. The loaded
// value only exists after the Memory stage, too late to forward into the
// consumer's Execute, so the pipeline must stall Decode for one cycle.
func (h *HazardUnit) DetectLoadUseHazard(
	loadRd uint8,
	nextRs1, nextRs2 uint8,
	usesRs1, usesRs2 bool,
) bool {
	if loadRd == 0 {
		return false
	}

	if usesRs1 && loadRd == nextRs1 {
		return true
	}
	if usesRs2 && loadRd == nextRs2 {
		return true
	}

	return false
}

// ComputeStalls converts hazard conditions into stall/flush signals.
func (h *HazardUnit) ComputeStalls(stall bool, branchTaken bool) StallResult {
	result := StallResult{}

	// Stall: hold IF and ID, insert a bubble into EX.
	if stall {
		result.StallIF = true
		result.StallID = true
		result.InsertBubbleEX = true
	}

	// Taken branch or jump: kill the wrong-path instructions in IF and ID.
	if branchTaken {
		result.FlushIF = true
		result.FlushID = true
	}

	return result
}

// ForwardedValue returns the operand value selected by a forwarding decision.
func (h *HazardUnit) ForwardedValue(
	forward ForwardSource,
	regFileValue uint32,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) uint32 {
	switch forward {
	case ForwardFromEXMEM:
		return exmem.ALUResult
	case ForwardFromMEMWB:
		if memwb.MemToReg {
			return memwb.MemData
		}
		return memwb.ALUResult
	default:
		return regFileValue
	}
}
