package insts

import "fmt"

// String renders the instruction in assembly-like form for trace output.
func (i *Instruction) String() string {
	switch i.Format {
	case FormatR:
		return fmt.Sprintf("%v x%d, x%d, x%d", i.Op, i.Rd, i.Rs1, i.Rs2)
	case FormatI:
		switch {
		case i.Op == OpECALL || i.Op == OpEBREAK || i.Op == OpFENCE:
			return i.Op.String()
		case i.IsLoad() || i.Op == OpJALR:
			return fmt.Sprintf("%v x%d, %d(x%d)", i.Op, i.Rd, i.Imm, i.Rs1)
		default:
			return fmt.Sprintf("%v x%d, x%d, %d", i.Op, i.Rd, i.Rs1, i.Imm)
		}
	case FormatS:
		return fmt.Sprintf("%v x%d, %d(x%d)", i.Op, i.Rs2, i.Imm, i.Rs1)
	case FormatB:
		return fmt.Sprintf("%v x%d, x%d, %d", i.Op, i.Rs1, i.Rs2, i.Imm)
	case FormatU:
		return fmt.Sprintf("%v x%d, %#x", i.Op, i.Rd, uint32(i.Imm)>>12)
	case FormatJ:
		return fmt.Sprintf("%v x%d, %d", i.Op, i.Rd, i.Imm)
	}
	return "unknown"
}
