package disasm

// ARM (A32) branch encoding. B, BL and BLX(imm) carry a signed 24-bit word
// offset in bits 0-23, relative to the instruction address plus 8.

const (
	// ThunkInsn is LDR PC, [PC, #-4]: load the word that follows the
	// instruction into PC, switching to THUMB when its bit 0 is set.
	ThunkInsn uint32 = 0xE51FF004

	opB    = 0xEA000000 // B, condition always
	pcBias = 8
)

// BranchInfo describes a decoded ARM branch instruction.
type BranchInfo struct {
	Target uint32 // absolute target address
	Link   bool   // BL or BLX
	Thumb  bool   // BLX(imm): target is THUMB code
	Cond   uint8  // condition field, 0xE = always
}

// DecodeBranch decodes B, BL or BLX(imm) at pc. Returns nil for anything else.
func DecodeBranch(raw uint32, pc uint32) *BranchInfo {
	cond := uint8(raw >> 28)
	switch {
	case cond == 0xF && raw&0x0E000000 == 0x0A000000:
		// BLX(imm): H bit adds a halfword
		off := BranchOffset(raw) | int32((raw>>24)&1)<<1
		return &BranchInfo{Target: pc + pcBias + uint32(off), Link: true, Thumb: true, Cond: cond}
	case raw&0x0E000000 == 0x0A000000:
		return &BranchInfo{
			Target: BranchTarget(raw, pc),
			Link:   raw&0x01000000 != 0,
			Cond:   cond,
		}
	}
	return nil
}

// BranchOffset returns the signed byte offset encoded in the low 24 bits.
func BranchOffset(instr uint32) int32 {
	return signExtend((instr&0x00FFFFFF)<<2, 26)
}

// BranchTarget returns the address a branch at pc jumps to.
func BranchTarget(instr uint32, pc uint32) uint32 {
	return pc + pcBias + uint32(BranchOffset(instr))
}

// AdjustBranch adds delta bytes to the branch offset and re-encodes it,
// keeping the condition and opcode byte. Bits that do not fit in 24 bits
// are dropped.
func AdjustBranch(instr uint32, delta uint32) uint32 {
	off := uint32(BranchOffset(instr)) + delta
	imm := uint32(int32(off)>>2) & 0x00FFFFFF
	return instr&0xFF000000 | imm
}

// EncodeB returns an unconditional B with the given word offset.
func EncodeB(rel uint32) uint32 {
	return opB | rel&0x00FFFFFF
}

// signExtend sign-extends a value from the given bit width to int32.
func signExtend(val uint32, bits int) int32 {
	sign := uint32(1) << (bits - 1)
	mask := sign - 1
	if val&sign != 0 {
		return int32(val | ^mask) // negative
	}
	return int32(val & mask)
}

// IsBranch returns true if raw is an ARM-mode B, BL or BLX(imm).
func IsBranch(raw uint32) bool {
	return DecodeBranch(raw, 0) != nil
}
