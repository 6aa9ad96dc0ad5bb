package insts

// signExtend sign-extends the low bits-wide field of v to int32.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// Decode decodes a raw 32-bit instruction word.
func Decode(word uint32) Instruction {
	opcode := (word >> 26) & 0x3F

	switch opcode {
	case opcodeRType:
		return decodeR(word)
	case opcodeHalt:
		return Instruction{Word: word, Op: OpHalt, Format: FormatJ}
	case opcodeJ:
		return Instruction{Word: word, Op: OpJ, Format: FormatJ, Imm: signExtend(word&0x3FFFFFF, 26)}
	case opcodeNoop:
		return Instruction{Word: word, Op: OpNoop, Format: FormatJ}
	case opcodeBeqz:
		return decodeI(word, OpBeqz)
	case opcodeAddi:
		return decodeI(word, OpAddi)
	case opcodeAndi:
		return decodeI(word, OpAndi)
	case opcodeLw:
		return decodeI(word, OpLw)
	case opcodeSw:
		return decodeI(word, OpSw)
	default:
		return Instruction{Word: word, Op: OpUnknown, Format: FormatUnknown}
	}
}

// decodeR decodes an R-format word (opcode 0); the operation is selected by func.
func decodeR(word uint32) Instruction {
	rs1 := uint8((word >> 21) & 0x1F)
	rs2 := uint8((word >> 16) & 0x1F)
	rd := uint8((word >> 11) & 0x1F)
	fn := word & 0x7FF

	var op Op
	switch fn {
	case funcAdd:
		op = OpAdd
	case funcSub:
		op = OpSub
	case funcAnd:
		op = OpAnd
	default:
		op = OpUnknown
	}

	return Instruction{
		Word:      word,
		Op:        op,
		Format:    FormatR,
		Rs1:       rs1,
		Rs2:       rs2,
		Rd:        rd,
		WritesReg: writesRegister(op),
	}
}

// decodeI decodes an I-format word for the given operation.
func decodeI(word uint32, op Op) Instruction {
	rs1 := uint8((word >> 21) & 0x1F)
	rd := uint8((word >> 16) & 0x1F)
	imm := signExtend(word&0xFFFF, 16)

	return Instruction{
		Word:      word,
		Op:        op,
		Format:    FormatI,
		Rs1:       rs1,
		Rd:        rd,
		Imm:       imm,
		WritesReg: writesRegister(op),
	}
}
