package asm

import (
	"fmt"

	"tomasim/insts"
)

// Disassemble inverts the encoder for every instruction Assemble can
// produce, returning the mnemonic and its operands rendered the way source
// would spell them (numeric immediates, not label names — the disassembler
// has no label table to recover symbols from). Used by round-trip tests,
// not by the simulator's hot path.
func Disassemble(word uint32) (mnemonic string, operands []string, err error) {
	inst := insts.Decode(word)

	switch inst.Op {
	case insts.OpAdd, insts.OpSub, insts.OpAnd:
		return inst.Op.String(), []string{reg(inst.Rd), reg(inst.Rs1), reg(inst.Rs2)}, nil

	case insts.OpAddi, insts.OpAndi, insts.OpLw, insts.OpSw:
		return inst.Op.String(), []string{reg(inst.Rd), reg(inst.Rs1), imm(inst.Imm)}, nil

	case insts.OpBeqz:
		return inst.Op.String(), []string{reg(inst.Rs1), imm(inst.Imm)}, nil

	case insts.OpJ:
		return inst.Op.String(), []string{imm(inst.Imm)}, nil

	case insts.OpHalt, insts.OpNoop:
		return inst.Op.String(), nil, nil

	default:
		return "", nil, fmt.Errorf("disassemble: unknown opcode in word 0x%08X", word)
	}
}

func reg(n uint8) string {
	return fmt.Sprintf("r%d", n)
}

func imm(v int32) string {
	return fmt.Sprintf("%d", v)
}
