package asm

import "tomasim/insts"

// argShape describes how many comma-separated operands a mnemonic expects
// and how pass 2 should interpret them.
type argShape uint8

const (
	shapeRRR   argShape = iota // "op rd, rs1, rs2"        (R-type)
	shapeRRImm                 // "op rd, rs1, imm"        (addi, andi, lw, sw)
	shapeRLbl                  // "op rs, label"           (beqz)
	shapeLbl                   // "op label"               (j)
	shapeNone                  // "op"                     (halt, noop)
)

// mnemonicInfo is everything pass 2 needs to encode one mnemonic.
type mnemonicInfo struct {
	op    insts.Op
	shape argShape
}

// mnemonics maps a lowercased mnemonic to its encoding info. Mnemonic lookup
// is the sole way pass 1 tells a label from an opcode: any first token not
// present here is treated as a label.
var mnemonics = map[string]mnemonicInfo{
	"add":  {insts.OpAdd, shapeRRR},
	"sub":  {insts.OpSub, shapeRRR},
	"and":  {insts.OpAnd, shapeRRR},
	"addi": {insts.OpAddi, shapeRRImm},
	"andi": {insts.OpAndi, shapeRRImm},
	"lw":   {insts.OpLw, shapeRRImm},
	"sw":   {insts.OpSw, shapeRRImm},
	"beqz": {insts.OpBeqz, shapeRLbl},
	"j":    {insts.OpJ, shapeLbl},
	"halt": {insts.OpHalt, shapeNone},
	"noop": {insts.OpNoop, shapeNone},
}

// operandCount returns how many comma-separated operands shape expects.
func (s argShape) operandCount() int {
	switch s {
	case shapeRRR:
		return 3
	case shapeRRImm:
		return 3
	case shapeRLbl:
		return 2
	case shapeLbl:
		return 1
	case shapeNone:
		return 0
	default:
		return -1
	}
}
