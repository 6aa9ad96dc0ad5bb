// Package asm implements the two-pass text assembler for the simulator's
// instruction set, and its inverse, a disassembler used by round-trip tests.
package asm

import (
	"strconv"
	"strings"

	"tomasim/insts"
)

// statement is one (op, args) tuple accumulated by pass 1, not yet resolved
// against the label table.
type statement struct {
	line int // 1-indexed source line, for error reporting
	op   string
	args []string
}

// Assemble runs the two-pass assembler over source and returns the encoded
// instruction stream. Pass 1 scans every line, recording labels and
// deferring label resolution; pass 2 emits one 32-bit word per instruction.
func Assemble(source string) ([]uint32, error) {
	statements, labels, err := pass1(source)
	if err != nil {
		return nil, err
	}
	return pass2(statements, labels)
}

// pass1 tokenizes every non-blank line, resolving label declarations (but
// not label references) and accumulating (op, args) statements.
func pass1(source string) ([]statement, map[string]int, error) {
	labels := make(map[string]int)
	statements := make([]statement, 0)

	for lineNo, raw := range strings.Split(source, "\n") {
		lineNo++ // 1-indexed

		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)

		op := strings.ToLower(tokens[0])
		if _, known := mnemonics[op]; !known {
			// Not a mnemonic: the first token is a label declaration,
			// written with a trailing ':' that references omit.
			label := strings.TrimSuffix(tokens[0], ":")
			if _, dup := labels[label]; dup {
				return nil, nil, errAt(lineNo, "label %q redefined", label)
			}
			labels[label] = len(statements)

			tokens = tokens[1:]
			if len(tokens) == 0 {
				return nil, nil, errAt(lineNo, "label %q has no instruction", label)
			}
			op = strings.ToLower(tokens[0])
		}

		if _, known := mnemonics[op]; !known {
			return nil, nil, errAt(lineNo, "unknown mnemonic %q", op)
		}

		args := joinOperands(tokens[1:])
		statements = append(statements, statement{line: lineNo, op: op, args: args})
	}

	return statements, labels, nil
}

// stripComment removes everything from the first ';' onward.
func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

// joinOperands concatenates whitespace-split operand tokens (which may carry
// trailing commas, e.g. ["r1,", "r0,", "5"]), strips remaining spaces, and
// splits on commas to recover the individual operands.
func joinOperands(tokens []string) []string {
	joined := strings.Join(tokens, "")
	joined = strings.ReplaceAll(joined, " ", "")
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

// pass2 resolves labels and emits one word per statement.
func pass2(statements []statement, labels map[string]int) ([]uint32, error) {
	words := make([]uint32, len(statements))

	for idx, st := range statements {
		info := mnemonics[st.op]

		if got := len(st.args); got != info.shape.operandCount() {
			return nil, errAt(st.line, "%s expects %d operand(s), got %d", st.op, info.shape.operandCount(), got)
		}

		word, err := emit(st, idx, info, labels)
		if err != nil {
			return nil, err
		}
		words[idx] = word
	}

	return words, nil
}

// emit encodes a single resolved statement into its instruction word.
func emit(st statement, index int, info mnemonicInfo, labels map[string]int) (uint32, error) {
	switch info.shape {
	case shapeRRR:
		rd, err := parseReg(st, st.args[0])
		if err != nil {
			return 0, err
		}
		rs1, err := parseReg(st, st.args[1])
		if err != nil {
			return 0, err
		}
		rs2, err := parseReg(st, st.args[2])
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(rs1, rs2, rd, insts.FuncCode(info.op)), nil

	case shapeRRImm:
		rd, err := parseReg(st, st.args[0])
		if err != nil {
			return 0, err
		}
		rs1, err := parseReg(st, st.args[1])
		if err != nil {
			return 0, err
		}
		imm, err := parseImm(st, st.args[2], 16)
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(insts.Opcode(info.op), rs1, rd, imm), nil

	case shapeRLbl:
		rs1, err := parseReg(st, st.args[0])
		if err != nil {
			return 0, err
		}
		imm, err := resolveLabel(st, st.args[1], index, labels, 16)
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(insts.Opcode(info.op), rs1, insts.RegZero, imm), nil

	case shapeLbl:
		imm, err := resolveLabel(st, st.args[0], index, labels, 26)
		if err != nil {
			return 0, err
		}
		return insts.EncodeJ(insts.Opcode(info.op), imm), nil

	case shapeNone:
		return insts.EncodeJ(insts.Opcode(info.op), 0), nil

	default:
		return 0, errAt(st.line, "internal: unhandled shape for %s", st.op)
	}
}

// parseReg parses a register operand of the form "r<N>", 0 <= N <= 31.
func parseReg(st statement, tok string) (uint8, error) {
	if len(tok) < 2 || (tok[0] != 'r' && tok[0] != 'R') {
		return 0, errAt(st.line, "invalid register operand %q", tok)
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil || n < 0 || n >= insts.NumRegisters {
		return 0, errAt(st.line, "invalid register operand %q", tok)
	}
	return uint8(n), nil
}

// parseImm parses a literal immediate, checking it fits in a signed field
// of the given bit width.
func parseImm(st statement, tok string, bits int) (int32, error) {
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, errAt(st.line, "invalid immediate %q", tok)
	}
	if !fitsSigned(n, bits) {
		return 0, errAt(st.line, "immediate %d out of range for %d-bit field", n, bits)
	}
	return int32(n), nil
}

// resolveLabel looks up label and computes its PC-relative offset from the
// instruction at index, checking the result fits the given field width.
func resolveLabel(st statement, label string, index int, labels map[string]int, bits int) (int32, error) {
	target, ok := labels[label]
	if !ok {
		return 0, errAt(st.line, "undefined label %q", label)
	}
	offset := int64(target - index - 1)
	if !fitsSigned(offset, bits) {
		return 0, errAt(st.line, "branch offset %d to %q out of range for %d-bit field", offset, label, bits)
	}
	return int32(offset), nil
}

// fitsSigned reports whether n fits in a signed field of the given bit width.
func fitsSigned(n int64, bits int) bool {
	lo := -(int64(1) << (bits - 1))
	hi := int64(1)<<(bits-1) - 1
	return n >= lo && n <= hi
}
