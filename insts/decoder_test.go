package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tomasim/insts"
)

var _ = Describe("Decode", func() {
	Describe("R-type", func() {
		It("should decode add rd, rs1, rs2", func() {
			word := insts.EncodeR(1, 2, 3, insts.FuncCode(insts.OpAdd))
			inst := insts.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpAdd))
			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.WritesReg).To(BeTrue())
		})

		It("should decode sub and and by func field", func() {
			sub := insts.Decode(insts.EncodeR(4, 5, 6, insts.FuncCode(insts.OpSub)))
			Expect(sub.Op).To(Equal(insts.OpSub))

			and := insts.Decode(insts.EncodeR(4, 5, 6, insts.FuncCode(insts.OpAnd)))
			Expect(and.Op).To(Equal(insts.OpAnd))
		})

		It("should decode an unknown func as OpUnknown", func() {
			inst := insts.Decode(insts.EncodeR(0, 0, 0, 0x7FF))
			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})
	})

	Describe("I-type", func() {
		It("should decode addi with a positive immediate", func() {
			word := insts.EncodeI(insts.Opcode(insts.OpAddi), 1, 2, 100)
			inst := insts.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpAddi))
			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rd).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(100)))
		})

		It("should sign-extend a negative 16-bit immediate", func() {
			word := insts.EncodeI(insts.Opcode(insts.OpAddi), 1, 2, -1)
			inst := insts.Decode(word)

			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		It("should decode lw and sw", func() {
			lw := insts.Decode(insts.EncodeI(insts.Opcode(insts.OpLw), 1, 2, 4))
			Expect(lw.Op).To(Equal(insts.OpLw))
			Expect(lw.WritesReg).To(BeTrue())

			sw := insts.Decode(insts.EncodeI(insts.Opcode(insts.OpSw), 1, 2, 4))
			Expect(sw.Op).To(Equal(insts.OpSw))
			Expect(sw.WritesReg).To(BeFalse())
		})

		It("should decode beqz and report it as a branch", func() {
			word := insts.EncodeI(insts.Opcode(insts.OpBeqz), 1, insts.RegZero, -3)
			inst := insts.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpBeqz))
			Expect(inst.IsBranch()).To(BeTrue())
		})
	})

	Describe("J-type", func() {
		It("should decode j with a sign-extended 26-bit immediate", func() {
			word := insts.EncodeJ(insts.Opcode(insts.OpJ), -5)
			inst := insts.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpJ))
			Expect(inst.Format).To(Equal(insts.FormatJ))
			Expect(inst.Imm).To(Equal(int32(-5)))
		})

		It("should decode halt and noop with imm=0", func() {
			halt := insts.Decode(insts.EncodeJ(insts.Opcode(insts.OpHalt), 0))
			Expect(halt.Op).To(Equal(insts.OpHalt))

			noop := insts.Decode(insts.EncodeJ(insts.Opcode(insts.OpNoop), 0))
			Expect(noop.Op).To(Equal(insts.OpNoop))
		})
	})

	Describe("unrecognized opcodes", func() {
		It("should decode as OpUnknown", func() {
			inst := insts.Decode(insts.EncodeJ(63, 0))
			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Format).To(Equal(insts.FormatUnknown))
		})
	})
})
