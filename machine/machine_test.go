package machine_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tomasim/asm"
	"tomasim/machine"
)

// runProgram assembles source, loads it at BasePC, and steps the machine to
// completion, failing the spec if it runs past maxCycles without halting.
func runProgram(source string, maxCycles int) *machine.Machine {
	words, err := asm.Assemble(source)
	Expect(err).NotTo(HaveOccurred())

	m := machine.New()
	for i, w := range words {
		Expect(m.LoadInstruction(machine.BasePC+uint32(i), w)).To(Succeed())
	}
	Expect(m.SetMemorySize(machine.BasePC + uint32(len(words)))).To(Succeed())

	for cycles := 0; cycles < maxCycles; cycles++ {
		if m.Step() {
			return m
		}
	}

	Fail("program did not halt within the cycle budget")
	return m
}

var _ = Describe("Machine acceptance scenarios", func() {
	It("forwards a back-to-back RAW dependency through the CDB", func() {
		m := runProgram(`
			addi r1, r0, 5
			addi r2, r1, 5
			halt
		`, 50)

		Expect(m.Err()).NotTo(HaveOccurred())
		Expect(m.Regs.Read(1)).To(Equal(uint32(5)))
		Expect(m.Regs.Read(2)).To(Equal(uint32(10)))
	})

	It("respects store-to-load ordering for a matching address", func() {
		m := runProgram(`
			addi r1, r0, 42
			sw r1, r0, 0
			lw r2, r0, 0
			halt
		`, 50)

		Expect(m.Err()).NotTo(HaveOccurred())
		Expect(m.Regs.Read(2)).To(Equal(uint32(42)))
	})

	It("correctly predicts a branch the second time it reaches the same PC", func() {
		m := runProgram(`
			addi r1, r0, 0
			addi r2, r0, 2
		start: beqz r1, taken_target
			halt
		taken_target: addi r2, r2, -1
			beqz r2, finish
			j start
		finish: halt
		`, 200)

		Expect(m.Err()).NotTo(HaveOccurred())
		Expect(m.Regs.Read(1)).To(Equal(uint32(0)))
		Expect(m.Regs.Read(2)).To(Equal(uint32(0)))

		branchPC := uint32(machine.BasePC) + 2
		entry, hit := m.BTB.Lookup(branchPC)
		Expect(hit).To(BeTrue())
		Expect(entry.Pred.Taken()).To(BeTrue())
	})

	It("squashes speculative instructions on a misprediction", func() {
		m := runProgram(`
			addi r1, r0, 0
			beqz r1, taken_target
			addi r9, r0, 111
		taken_target: addi r8, r0, 222
			halt
		`, 50)

		Expect(m.Err()).NotTo(HaveOccurred())
		Expect(m.Regs.Read(9)).To(Equal(uint32(0)))
		Expect(m.Regs.Read(8)).To(Equal(uint32(222)))
	})

	It("discards instructions issued behind halt instead of committing them", func() {
		m := runProgram(`
			addi r1, r0, 1
			halt
			addi r2, r0, 99
			addi r3, r0, 77
			halt
		`, 50)

		Expect(m.Err()).NotTo(HaveOccurred())
		Expect(m.Regs.Read(1)).To(Equal(uint32(1)))
		Expect(m.Regs.Read(2)).To(Equal(uint32(0)))
		Expect(m.Regs.Read(3)).To(Equal(uint32(0)))
	})

	It("serializes loads behind a full pair of load reservation stations", func() {
		m := runProgram(`
			addi r1, r0, 10
			lw r2, r1, 0
			lw r3, r1, 0
			lw r4, r1, 0
			halt
		`, 50)

		Expect(m.Err()).NotTo(HaveOccurred())
		Expect(m.Regs.Read(1)).To(Equal(uint32(10)))
		Expect(m.Regs.Read(2)).To(Equal(uint32(0)))
		Expect(m.Regs.Read(3)).To(Equal(uint32(0)))
		Expect(m.Regs.Read(4)).To(Equal(uint32(0)))
	})

	It("reports a fatal error on an illegal opcode instead of corrupting state", func() {
		m := machine.New()
		Expect(m.LoadInstruction(machine.BasePC, 0)).To(Succeed()) // R-format, func=0: not add/sub/and
		Expect(m.SetMemorySize(machine.BasePC + 1)).To(Succeed())

		halted := m.Step()

		Expect(halted).To(BeTrue())
		Expect(m.Err()).To(HaveOccurred())
		var fatal *machine.FatalError
		Expect(m.Err()).To(BeAssignableToTypeOf(fatal))
	})
})
