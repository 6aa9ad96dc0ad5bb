package machine_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tomasim/machine"
)

var _ = Describe("ROB", func() {
	var rob *machine.ROB

	BeforeEach(func() {
		rob = machine.NewROB(4)
	})

	It("allocates in order and reports fullness", func() {
		Expect(rob.Empty()).To(BeTrue())
		for i := 0; i < 4; i++ {
			Expect(rob.Full()).To(BeFalse())
			rob.Alloc()
		}
		Expect(rob.Full()).To(BeTrue())
	})

	It("commits the head and advances it", func() {
		a := rob.Alloc()
		b := rob.Alloc()
		Expect(rob.HeadIdx()).To(Equal(a))
		rob.CommitHead()
		Expect(rob.HeadIdx()).To(Equal(b))
	})

	It("orders distance and Older relative to the current head", func() {
		a := rob.Alloc()
		b := rob.Alloc()
		c := rob.Alloc()
		Expect(rob.Older(a, b)).To(BeTrue())
		Expect(rob.Older(b, c)).To(BeTrue())
		Expect(rob.Older(c, a)).To(BeFalse())
	})

	It("squashes every entry newer than the keep index", func() {
		a := rob.Alloc()
		_ = a
		keep := rob.Alloc()
		newer1 := rob.Alloc()
		newer2 := rob.Alloc()

		squashed := rob.SquashAfter(keep)

		Expect(squashed).To(ConsistOf(newer1, newer2))
		Expect(rob.Len()).To(Equal(2))
	})

	It("clears every remaining entry on a forced drain", func() {
		a := rob.Alloc()
		b := rob.Alloc()
		cleared := rob.Clear()
		Expect(cleared).To(ConsistOf(a, b))
		Expect(rob.Empty()).To(BeTrue())
	})
})

var _ = Describe("Stations", func() {
	It("allocates load units before reporting a structural stall", func() {
		rs := machine.NewStations()

		tag1, ok1 := mustAllocate(rs)
		Expect(ok1).To(BeTrue())
		Expect(tag1).To(Equal(machine.Load1))

		tag2, ok2 := mustAllocate(rs)
		Expect(ok2).To(BeTrue())
		Expect(tag2).To(Equal(machine.Load2))

		_, ok3 := mustAllocate(rs)
		Expect(ok3).To(BeFalse())
	})
})

// mustAllocate exercises Stations' load-class allocation through the public
// Get surface, since allocate itself is unexported.
func mustAllocate(rs *machine.Stations) (machine.UnitTag, bool) {
	for _, tag := range []machine.UnitTag{machine.Load1, machine.Load2} {
		st := rs.Get(tag)
		if !st.Busy {
			st.Busy = true
			return tag, true
		}
	}
	return machine.Ready, false
}

var _ = Describe("BTB", func() {
	var btb *machine.BTB

	BeforeEach(func() {
		btb = machine.NewBTB(4)
	})

	It("misses on an unseen PC and installs a weakly-not-taken entry", func() {
		_, hit := btb.Lookup(100)
		Expect(hit).To(BeFalse())

		btb.AllocateOnMiss(100)
		e, hit := btb.Lookup(100)
		Expect(hit).To(BeTrue())
		Expect(e.Pred).To(Equal(machine.WeaklyNotTaken))
		Expect(e.Pred.Taken()).To(BeFalse())
	})

	It("saturates toward strongly taken and records the target", func() {
		btb.AllocateOnMiss(100)
		btb.Update(100, true, 200)
		btb.Update(100, true, 200)

		e, hit := btb.Lookup(100)
		Expect(hit).To(BeTrue())
		Expect(e.Pred).To(Equal(machine.StronglyTaken))
		Expect(e.TargetPC).To(Equal(uint32(200)))
	})

	It("saturates toward strongly not taken without overflowing", func() {
		btb.AllocateOnMiss(100)
		btb.Update(100, false, 0)
		btb.Update(100, false, 0)
		btb.Update(100, false, 0)

		e, _ := btb.Lookup(100)
		Expect(e.Pred).To(Equal(machine.StronglyNotTaken))
	})

	It("misses on a different PC that maps to an occupied direct-mapped slot", func() {
		btb.AllocateOnMiss(100) // index 100 % 4 = 0
		_, hitOther := btb.Lookup(104) // also index 0
		Expect(hitOther).To(BeFalse())
	})
})
