package machine

import "tomasim/insts"

// ROBEntry is one slot of the reorder buffer.
type ROBEntry struct {
	// Busy indicates the slot holds a live (possibly speculative) entry.
	Busy bool

	// Valid is false until the entry's result has been computed (status
	// reaches WritingResult); it is cleared again if the entry is
	// squashed. It gives the viewer a fast "is Result meaningful yet"
	// check independent of Status.
	Valid bool

	// PC is the address this instruction was fetched from.
	PC uint32

	// Instr is the decoded instruction.
	Instr insts.Instruction

	// Status is the entry's lifecycle stage.
	Status Status

	// ExecUnit is the reservation station executing this entry, or Ready
	// for instructions that need none (j, halt, noop).
	ExecUnit UnitTag

	// Result holds the register value to write back, the store data, or
	// the resolved branch target — depending on Instr.Op.
	Result uint32

	// Address holds the load/store effective address, or the branch's
	// actually-taken flag (0/1) for beqz.
	Address uint32

	// DestReg is the register this entry writes, if Instr.WritesReg.
	DestReg uint8

	// PredictedTaken records the branch prediction made at issue, so
	// commit can compare it against the resolved outcome.
	PredictedTaken bool
}

// ROB is the reorder buffer: a circular queue where the tail issues and the
// head commits.
type ROB struct {
	entries []ROBEntry
	head    int
	tail    int
	count   int
}

// DefaultROBSize is the ROB capacity used when none is configured.
const DefaultROBSize = 16

// NewROB returns an empty ROB with the given capacity (DefaultROBSize if 0).
func NewROB(capacity int) *ROB {
	if capacity == 0 {
		capacity = DefaultROBSize
	}
	return &ROB{entries: make([]ROBEntry, capacity)}
}

// Capacity returns the ROB's fixed slot count.
func (r *ROB) Capacity() int {
	return len(r.entries)
}

// Len returns the number of live entries.
func (r *ROB) Len() int {
	return r.count
}

// Empty reports whether the ROB holds no live entries.
func (r *ROB) Empty() bool {
	return r.count == 0
}

// Full reports whether the ROB has no free slot at the tail.
func (r *ROB) Full() bool {
	return r.count == len(r.entries)
}

// Alloc claims the tail slot for a new entry, returning its index. Callers
// must check Full first.
func (r *ROB) Alloc() int {
	idx := r.tail
	r.entries[idx] = ROBEntry{Busy: true}
	r.tail = (r.tail + 1) % len(r.entries)
	r.count++
	return idx
}

// At returns a pointer to the entry at idx for in-place mutation.
func (r *ROB) At(idx int) *ROBEntry {
	return &r.entries[idx]
}

// HeadIdx returns the index of the oldest live entry. Only meaningful when
// Empty is false.
func (r *ROB) HeadIdx() int {
	return r.head
}

// Head returns a pointer to the oldest live entry, or nil if the ROB is
// empty.
func (r *ROB) Head() *ROBEntry {
	if r.Empty() {
		return nil
	}
	return &r.entries[r.head]
}

// CommitHead destroys the head entry and advances the head pointer. Callers
// must check Empty first.
func (r *ROB) CommitHead() {
	r.entries[r.head] = ROBEntry{}
	r.head = (r.head + 1) % len(r.entries)
	r.count--
}

// Distance returns how many slots idx sits past the head, in circular
// order; smaller means older. Used, through Older, to arbitrate the CDB.
func (r *ROB) Distance(idx int) int {
	return (idx - r.head + len(r.entries)) % len(r.entries)
}

// Older reports whether a is strictly older (closer to the head) than b.
func (r *ROB) Older(a, b int) bool {
	return r.Distance(a) < r.Distance(b)
}

// SquashAfter invalidates every live entry strictly newer than keepIdx,
// shrinking the tail back to keepIdx+1 and returning the indices it
// destroyed (unordered), so callers can clean up reservation stations and
// rename entries that referenced them.
func (r *ROB) SquashAfter(keepIdx int) []int {
	var squashed []int
	capacity := len(r.entries)
	for r.count > 0 {
		newest := (r.tail - 1 + capacity) % capacity
		if newest == keepIdx {
			break
		}
		squashed = append(squashed, newest)
		r.entries[newest] = ROBEntry{}
		r.tail = newest
		r.count--
	}
	return squashed
}

// Clear destroys every remaining live entry without regard to order,
// returning their indices. Used when halt commits and drains whatever
// issued behind it before the program's end.
func (r *ROB) Clear() []int {
	var cleared []int
	for r.count > 0 {
		cleared = append(cleared, r.head)
		r.entries[r.head] = ROBEntry{}
		r.head = (r.head + 1) % len(r.entries)
		r.count--
	}
	return cleared
}

// Snapshot returns a copy of every live entry, in head-to-tail order, for
// the viewer.
func (r *ROB) Snapshot() []ROBEntry {
	out := make([]ROBEntry, 0, r.count)
	idx := r.head
	for i := 0; i < r.count; i++ {
		out = append(out, r.entries[idx])
		idx = (idx + 1) % len(r.entries)
	}
	return out
}
