// Package machine implements the out-of-order execution core: Tomasulo
// reservation stations and a reorder buffer sitting on top of a simple
// MIPS-like register/memory model, with speculative execution driven by a
// branch target buffer.
package machine

import "tomasim/insts"

// BasePC is the address the first loaded instruction occupies.
const BasePC = 16

// Machine is the whole simulated processor: architectural state plus the
// Tomasulo bookkeeping needed to execute speculatively and out of order.
type Machine struct {
	PC     uint32
	Cycles uint64
	Halted bool

	Regs *RegFile
	Mem  *Memory
	ROB  *ROB
	RS   *Stations
	BTB  *BTB

	fatal error
}

// New returns a Machine ready to load a program, using default ROB, station
// and BTB sizing.
func New() *Machine {
	return &Machine{
		PC:   BasePC,
		Regs: NewRegFile(),
		Mem:  NewMemory(),
		ROB:  NewROB(0),
		RS:   NewStations(),
		BTB:  NewBTB(0),
	}
}

// LoadInstruction places word at addr in memory, as a fetchable
// instruction. Returns a LoadError if addr is beyond MaxMemoryWords.
func (m *Machine) LoadInstruction(addr, word uint32) error {
	return m.Mem.LoadInstruction(addr, word)
}

// SetMemorySize declares the data memory's visible extent (in words).
// Returns a LoadError if n is beyond MaxMemoryWords.
func (m *Machine) SetMemorySize(n uint32) error {
	return m.Mem.SetSize(n)
}

// Err returns the fatal error that halted the machine, if any.
func (m *Machine) Err() error {
	return m.fatal
}

// Step advances the machine by one simulated cycle, running commit,
// write-result, execute and issue in that order, and reports whether the
// machine has halted.
func (m *Machine) Step() bool {
	if m.Halted {
		return true
	}

	m.doCommit()
	if !m.Halted {
		m.doWriteResult()
		m.doExecute()
		m.doIssue()
	}
	m.Cycles++

	return m.Halted
}

// doCommit retires the ROB head if its result is ready, applying its
// architectural effect.
func (m *Machine) doCommit() {
	head := m.ROB.Head()
	if head == nil || head.Status != WritingResult {
		return
	}

	idx := m.ROB.HeadIdx()
	entry := *head

	switch entry.Instr.Op {
	case insts.OpLw, insts.OpAdd, insts.OpSub, insts.OpAnd, insts.OpAddi, insts.OpAndi:
		m.Regs.Write(entry.DestReg, entry.Result)
		m.Regs.ClearProducer(entry.DestReg, idx)

	case insts.OpSw:
		m.Mem.Write(entry.Address, entry.Result)

	case insts.OpBeqz:
		actuallyTaken := entry.Address != 0
		m.BTB.Update(entry.PC, actuallyTaken, entry.Result)
		if actuallyTaken != entry.PredictedTaken {
			correctNext := entry.PC + 1
			if actuallyTaken {
				correctNext = entry.Result
			}
			squashed := m.ROB.SquashAfter(idx)
			m.cleanupSquashed(squashed)
			m.PC = correctNext
		}

	case insts.OpHalt:
		m.Halted = true
	}

	m.ROB.CommitHead()

	if entry.Instr.Op == insts.OpHalt {
		discarded := m.ROB.Clear()
		m.cleanupSquashed(discarded)
	}
}

// cleanupSquashed frees every reservation station and rename entry that
// referenced one of the given (now-destroyed) ROB indices.
func (m *Machine) cleanupSquashed(idxs []int) {
	if len(idxs) == 0 {
		return
	}
	set := make(map[int]bool, len(idxs))
	for _, i := range idxs {
		set[i] = true
	}

	m.RS.Squash(set)

	for reg := uint8(1); reg < insts.NumRegisters; reg++ {
		re := m.Regs.Rename[reg]
		if !re.Valid && set[re.ROBIdx] {
			m.Regs.Rename[reg] = RenameEntry{Valid: true}
		}
	}
}

// doWriteResult arbitrates the CDB among stations that finished execution,
// broadcasting the oldest one's result.
func (m *Machine) doWriteResult() {
	msg, ok := m.selectCDBWinner()
	if !ok {
		return
	}
	m.broadcastCDB(msg)
}

// doExecute advances every busy, ready station's countdown by one cycle,
// completing execution for any that reach zero.
func (m *Machine) doExecute() {
	for _, u := range allUnits {
		st := m.RS.Get(u)
		if !st.Busy || st.done {
			continue
		}

		entry := m.ROB.At(st.ROBIdx)
		if entry.Status == Issuing {
			entry.Status = Executing
		}

		if !st.ReadyToExecute() {
			continue
		}

		if st.Instr.Op == insts.OpLw && m.loadBlocked(st) {
			continue
		}

		st.ExecTimeLeft--
		if st.ExecTimeLeft > 0 {
			continue
		}

		m.completeExecution(st)
	}
}

// completeExecution computes a station's result once its latency has
// elapsed. Stores write their ROB entry directly and free their station,
// bypassing the CDB entirely.
func (m *Machine) completeExecution(st *Station) {
	switch st.Instr.Op {
	case insts.OpAdd:
		st.result = st.Vj + st.Vk
	case insts.OpSub:
		st.result = st.Vj - st.Vk
	case insts.OpAnd:
		st.result = st.Vj & st.Vk
	case insts.OpAddi:
		st.result = st.Vj + uint32(st.A)
	case insts.OpAndi:
		st.result = st.Vj & uint32(st.A)

	case insts.OpLw:
		addr := st.Vj + uint32(st.A)
		st.result = m.Mem.Read(addr)
		st.resultAddr = addr

	case insts.OpSw:
		addr := st.Vj + uint32(st.A)
		entry := m.ROB.At(st.ROBIdx)
		entry.Status = WritingResult
		entry.Result = st.Vk
		entry.Address = addr
		entry.Valid = true
		st.Clear()
		return

	case insts.OpBeqz:
		pc := m.ROB.At(st.ROBIdx).PC
		target := pc + 1 + uint32(st.A)
		st.result = target
		if st.Vj == 0 {
			st.resultAddr = 1
		} else {
			st.resultAddr = 0
		}
	}

	st.done = true
}

// loadBlocked reports whether a load station must stall to preserve memory
// ordering: an older store with an unresolved address, or an older resolved
// store to the same address that hasn't committed yet, must go first.
func (m *Machine) loadBlocked(st *Station) bool {
	effAddr := st.Vj + uint32(st.A)

	idx := m.ROB.HeadIdx()
	for i := 0; i < m.ROB.Len(); i++ {
		if idx == st.ROBIdx {
			break
		}
		e := m.ROB.At(idx)
		if e.Instr.Op == insts.OpSw {
			if e.Status == Issuing || e.Status == Executing {
				return true
			}
			if e.Address == effAddr {
				return true
			}
		}
		idx = (idx + 1) % m.ROB.Capacity()
	}

	return false
}

// doIssue fetches the instruction at PC, allocates it a ROB slot and, if
// needed, a reservation station, and advances PC. While PC is at or beyond
// the declared memory size and instructions are still in flight (a halt to
// commit, or a branch that may redirect PC), nothing is fetched; with the
// ROB empty, the word there is fetched and decoded like any other.
func (m *Machine) doIssue() {
	if m.Halted || m.ROB.Full() {
		return
	}
	if m.PC >= m.Mem.Size() && !m.ROB.Empty() {
		return
	}

	word := m.Mem.Read(m.PC)
	inst := insts.Decode(word)
	if inst.Op == insts.OpUnknown {
		m.fatal = &FatalError{PC: m.PC, Word: word}
		m.Halted = true
		return
	}

	var tag UnitTag = Ready
	units := unitsFor(inst.Op)
	if units != nil {
		var ok bool
		tag, ok = m.RS.allocate(inst.Op)
		if !ok {
			return
		}
	}

	robIdx := m.ROB.Alloc()
	entry := m.ROB.At(robIdx)
	entry.PC = m.PC
	entry.Instr = inst
	entry.DestReg = inst.Rd
	entry.ExecUnit = tag

	if tag == Ready {
		entry.Status = WritingResult
		entry.Valid = true
	} else {
		entry.Status = Issuing
		m.occupyStation(tag, inst, robIdx)
	}

	if inst.WritesReg {
		m.Regs.SetProducer(inst.Rd, robIdx)
	}

	switch inst.Op {
	case insts.OpJ:
		m.PC = m.PC + 1 + uint32(inst.Imm)

	case insts.OpBeqz:
		predTaken, target := m.predictBranch(m.PC)
		entry.PredictedTaken = predTaken
		if predTaken {
			m.PC = target
		} else {
			m.PC = m.PC + 1
		}

	default:
		m.PC = m.PC + 1
	}
}

// occupyStation claims tag for inst/robIdx and resolves its operands against
// the rename table.
func (m *Machine) occupyStation(tag UnitTag, inst insts.Instruction, robIdx int) {
	st := m.RS.Get(tag)
	st.Clear()
	st.Busy = true
	st.Instr = inst
	st.ROBIdx = robIdx
	st.A = inst.Imm
	st.ExecTimeLeft = latencyFor(inst.Op)

	switch inst.Op {
	case insts.OpAdd, insts.OpSub, insts.OpAnd:
		m.resolveOperand(&st.Vj, &st.Qj, inst.Rs1)
		m.resolveOperand(&st.Vk, &st.Qk, inst.Rs2)

	case insts.OpAddi, insts.OpAndi, insts.OpLw:
		m.resolveOperand(&st.Vj, &st.Qj, inst.Rs1)
		st.Vk, st.Qk = 0, Ready

	case insts.OpSw:
		m.resolveOperand(&st.Vj, &st.Qj, inst.Rs1)
		m.resolveOperand(&st.Vk, &st.Qk, inst.Rd)

	case insts.OpBeqz:
		m.resolveOperand(&st.Vj, &st.Qj, inst.Rs1)
		st.Vk, st.Qk = 0, Ready
	}
}

// resolveOperand reads reg's value if it is architecturally valid, or the
// producer's ROB result if that has already been broadcast, or else records
// the producing station's tag for the CDB to resolve later.
func (m *Machine) resolveOperand(v *uint32, q *UnitTag, reg uint8) {
	if reg == 0 {
		*v, *q = 0, Ready
		return
	}

	re := m.Regs.Rename[reg]
	if re.Valid {
		*v, *q = m.Regs.Read(reg), Ready
		return
	}

	producer := m.ROB.At(re.ROBIdx)
	if producer.Status == WritingResult {
		*v, *q = producer.Result, Ready
		return
	}

	*q = producer.ExecUnit
	*v = 0
}

// predictBranch consults the BTB for pc, allocating a fresh entry on miss.
func (m *Machine) predictBranch(pc uint32) (taken bool, target uint32) {
	e, hit := m.BTB.Lookup(pc)
	if !hit {
		m.BTB.AllocateOnMiss(pc)
		return false, 0
	}
	return e.Pred.Taken(), e.TargetPC
}

// latencyFor returns the number of execute cycles op takes once its
// operands are ready.
func latencyFor(op insts.Op) int {
	switch op {
	case insts.OpLw, insts.OpSw:
		return 3
	case insts.OpAdd, insts.OpSub, insts.OpAnd, insts.OpAddi, insts.OpAndi, insts.OpBeqz:
		return 1
	default:
		return 0
	}
}
