package machine

import "tomasim/insts"

// Station is a reservation station: one per execution unit, claimed at
// issue and released when it wins the CDB (or, for stores, once execute
// completes).
type Station struct {
	// Busy indicates the station holds an in-flight instruction.
	Busy bool

	// Instr is the decoded instruction occupying this station.
	Instr insts.Instruction

	// Vj, Vk hold operand values once ready.
	Vj, Vk uint32

	// Qj, Qk name the producer station each operand is still waiting on;
	// Ready means the operand is already in Vj/Vk.
	Qj, Qk UnitTag

	// A holds the sign-extended immediate. Execute adds it to Vj to form a
	// load/store effective address without overwriting it.
	A int32

	// ROBIdx is the ROB slot this instruction occupies.
	ROBIdx int

	// ExecTimeLeft counts down to zero during execute; at zero the
	// station's result is computed.
	ExecTimeLeft int

	// result and resultAddr hold the computed result once ExecTimeLeft
	// reaches zero, pending a CDB broadcast.
	result     uint32
	resultAddr uint32
	done       bool
}

// Clear resets the station to its free state.
func (s *Station) Clear() {
	*s = Station{}
}

// ReadyToExecute reports whether s can make execute progress this cycle.
func (s *Station) ReadyToExecute() bool {
	return s.Busy && s.Qj == Ready && s.Qk == Ready && s.ExecTimeLeft > 0
}

// Stations is the fixed table of reservation stations, one per real
// UnitTag.
type Stations struct {
	table map[UnitTag]*Station
}

// NewStations returns a Stations table with every unit free.
func NewStations() *Stations {
	t := make(map[UnitTag]*Station, len(allUnits))
	for _, u := range allUnits {
		t[u] = &Station{}
	}
	return &Stations{table: t}
}

// Get returns the station for tag.
func (s *Stations) Get(tag UnitTag) *Station {
	return s.table[tag]
}

// unitsFor returns the allocation class (in priority order) for op, or nil
// for ops that need no reservation station (j, halt, noop).
func unitsFor(op insts.Op) []UnitTag {
	switch op {
	case insts.OpLw:
		return loadUnits
	case insts.OpSw:
		return storeUnits
	case insts.OpAdd, insts.OpSub, insts.OpAnd, insts.OpAddi, insts.OpAndi, insts.OpBeqz:
		return intUnits
	default:
		return nil
	}
}

// allocate finds the first free station in op's class and returns its tag;
// it does not mark the station busy. Returns (Ready, false) if op needs no
// station or none is free (a structural stall).
func (s *Stations) allocate(op insts.Op) (UnitTag, bool) {
	for _, tag := range unitsFor(op) {
		if !s.table[tag].Busy {
			return tag, true
		}
	}
	return Ready, false
}

// ClearProducer releases every busy station whose Qj/Qk names tag, the
// station that produced the result for ROB slot robIdx, copying value into
// the matching operand slots. Called by the CDB broadcast.
func (s *Stations) ClearProducer(robIdx int, tag UnitTag, value uint32) {
	for _, u := range allUnits {
		st := s.table[u]
		if !st.Busy {
			continue
		}
		if st.Qj == tag {
			st.Vj = value
			st.Qj = Ready
		}
		if st.Qk == tag {
			st.Vk = value
			st.Qk = Ready
		}
	}
}

// Squash frees every station whose ROBIdx is in squashed.
func (s *Stations) Squash(squashed map[int]bool) {
	for _, u := range allUnits {
		st := s.table[u]
		if st.Busy && squashed[st.ROBIdx] {
			st.Clear()
		}
	}
}

// Snapshot returns a copy of every station, keyed by tag, for the viewer.
func (s *Stations) Snapshot() map[UnitTag]Station {
	out := make(map[UnitTag]Station, len(s.table))
	for tag, st := range s.table {
		out[tag] = *st
	}
	return out
}
