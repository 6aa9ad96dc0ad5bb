package machine

// Snapshot is a point-in-time, deep copy of everything a viewer might want
// to render: architectural state plus the full Tomasulo bookkeeping.
type Snapshot struct {
	PC     uint32
	Cycles uint64
	Halted bool

	Registers [32]uint32
	Rename    [32]RenameEntry

	Memory []uint32

	ROB          []ROBEntry
	Reservations map[UnitTag]Station
	BTB          []BTBEntry
}

// Snapshot returns a deep copy of the machine's current state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		PC:           m.PC,
		Cycles:       m.Cycles,
		Halted:       m.Halted,
		Registers:    m.Regs.Regs,
		Rename:       m.Regs.Rename,
		Memory:       m.Mem.Snapshot(),
		ROB:          m.ROB.Snapshot(),
		Reservations: m.RS.Snapshot(),
		BTB:          m.BTB.Snapshot(),
	}
}
