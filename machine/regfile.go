package machine

// RenameEntry is a register's rename-table slot: while Valid is false, the
// register's authoritative value has not yet been produced and lives in
// ROB slot ROBIdx instead of the register file.
type RenameEntry struct {
	// Valid indicates the register file holds the authoritative value.
	Valid bool

	// ROBIdx is the producing ROB slot when Valid is false.
	ROBIdx int
}

// RegFile holds the 32 architectural registers and their rename entries.
// r0 always reads as 0 and silently ignores writes and renames.
type RegFile struct {
	// Regs holds the architectural register values.
	Regs [32]uint32

	// Rename holds each register's producer, if any is in flight.
	Rename [32]RenameEntry
}

// NewRegFile returns a RegFile with every register architecturally valid.
func NewRegFile() *RegFile {
	rf := &RegFile{}
	for i := range rf.Rename {
		rf.Rename[i] = RenameEntry{Valid: true}
	}
	return rf
}

// Read returns the architectural value of reg. r0 always reads 0.
func (r *RegFile) Read(reg uint8) uint32 {
	if reg == 0 {
		return 0
	}
	return r.Regs[reg]
}

// Write sets the architectural value of reg. Writes to r0 are dropped.
func (r *RegFile) Write(reg uint8, value uint32) {
	if reg == 0 {
		return
	}
	r.Regs[reg] = value
}

// SetProducer claims reg's rename entry for the ROB slot robIdx. r0 is
// never renamed.
func (r *RegFile) SetProducer(reg uint8, robIdx int) {
	if reg == 0 {
		return
	}
	r.Rename[reg] = RenameEntry{Valid: false, ROBIdx: robIdx}
}

// ClearProducer marks reg's rename entry valid again, but only if it still
// points at robIdx — a later instruction may have already claimed it.
func (r *RegFile) ClearProducer(reg uint8, robIdx int) {
	if reg == 0 {
		return
	}
	if !r.Rename[reg].Valid && r.Rename[reg].ROBIdx == robIdx {
		r.Rename[reg] = RenameEntry{Valid: true}
	}
}
