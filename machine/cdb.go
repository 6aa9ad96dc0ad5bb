package machine

// cdbMessage is the single broadcast the Common Data Bus carries in a
// cycle: the producing station, the ROB slot it completes, and the
// value/address pair to publish.
type cdbMessage struct {
	winner UnitTag
	robIdx int
	value  uint32
	addr   uint32
}

// selectCDBWinner arbitrates among stations that finished execution this
// cycle (done but not yet broadcast), picking the one whose ROB entry is
// oldest. Stores never compete here — they write their ROB entry directly
// when execution completes and never set done.
func (m *Machine) selectCDBWinner() (cdbMessage, bool) {
	bestIdx := -1
	var best UnitTag

	for _, u := range allUnits {
		st := m.RS.Get(u)
		if !st.Busy || !st.done {
			continue
		}
		if bestIdx == -1 || m.ROB.Older(st.ROBIdx, bestIdx) {
			bestIdx = st.ROBIdx
			best = u
		}
	}

	if bestIdx == -1 {
		return cdbMessage{}, false
	}

	st := m.RS.Get(best)
	return cdbMessage{winner: best, robIdx: st.ROBIdx, value: st.result, addr: st.resultAddr}, true
}

// broadcastCDB applies one cycle's CDB winner: the ROB entry records its
// result, every station waiting on the winner's tag picks up the value, and
// the winning station is freed.
func (m *Machine) broadcastCDB(msg cdbMessage) {
	entry := m.ROB.At(msg.robIdx)
	entry.Status = WritingResult
	entry.Result = msg.value
	entry.Address = msg.addr
	entry.Valid = true

	m.RS.ClearProducer(msg.robIdx, msg.winner, msg.value)
	m.RS.Get(msg.winner).Clear()
}
