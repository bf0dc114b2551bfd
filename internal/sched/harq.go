package sched

// HARQState names the lifecycle state of a single stop-and-wait HARQ
// process (§4.6).
type HARQState int

const (
	HARQEmpty HARQState = iota
	HARQAwaitingACK
	HARQAwaitingRetx
)

func (s HARQState) String() string {
	switch s {
	case HARQEmpty:
		return "empty"
	case HARQAwaitingACK:
		return "awaiting_ack"
	case HARQAwaitingRetx:
		return "awaiting_retx"
	default:
		return "unknown"
	}
}

// HARQProcess is one entry of a stop-and-wait HARQ entity: at most one
// transport block in flight, tracked across new transmissions and
// retransmissions until it is ACKed or exhausts its retransmission
// budget.
type HARQProcess struct {
	ID  int
	TTI SlotPoint

	state    HARQState
	ndi      bool // toggles on every new (non-retx) transmission
	nofRetx  int
	maxRetx  int
	tbSize   int
	prbs     Interval
}

// NewHARQEntity builds a fixed pool of n stop-and-wait processes
// (16 for the standard DL/UL HARQ entity size).
func NewHARQEntity(n, maxRetx int) []HARQProcess {
	procs := make([]HARQProcess, n)
	for i := range procs {
		procs[i] = HARQProcess{ID: i, maxRetx: maxRetx}
	}
	return procs
}

// Empty reports whether the process holds no pending transport block.
func (h *HARQProcess) Empty() bool { return h.state == HARQEmpty }

// AwaitingRetx reports whether the process needs a scheduled
// retransmission.
func (h *HARQProcess) AwaitingRetx() bool { return h.state == HARQAwaitingRetx }

// NewTx starts a brand-new transmission on an empty process, toggling
// NDI and resetting the retransmission counter.
func (h *HARQProcess) NewTx(tti SlotPoint, tbSize int, prbs Interval) {
	h.state = HARQAwaitingACK
	h.ndi = !h.ndi
	h.nofRetx = 0
	h.tbSize = tbSize
	h.prbs = prbs
	h.TTI = tti
}

// Retx schedules a retransmission of the same transport block, reusing
// the prior NDI value (NDI must not toggle on a retx). capacity
// is the transport block size the caller's new grant can carry; it
// must cover at least the originally transmitted size, since a
// retransmission cannot shrink the transport block it is resending
// (the reference asserts this at sched_nr_rb_grid.cc:206).
func (h *HARQProcess) Retx(tti SlotPoint, prbs Interval, capacity int) {
	if capacity < h.tbSize {
		panic("sched: retransmission grant too small for the original transport block")
	}
	h.state = HARQAwaitingACK
	h.nofRetx++
	h.prbs = prbs
	h.TTI = tti
}

// Ack resolves the process: an ACK always frees it; a NACK either
// schedules it for retransmission or frees it if the retransmission
// budget is exhausted (dropping the transport block).
func (h *HARQProcess) Ack(ack bool) {
	if ack {
		h.state = HARQEmpty
		return
	}
	if h.nofRetx >= h.maxRetx {
		h.state = HARQEmpty
		return
	}
	h.state = HARQAwaitingRetx
}

// NDI returns the current new-data-indicator value.
func (h *HARQProcess) NDI() bool { return h.ndi }

// NofRetx returns the number of retransmissions already sent for the
// transport block currently held (0 for a fresh transmission).
func (h *HARQProcess) NofRetx() int { return h.nofRetx }

// TBSize returns the size in bytes of the transport block currently
// held.
func (h *HARQProcess) TBSize() int { return h.tbSize }

// PRBs returns the resource interval last assigned to this process.
func (h *HARQProcess) PRBs() Interval { return h.prbs }

// FindEmptyHARQ returns a pointer to the first empty process in the
// entity, or nil if the entity is fully occupied.
func FindEmptyHARQ(procs []HARQProcess) *HARQProcess {
	for i := range procs {
		if procs[i].Empty() {
			return &procs[i]
		}
	}
	return nil
}

// FindRetxHARQ returns a pointer to the first process awaiting
// retransmission, or nil if none need one.
func FindRetxHARQ(procs []HARQProcess) *HARQProcess {
	for i := range procs {
		if procs[i].AwaitingRetx() {
			return &procs[i]
		}
	}
	return nil
}
