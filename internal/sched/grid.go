package sched

// ChannelBitmap is the dual PRB/RBG view of a channel's occupied
// resources: PDSCH/PUSCH grants reserve PRBs directly, while RBG-level
// collision checks use the condensed view. Only the PRB bitmap is
// stored; RBGs condenses it afresh on every call, so the two views
// cannot drift apart.
type ChannelBitmap struct {
	prb PRBBitmap
	p   int
}

// NewChannelBitmap allocates a zeroed bitmap over rbWidth PRBs at RBG
// granularity p.
func NewChannelBitmap(rbWidth, p int) ChannelBitmap {
	return ChannelBitmap{prb: NewPRBBitmap(rbWidth), p: p}
}

// PRBs returns the PRB-granularity view.
func (c *ChannelBitmap) PRBs() *PRBBitmap { return &c.prb }

// RBGs returns a freshly condensed RBG-granularity view.
func (c *ChannelBitmap) RBGs() RBGBitmap { return RBGBitmapFromPRB(&c.prb, c.p) }

// Reserve marks PRBs [lo, hi) as occupied.
func (c *ChannelBitmap) Reserve(lo, hi int) { c.prb.SetInterval(lo, hi) }

// ReserveMask unions every PRB covered by mask into the channel's
// occupancy, not just a bounding interval — required for a
// non-contiguous grant (e.g. RBGs {0,1,5,6}), where reserving only the
// first contiguous run would leave the remaining RBGs free for a later
// grant to collide into undetected.
func (c *ChannelBitmap) ReserveMask(mask *PRBBitmap) { c.prb.UnionWith(mask) }

// Collides reports whether [lo, hi) overlaps an already-reserved PRB.
func (c *ChannelBitmap) Collides(lo, hi int) bool { return c.prb.IntersectsInterval(lo, hi) }

// Reset clears all reservations.
func (c *ChannelBitmap) Reset() { c.prb.Clear() }

// PendingAck is a scheduled HARQ feedback opportunity: which process
// and RNTI an ACK/NACK arriving in a future slot belongs to.
type PendingAck struct {
	RNTI   uint16
	HARQID int
	DAI    int
}

// PDSCHRecord is one admitted downlink grant kept in a slot for the
// duration it takes to relay it down to the PHY layer.
type PDSCHRecord struct {
	RNTI uint16
	DCI  DCI
}

// PUSCHRecord is one admitted uplink grant.
type PUSCHRecord struct {
	RNTI uint16
	DCI  DCI
}

// maxDCIPerSlot bounds the PDCCH ledger the way a real coreset bounds
// simultaneously-decodable candidates; exceeding it means the slot's
// control channel capacity, not just its CCE bitmap, has run out.
const maxDCIPerSlot = 64

// PDCCHLedger tracks the DCIs allocated to one coreset in one slot,
// supporting rollback of the most recent allocation when a downstream
// step (PDSCH/PUSCH resource allocation) subsequently fails — the
// grid must not retain a dangling PDCCH grant for data that was never
// admitted.
type PDCCHLedger struct {
	dcis []DCI
}

// AllocDCI appends a DCI to the ledger, reporting NoCCHSpace if the
// per-slot bound has been reached.
func (l *PDCCHLedger) AllocDCI(d DCI) AllocResult {
	if len(l.dcis) >= maxDCIPerSlot {
		return NoCCHSpace
	}
	l.dcis = append(l.dcis, d)
	return Success
}

// RemLastDCI undoes the most recent AllocDCI call. It is a no-op if
// the ledger is empty.
func (l *PDCCHLedger) RemLastDCI() {
	if len(l.dcis) == 0 {
		return
	}
	l.dcis = l.dcis[:len(l.dcis)-1]
}

// DCIs returns the DCIs allocated so far this slot.
func (l *PDCCHLedger) DCIs() []DCI { return l.dcis }

// Reset clears the ledger for reuse in a future frame.
func (l *PDCCHLedger) Reset() { l.dcis = l.dcis[:0] }

// SlotGrid is the per-slot resource state of one BWP: DL/UL PRB
// occupancy, the PDCCH ledgers (one per coreset), and the pending
// records awaiting relay or feedback. A SlotGrid is reused every
// SlotsPerFrame slots via Reset, not reallocated.
type SlotGrid struct {
	Slot SlotPoint
	DL   bool
	UL   bool

	DLBitmap ChannelBitmap
	ULBitmap ChannelBitmap

	pdcch map[int]*PDCCHLedger // coreset id -> ledger

	PDSCH []PDSCHRecord
	PUSCH []PUSCHRecord
	Acks  []PendingAck

	guard ResourceGuard
}

// NewSlotGrid allocates a SlotGrid sized for a BWP, with one PDCCH
// ledger per configured coreset.
func NewSlotGrid(bwp *BWPConfig) *SlotGrid {
	g := &SlotGrid{
		DLBitmap: NewChannelBitmap(bwp.RBWidth, bwp.P),
		ULBitmap: NewChannelBitmap(bwp.RBWidth, bwp.P),
		pdcch:    make(map[int]*PDCCHLedger, len(bwp.Coresets)),
	}
	for id := range bwp.Coresets {
		g.pdcch[id] = &PDCCHLedger{}
	}
	return g
}

// Ledger returns the PDCCH ledger for a coreset, or nil if the
// coreset is not configured in this grid.
func (g *SlotGrid) Ledger(coresetID int) *PDCCHLedger { return g.pdcch[coresetID] }

// Reset restores the grid to an empty state for reuse by a future
// frame at the same slot-in-frame position. Must only be called once
// the guard token for the prior use has been released.
func (g *SlotGrid) Reset(slot SlotPoint, dl, ul bool) {
	g.Slot = slot
	g.DL = dl
	g.UL = ul
	g.DLBitmap.Reset()
	g.ULBitmap.Reset()
	for _, l := range g.pdcch {
		l.Reset()
	}
	g.PDSCH = g.PDSCH[:0]
	g.PUSCH = g.PUSCH[:0]
	g.Acks = g.Acks[:0]
}

// Acquire takes the single-writer token for this slot (P5): exactly
// one allocator may hold it at a time.
func (g *SlotGrid) Acquire() Token { return g.guard.Acquire() }
