package sched

import "log"

// AllocResult names the outcome of an admission attempt.
type AllocResult int

const (
	Success AllocResult = iota
	SchCollision
	NoCCHSpace
	NoGrantSpace
	NoSchSpace
	NoRNTIOpportunity
	InvalidCoderate
)

func (r AllocResult) String() string {
	switch r {
	case Success:
		return "success"
	case SchCollision:
		return "sch_collision"
	case NoCCHSpace:
		return "no_cch_space"
	case NoGrantSpace:
		return "no_grant_space"
	case NoSchSpace:
		return "no_sch_space"
	case NoRNTIOpportunity:
		return "no_rnti_opportunity"
	case InvalidCoderate:
		return "invalid_coderate"
	default:
		return "unknown"
	}
}

func (r AllocResult) Ok() bool { return r == Success }

// msg3PRBWidth is the fixed PRB footprint assumed for one Msg3
// transmission when reserving PUSCH space ahead of an RAR grant.
const msg3PRBWidth = 3

// SchedulingPolicy names the aggregation level and search space a BWP
// uses for UE-specific DL/UL grants — parameterized rather than
// hard-coded, so a deployment can trade PDCCH robustness for capacity
// without touching allocator code (an Open Question decided in favor
// of a narrow seam instead of literal constants).
type SchedulingPolicy struct {
	AggregationIndex int // index into the aggregation-level table (0..4)
	UESearchSpaceID  int
}

// DefaultSchedulingPolicy matches the reference scheduler's hard-coded
// aggregation index 2 (row 2 of the {1,2,4,8,16} table -> level 4) and
// search space id 1, used for every UE-specific grant.
var DefaultSchedulingPolicy = SchedulingPolicy{AggregationIndex: 2, UESearchSpaceID: 1}

// RateStrategy picks an MCS/TBS pair for a grant. The default
// strategy below is the literal placeholder values used throughout —
// no MCS table, no channel-quality feedback loop; a real deployment
// would inject a CQI-driven strategy instead.
type RateStrategy interface {
	Rate(prbs Interval) (mcs, tbs int)
}

type literalRateStrategy struct{}

func (literalRateStrategy) Rate(Interval) (int, int) { return 20, 100 }

// DefaultRateStrategy is the literal MCS=20/TBS=100 strategy mirrored
// from the source allocator.
var DefaultRateStrategy RateStrategy = literalRateStrategy{}

// SlotUE bundles the per-user state an allocation call needs: the
// RNTI, its BWP projection, its DL/UL HARQ processes, and the slot
// offsets (in absolute SlotPoints) at which its PDCCH, PDSCH/PUSCH and
// feedback land.
type SlotUE struct {
	RNTI uint16
	Cfg  *UEBWPConfig

	HDL *HARQProcess
	HUL *HARQProcess

	PDCCHTTI SlotPoint
	PDSCHTTI SlotPoint
	PUSCHTTI SlotPoint
	UCITTI   SlotPoint

	MaxHARQTx int
}

// PendingRAR is an admitted random-access response awaiting a PDCCH
// grant and Msg3 reservation.
type PendingRAR struct {
	RARNTI   uint16
	NofGrants int
}

// SlotAllocator performs single-slot admission against a
// BWPResourceGrid, implementing the RAR/PDSCH/PUSCH allocation rules
// verbatim from the reference scheduler, including its PDCCH/PDSCH
// collision-check asymmetry (see AllocPDSCH).
type SlotAllocator struct {
	bwp      *BWPConfig
	grid     *BWPResourceGrid
	PDCCHTTI SlotPoint
	rate     RateStrategy
	policy   SchedulingPolicy
	logger   *log.Logger
}

// NewSlotAllocator builds an allocator over grid, anchored at pdcchTTI
// for this call's RAR admissions.
func NewSlotAllocator(grid *BWPResourceGrid, pdcchTTI SlotPoint) *SlotAllocator {
	return &SlotAllocator{
		bwp:      grid.BWP(),
		grid:     grid,
		PDCCHTTI: pdcchTTI,
		rate:     DefaultRateStrategy,
		policy:   DefaultSchedulingPolicy,
		logger:   log.Default(),
	}
}

// WithRateStrategy overrides the MCS/TBS strategy used by this
// allocator, returning the same instance for chaining.
func (a *SlotAllocator) WithRateStrategy(r RateStrategy) *SlotAllocator {
	a.rate = r
	return a
}

// WithPolicy overrides the aggregation level / search space used for
// UE-specific grants.
func (a *SlotAllocator) WithPolicy(p SchedulingPolicy) *SlotAllocator {
	a.policy = p
	return a
}

// AllocRAR admits a random-access response: a DL grant in the current
// PDCCH slot, plus a reserved Msg3 PUSCH opportunity four slots later
// for each UE being responded to. aggrIdx is an index into the
// aggregation-level table, the same convention AllocPDSCH/AllocPUSCH
// use via SchedulingPolicy.AggregationIndex (§4.9.1 names it aggr_idx).
func (a *SlotAllocator) AllocRAR(aggrIdx int, rar PendingRAR, interv Interval, nofGrants int) AllocResult {
	if aggrIdx < 0 || aggrIdx >= len(aggregationLevels) {
		return NoCCHSpace
	}
	aggLevel := aggregationLevels[aggrIdx]

	pdcchSlot := a.grid.At(a.PDCCHTTI)
	msg3Slot := a.grid.At(a.PDCCHTTI.Add(4))

	rarLedger := pdcchSlot.Ledger(a.raCoresetID())
	if rarLedger == nil || len(rarLedger.DCIs()) >= maxDCIPerSlot {
		a.logger.Printf("sched: maximum number of DL allocations reached")
		return NoGrantSpace
	}

	if pdcchSlot.DLBitmap.Collides(interv.Start, interv.Stop) {
		a.logger.Printf("sched: RAR RBG mask collides with a previous allocation")
		return SchCollision
	}

	totalULPRBs := msg3PRBWidth * nofGrants
	totalULRBGs := ceilDiv(totalULPRBs, a.bwp.P)
	msg3RBGs := msg3Slot.ULBitmap.RBGs()
	run, ok := msg3RBGs.FirstFreeRun(totalULRBGs)
	if !ok || run.Length() < totalULRBGs {
		a.logger.Printf("sched: no space in PUSCH for Msg3")
		return SchCollision
	}

	ss, ok := a.bwp.RARSearchSpace()
	if !ok {
		a.logger.Printf("sched: no RAR search space configured")
		return NoCCHSpace
	}
	coresetID := ss.CoresetID
	cceStart, ok := a.findCCE(pdcchSlot, coresetID, rar.RARNTI, ss.ID, aggLevel, true)
	if !ok {
		a.logger.Printf("sched: no space in PDCCH for DL tx")
		return NoCCHSpace
	}
	if res := rarLedger.AllocDCI(DCI{}); !res.Ok() {
		return res
	}

	dci, res := FillDCIRAR(rar.RARNTI, aggLevel, cceStart, interv, rarPayloadBits(nofGrants))
	if !res.Ok() {
		rarLedger.RemLastDCI()
		return InvalidCoderate
	}
	rarLedger.dcis[len(rarLedger.dcis)-1] = dci

	pdcchSlot.DLBitmap.Reserve(interv.Start, interv.Stop)

	msg3Lo := run.Start * a.bwp.P
	msg3Hi := run.Stop * a.bwp.P
	if msg3Hi > a.bwp.RBWidth {
		msg3Hi = a.bwp.RBWidth
	}
	msg3Slot.ULBitmap.Reserve(msg3Lo, msg3Hi)

	return Success
}

// rarPayloadBits is the literal placeholder payload size used to
// exercise the code-rate check for an RAR grant carrying nofGrants
// responses.
func rarPayloadBits(nofGrants int) int { return 56 * nofGrants }

// AllocPDSCH admits a downlink data grant for an already-connected UE.
func (a *SlotAllocator) AllocPDSCH(ue *SlotUE, dlGrant Interval) AllocResult {
	if ue.Cfg.BWP().BWPID != a.bwp.BWPID {
		a.logger.Printf("sched: rnti=0x%x attempted PDSCH allocation in inactive BWP id=%d", ue.RNTI, ue.Cfg.BWP().BWPID)
		return NoRNTIOpportunity
	}
	if ue.HDL == nil {
		a.logger.Printf("sched: rnti=0x%x has no available DL HARQ", ue.RNTI)
		return NoRNTIOpportunity
	}

	pdcchSlot := a.grid.At(ue.PDCCHTTI)
	pdschSlot := a.grid.At(ue.PDSCHTTI)
	uciSlot := a.grid.At(ue.UCITTI)

	if !pdschSlot.DL {
		a.logger.Printf("sched: attempted PDSCH allocation in TDD non-DL slot %d", uint32(pdschSlot.Slot))
		return NoSchSpace
	}

	coresetID := a.policy.coresetID(ue.Cfg.BWP(), a.policy.UESearchSpaceID)
	ledger := pdschSlot.Ledger(coresetID)
	if ledger == nil || len(ledger.DCIs()) >= maxDCIPerSlot {
		a.logger.Printf("sched: maximum number of DL allocations reached")
		return NoGrantSpace
	}

	// The reference scheduler checks the dl_grant against the PDCCH
	// slot's occupancy, not the PDSCH slot's — preserved verbatim even
	// where PDCCH and PDSCH land in different slots, matching the
	// original (possibly unintended) behavior.
	if pdcchSlot.DLBitmap.Collides(dlGrant.Start, dlGrant.Stop) {
		return SchCollision
	}

	aggIdx := a.policy.AggregationIndex
	cceStart, ok := a.findCCEForUE(ue.Cfg, pdcchSlot, coresetID, a.policy.UESearchSpaceID, aggregationLevels[aggIdx])
	if !ok {
		return NoCCHSpace
	}

	pdcchLedger := pdcchSlot.Ledger(coresetID)
	if res := pdcchLedger.AllocDCI(DCI{}); !res.Ok() {
		return res
	}

	// Synthesize the DCI from the prospective (not-yet-committed) HARQ
	// fields before touching ue.HDL: a fallible fill must run before any
	// state mutation so a rejection here leaves the grid and the HARQ
	// process exactly as they were at entry (P2).
	isNewTx := ue.HDL.Empty()
	tbs := ue.HDL.TBSize()
	ndi := ue.HDL.NDI()
	if isNewTx {
		tbs = a.tbsFor(dlGrant)
		ndi = !ndi
	}
	dai := countAcksForRNTI(uciSlot.Acks, ue.RNTI) % 4
	dci, res := FillDCIDL(ue.RNTI, aggregationLevels[aggIdx], cceStart, dlGrant, tbs*8, ue.HDL.ID, ndi, dai)
	if !res.Ok() {
		pdcchLedger.RemLastDCI()
		return res
	}
	dci.PUCCHResource = 0

	if isNewTx {
		ue.HDL.NewTx(ue.PDSCHTTI, tbs, dlGrant)
	} else {
		ue.HDL.Retx(ue.PDSCHTTI, dlGrant, a.tbsFor(dlGrant))
	}
	pdcchLedger.dcis[len(pdcchLedger.dcis)-1] = dci

	uciSlot.Acks = append(uciSlot.Acks, PendingAck{RNTI: ue.RNTI, HARQID: ue.HDL.ID, DAI: dci.DAI})

	pdschSlot.DLBitmap.Reserve(dlGrant.Start, dlGrant.Stop)
	pdschSlot.PDSCH = append(pdschSlot.PDSCH, PDSCHRecord{RNTI: ue.RNTI, DCI: dci})

	return Success
}

// AllocPUSCH admits an uplink grant for an already-connected UE.
func (a *SlotAllocator) AllocPUSCH(ue *SlotUE, ulMask RBGBitmap) AllocResult {
	if ue.HUL == nil {
		a.logger.Printf("sched: rnti=0x%x has no available UL HARQ", ue.RNTI)
		return NoRNTIOpportunity
	}

	pdcchSlot := a.grid.At(ue.PDCCHTTI)
	puschSlot := a.grid.At(ue.PUSCHTTI)

	if !puschSlot.UL {
		a.logger.Printf("sched: attempted PUSCH allocation in TDD non-UL slot %d", uint32(puschSlot.Slot))
		return NoSchSpace
	}

	coresetID := a.policy.coresetID(ue.Cfg.BWP(), a.policy.UESearchSpaceID)
	pdcchLedger := pdcchSlot.Ledger(coresetID)
	if pdcchLedger == nil || len(pdcchLedger.DCIs()) >= maxDCIPerSlot {
		a.logger.Printf("sched: maximum number of UL allocations reached")
		return NoGrantSpace
	}

	puschRBGs := puschSlot.ULBitmap.RBGs()
	if puschRBGs.Intersects(&ulMask) {
		return SchCollision
	}

	aggIdx := a.policy.AggregationIndex
	cceStart, ok := a.findCCEForUE(ue.Cfg, pdcchSlot, coresetID, a.policy.UESearchSpaceID, aggregationLevels[aggIdx])
	if !ok {
		return NoCCHSpace
	}
	if res := pdcchLedger.AllocDCI(DCI{}); !res.Ok() {
		return res
	}

	// ulInterv spans the lowest to highest set RBG in the mask, used to
	// size the transport block and the DCI's resource-allocation field;
	// the bitmap reservation below unions the full mask, not just this
	// span, so a non-contiguous grant leaves no gap unreserved.
	ulInterv := rbgMaskExtent(&ulMask, a.bwp.P, a.bwp.RBWidth)

	// Same ordering as AllocPDSCH: compute the prospective HARQ fields
	// and synthesize the DCI before committing them to ue.HUL.
	isNewTx := ue.HUL.Empty()
	tbs := ue.HUL.TBSize()
	ndi := ue.HUL.NDI()
	if isNewTx {
		tbs = a.tbsFor(ulInterv)
		ndi = !ndi
	}
	dci, res := FillDCIUL(ue.RNTI, aggregationLevels[aggIdx], cceStart, ulInterv, tbs*8, ue.HUL.ID, ndi)
	if !res.Ok() {
		pdcchLedger.RemLastDCI()
		return res
	}

	if isNewTx {
		ue.HUL.NewTx(ue.PUSCHTTI, tbs, ulInterv)
	} else {
		ue.HUL.Retx(ue.PUSCHTTI, ulInterv, a.tbsFor(ulInterv))
	}
	pdcchLedger.dcis[len(pdcchLedger.dcis)-1] = dci

	maskPRB := ulMask.ToPRB(a.bwp.RBWidth)
	puschSlot.ULBitmap.ReserveMask(&maskPRB)
	puschSlot.PUSCH = append(puschSlot.PUSCH, PUSCHRecord{RNTI: ue.RNTI, DCI: dci})

	return Success
}

func (a *SlotAllocator) tbsFor(prbs Interval) int {
	_, tbs := a.rate.Rate(prbs)
	return tbs
}

// raCoresetID returns the coreset backing the BWP's RAR search space.
func (a *SlotAllocator) raCoresetID() int {
	ss, ok := a.bwp.RARSearchSpace()
	if !ok {
		return -1
	}
	return ss.CoresetID
}

func (p SchedulingPolicy) coresetID(bwp *BWPConfig, ssID int) int {
	ss, ok := bwp.SearchSpaces[ssID]
	if !ok {
		return -1
	}
	return ss.CoresetID
}

// findCCE locates the first unoccupied candidate CCE position for
// (rnti, searchSpaceID, aggLevel) against the slot's ledger occupancy,
// building the candidate table fresh. Used for RAR grants, which have
// no per-UE UEBWPConfig to draw a cached table from.
func (a *SlotAllocator) findCCE(slot *SlotGrid, coresetID int, rnti uint16, ssID, aggLevel int, rarSearchSpace bool) (int, bool) {
	ss, ok := a.bwp.SearchSpaces[ssID]
	if !ok {
		return 0, false
	}
	cs, ok := a.bwp.Coresets[coresetID]
	if !ok {
		return 0, false
	}
	table := BuildCCECandidateTable(cs, ss, rnti, a.bwp.SlotsPerFrame)
	return a.searchTable(&table, slot, coresetID, aggLevel)
}

// findCCEForUE locates the first unoccupied candidate CCE position
// for a UE-specific grant, reusing the candidate table already cached
// in the user's UEBWPConfig rather than recomputing it.
func (a *SlotAllocator) findCCEForUE(cfg *UEBWPConfig, slot *SlotGrid, coresetID, ssID, aggLevel int) (int, bool) {
	table := cfg.CCEPositions(ssID)
	if table == nil {
		return 0, false
	}
	return a.searchTable(table, slot, coresetID, aggLevel)
}

func (a *SlotAllocator) searchTable(table *CCECandidateTable, slot *SlotGrid, coresetID, aggLevel int) (int, bool) {
	levelIdx := AggregationLevelIndex(aggLevel)
	if levelIdx < 0 {
		return 0, false
	}
	slotInFrame := uint32(slot.Slot) % a.bwp.SlotsPerFrame
	candidates := table.Candidates(slotInFrame, levelIdx)
	occupied := occupiedCCEs(slot.Ledger(coresetID))
	for _, start := range candidates {
		if !rangeOverlaps(occupied, start, aggLevel) {
			return start, true
		}
	}
	return 0, false
}

func occupiedCCEs(ledger *PDCCHLedger) []Interval {
	if ledger == nil {
		return nil
	}
	out := make([]Interval, 0, len(ledger.DCIs()))
	for _, d := range ledger.DCIs() {
		out = append(out, Interval{Start: d.CCEStart, Stop: d.CCEStart + d.AggregationLevel})
	}
	return out
}

func rangeOverlaps(occupied []Interval, start, length int) bool {
	for _, iv := range occupied {
		if start < iv.Stop && iv.Start < start+length {
			return true
		}
	}
	return false
}

func countAcksForRNTI(acks []PendingAck, rnti uint16) int {
	n := 0
	for _, a := range acks {
		if a.RNTI == rnti {
			n++
		}
	}
	return n
}

// rbgMaskExtent returns the PRB interval spanning the lowest to
// highest set RBG in mask (inclusive), clipped to rbWidth. It does not
// imply every PRB in that span is set — callers that need to reserve
// or test occupancy use the mask's actual PRB expansion (ToPRB/
// ReserveMask), not this bounding interval.
func rbgMaskExtent(mask *RBGBitmap, p, rbWidth int) Interval {
	lo, hi := -1, -1
	for i := 0; i < mask.Len(); i++ {
		if mask.Test(i) {
			if lo == -1 {
				lo = i
			}
			hi = i
		}
	}
	if lo == -1 {
		return Interval{}
	}
	start := lo * p
	stop := (hi + 1) * p
	if stop > rbWidth {
		stop = rbWidth
	}
	return Interval{Start: start, Stop: stop}
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
