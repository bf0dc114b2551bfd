package sched

import (
	"fmt"
	"log"
	"sync"
)

// CellConfigInput is the RRC-supplied initial cell/BWP configuration
// for one carrier (§6 cell_cfg).
type CellConfigInput struct {
	Cell CellConfig
	BWPs []BWPParams
}

// UEConfigInput is the RRC-supplied per-user PHY configuration
// (§6 ue_cfg): which BWP the user is active on, its search spaces,
// and its maximum HARQ retransmission count.
type UEConfigInput struct {
	RNTI         uint16
	ActiveBWPID  int
	SearchSpaces []SearchSpaceConfig
	MaxHARQTx    int
}

// RARRequest is a pending Msg2/Msg3 admission request fed in through
// dl_rach_info (§6). AggrIdx indexes the aggregation-level table, the
// same convention AllocPDSCH/AllocPUSCH use.
type RARRequest struct {
	RARNTI    uint16
	NofGrants int
	PRBs      Interval
	AggrIdx   int
}

// DLTick is the read-only projection of a downlink slot handed back
// to the PHY by DLSched.
type DLTick struct {
	Slot   SlotPoint
	DCIs   []DCI
	PDSCH  []PDSCHRecord
}

// ULTick is the read-only projection of an uplink slot handed back to
// the PHY by ULSched.
type ULTick struct {
	Slot  SlotPoint
	DCIs  []DCI
	PUSCH []PUSCHRecord
}

// CarrierScheduler is the external facade of one carrier's scheduler
// instance: the single mutex-guarded entry point RRC, PHY feedback and
// PHY tick requests all go through (§5, §6). It owns the UE database
// and, per configured BWP, a BWPResourceGrid.
type CarrierScheduler struct {
	mu sync.Mutex

	cell CellConfig
	bwps map[int]*BWPConfig
	grids map[int]*BWPResourceGrid

	ues *ueDB

	lastGenerated SlotPoint
	generated     bool

	logger *log.Logger
}

// NewCarrierScheduler constructs an un-configured scheduler; CellCfg
// must be called before any allocation or tick operation.
func NewCarrierScheduler() *CarrierScheduler {
	return &CarrierScheduler{
		bwps:   make(map[int]*BWPConfig),
		grids:  make(map[int]*BWPResourceGrid),
		ues:    newUEDB(64),
		logger: log.Default(),
	}
}

// CellCfg installs the cell and BWP configuration. Must precede any
// UECfg or allocation call (§6).
func (c *CarrierScheduler) CellCfg(cfg CellConfigInput) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cell = cfg.Cell
	c.bwps = make(map[int]*BWPConfig, len(cfg.BWPs))
	c.grids = make(map[int]*BWPResourceGrid, len(cfg.BWPs))
	for _, bwpParams := range cfg.BWPs {
		bwp := NewBWPConfig(cfg.Cell, bwpParams)
		c.bwps[bwp.BWPID] = bwp
		c.grids[bwp.BWPID] = NewBWPResourceGrid(bwp)
	}
}

// UECfg creates or reconfigures a user (§6 ue_cfg).
func (c *CarrierScheduler) UECfg(in UEConfigInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	bwp, ok := c.bwps[in.ActiveBWPID]
	if !ok {
		return fmt.Errorf("sched: unknown bwp id %d for rnti=0x%x", in.ActiveBWPID, in.RNTI)
	}

	state, existed := c.ues.Get(in.RNTI)
	if !existed {
		state = &UEState{RNTI: in.RNTI}
	}
	state.MaxHARQTx = in.MaxHARQTx
	if state.DLHARQ == nil {
		state.DLHARQ = NewHARQEntity(16, in.MaxHARQTx)
		state.ULHARQ = NewHARQEntity(16, in.MaxHARQTx)
	}
	if state.BWPCfg == nil {
		state.BWPCfg = BuildUEBWPConfig(in.RNTI, bwp, in.SearchSpaces)
	} else {
		state.BWPCfg.Refresh(bwp, in.SearchSpaces)
	}

	c.ues.Put(in.RNTI, state)
	return nil
}

// UERem tears down a user (§6 ue_rem).
func (c *CarrierScheduler) UERem(rnti uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ues.Remove(rnti)
}

// BearerUECfg and BearerUERem are per-logical-channel lifecycle hooks.
// The admission logic in this scheduler does not yet route by bearer,
// so these calls only validate the RNTI is known; a future logical-
// channel scheduler slots in here without changing this interface.
func (c *CarrierScheduler) BearerUECfg(rnti uint16, lcid int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ues.Get(rnti); !ok {
		return fmt.Errorf("sched: bearer cfg for unknown rnti=0x%x", rnti)
	}
	return nil
}

func (c *CarrierScheduler) BearerUERem(rnti uint16, lcid int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ues.Get(rnti); !ok {
		return fmt.Errorf("sched: bearer rem for unknown rnti=0x%x", rnti)
	}
	return nil
}

// DLAckInfo records DL HARQ feedback (§6 dl_ack_info).
func (c *CarrierScheduler) DLAckInfo(rnti uint16, harqID int, ok bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, found := c.ues.Get(rnti)
	if !found || harqID < 0 || harqID >= len(state.DLHARQ) {
		return fmt.Errorf("sched: dl_ack_info for unknown rnti/harq 0x%x/%d", rnti, harqID)
	}
	state.DLHARQ[harqID].Ack(ok)
	return nil
}

// ULCRCInfo records UL HARQ feedback (§6 ul_crc_info).
func (c *CarrierScheduler) ULCRCInfo(rnti uint16, harqID int, ok bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, found := c.ues.Get(rnti)
	if !found || harqID < 0 || harqID >= len(state.ULHARQ) {
		return fmt.Errorf("sched: ul_crc_info for unknown rnti/harq 0x%x/%d", rnti, harqID)
	}
	state.ULHARQ[harqID].Ack(ok)
	return nil
}

// channel-quality/measurement feedback (dl_cqi_info, dl_pmi_info,
// dl_ri_info, ul_snr_info) and buffer-status feedback (ul_bsr,
// ul_phr, ul_sr_info) are accepted and validated against the UE
// database only: the reported values are not stored in UEState and do
// not reach the RateStrategy, which uses literal MCS/TBS values (§9).

type CQIReport struct {
	RNTI uint16
	CQI  int
}

func (c *CarrierScheduler) DLCQIInfo(r CQIReport) error { return c.touchUE(r.RNTI, "dl_cqi_info") }

type PMIReport struct {
	RNTI uint16
	PMI  int
}

func (c *CarrierScheduler) DLPMIInfo(r PMIReport) error { return c.touchUE(r.RNTI, "dl_pmi_info") }

type RIReport struct {
	RNTI uint16
	RI   int
}

func (c *CarrierScheduler) DLRIInfo(r RIReport) error { return c.touchUE(r.RNTI, "dl_ri_info") }

type SNRReport struct {
	RNTI uint16
	SNR  float64
}

func (c *CarrierScheduler) ULSNRInfo(r SNRReport) error { return c.touchUE(r.RNTI, "ul_snr_info") }

func (c *CarrierScheduler) ULBSR(rnti uint16, lcg, bsr int) error { return c.touchUE(rnti, "ul_bsr") }

func (c *CarrierScheduler) ULPHR(rnti uint16, phr int) error { return c.touchUE(rnti, "ul_phr") }

func (c *CarrierScheduler) ULSRInfo(slot SlotPoint, rnti uint16) error {
	return c.touchUE(rnti, "ul_sr_info")
}

func (c *CarrierScheduler) touchUE(rnti uint16, op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ues.Get(rnti); !ok {
		return fmt.Errorf("sched: %s for unknown rnti=0x%x", op, rnti)
	}
	return nil
}

// DLRachInfo admits a random-access response request (§6
// dl_rach_info), reserving the RAR grant and its Msg3 PUSCH
// opportunity against the requested BWP's resource grid.
func (c *CarrierScheduler) DLRachInfo(bwpID int, req RARRequest) AllocResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	grid, ok := c.grids[bwpID]
	if !ok {
		return NoRNTIOpportunity
	}
	alloc := NewSlotAllocator(grid, c.lastGenerated)
	res := alloc.AllocRAR(req.AggrIdx, PendingRAR{RARNTI: req.RARNTI, NofGrants: req.NofGrants}, req.PRBs, req.NofGrants)
	if !res.Ok() {
		dropError(fmt.Sprintf("sched: dl_rach_info rejected (ra-rnti=0x%x): %s", req.RARNTI, res), nil)
	}
	return res
}

// NewTTI advances every configured BWP's resource grid to slot tti,
// resetting the ring position that slot now occupies. Idempotent per
// tti: a repeated call for an already-generated tti is a no-op,
// matching the is_generated(tti) gate in §5.
func (c *CarrierScheduler) NewTTI(tti SlotPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generated && tti == c.lastGenerated {
		return
	}
	for _, grid := range c.grids {
		grid.AdvanceTo(tti)
	}
	c.lastGenerated = tti
	c.generated = true
}

// DLSched returns a read-only projection of bwpID's SlotGrid at slot,
// copied into the caller's output (§6 dl_sched).
func (c *CarrierScheduler) DLSched(bwpID int, slot SlotPoint) (DLTick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	grid, ok := c.grids[bwpID]
	if !ok {
		return DLTick{}, fmt.Errorf("sched: dl_sched for unknown bwp id %d", bwpID)
	}
	if err := grid.CheckOwnership(slot); err != nil {
		return DLTick{}, err
	}
	g := grid.At(slot)
	tick := DLTick{Slot: slot, PDSCH: append([]PDSCHRecord(nil), g.PDSCH...)}
	for _, l := range g.pdcch {
		for _, d := range l.DCIs() {
			if d.Kind == DCIDL || d.Kind == DCIRAR {
				tick.DCIs = append(tick.DCIs, d)
			}
		}
	}
	return tick, nil
}

// ULSched returns a read-only projection of bwpID's SlotGrid at slot
// (§6 ul_sched).
func (c *CarrierScheduler) ULSched(bwpID int, slot SlotPoint) (ULTick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	grid, ok := c.grids[bwpID]
	if !ok {
		return ULTick{}, fmt.Errorf("sched: ul_sched for unknown bwp id %d", bwpID)
	}
	if err := grid.CheckOwnership(slot); err != nil {
		return ULTick{}, err
	}
	g := grid.At(slot)
	tick := ULTick{Slot: slot, PUSCH: append([]PUSCHRecord(nil), g.PUSCH...)}
	for _, l := range g.pdcch {
		for _, d := range l.DCIs() {
			if d.Kind == DCIUL {
				tick.DCIs = append(tick.DCIs, d)
			}
		}
	}
	return tick, nil
}

// AllocPDSCH admits a downlink grant for rnti against bwpID's resource
// grid, run with the scheduler mutex held for the duration of the
// call per §5.
func (c *CarrierScheduler) AllocPDSCH(bwpID int, rnti uint16, pdcchTTI, pdschTTI, uciTTI SlotPoint, dlGrant Interval) (AllocResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	grid, ok := c.grids[bwpID]
	if !ok {
		return NoRNTIOpportunity, fmt.Errorf("sched: unknown bwp id %d", bwpID)
	}
	state, ok := c.ues.Get(rnti)
	if !ok {
		return NoRNTIOpportunity, fmt.Errorf("sched: alloc_pdsch for unknown rnti=0x%x", rnti)
	}
	ue := &SlotUE{
		RNTI: rnti, Cfg: state.BWPCfg,
		HDL: pickHARQ(state.DLHARQ), HUL: pickHARQ(state.ULHARQ),
		PDCCHTTI: pdcchTTI, PDSCHTTI: pdschTTI, UCITTI: uciTTI,
		MaxHARQTx: state.MaxHARQTx,
	}
	alloc := NewSlotAllocator(grid, pdcchTTI)
	return alloc.AllocPDSCH(ue, dlGrant), nil
}

// AllocPUSCH admits an uplink grant for rnti against bwpID's resource
// grid.
func (c *CarrierScheduler) AllocPUSCH(bwpID int, rnti uint16, pdcchTTI, puschTTI SlotPoint, ulMask RBGBitmap) (AllocResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	grid, ok := c.grids[bwpID]
	if !ok {
		return NoRNTIOpportunity, fmt.Errorf("sched: unknown bwp id %d", bwpID)
	}
	state, ok := c.ues.Get(rnti)
	if !ok {
		return NoRNTIOpportunity, fmt.Errorf("sched: alloc_pusch for unknown rnti=0x%x", rnti)
	}
	ue := &SlotUE{
		RNTI: rnti, Cfg: state.BWPCfg,
		HDL: pickHARQ(state.DLHARQ), HUL: pickHARQ(state.ULHARQ),
		PDCCHTTI: pdcchTTI, PUSCHTTI: puschTTI,
		MaxHARQTx: state.MaxHARQTx,
	}
	alloc := NewSlotAllocator(grid, pdcchTTI)
	return alloc.AllocPUSCH(ue, ulMask), nil
}

// pickHARQ selects the process to use for a new allocation: a
// process awaiting retransmission takes priority over starting a
// fresh transmission on an empty one.
func pickHARQ(procs []HARQProcess) *HARQProcess {
	if p := FindRetxHARQ(procs); p != nil {
		return p
	}
	return FindEmptyHARQ(procs)
}

// UE returns the tracked state for rnti, used by the harness to build
// a SlotUE for an allocation call.
func (c *CarrierScheduler) UE(rnti uint16) (*UEState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ues.Get(rnti)
}
