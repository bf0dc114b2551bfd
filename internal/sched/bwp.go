package sched

// CellConfig carries the per-cell parameters a BWPConfig is derived
// from: carrier width and the TDD UL/DL pattern.
type CellConfig struct {
	NofPRB int
	// TDDULDLPattern gives, for each slot-in-frame, whether that slot
	// carries DL and/or UL traffic (special slots may carry both).
	TDDULDLPattern []TDDSlotDirection
}

// TDDSlotDirection records a slot's scheduled directions.
type TDDSlotDirection struct {
	DL bool
	UL bool
}

// BWPParams is the bandwidth-part configuration a BWPConfig derives
// from: width, starting RB, and the coresets/search spaces configured
// for this BWP.
type BWPParams struct {
	BWPID        int
	StartRB      int
	RBWidth      int
	Coresets     []CoresetConfig
	SearchSpaces []SearchSpaceConfig
	// RARSearchSpaceID names the search space used for Msg2/Msg3
	// scheduling (the common search space carrying RA-RNTI grants).
	RARSearchSpaceID int
}

// rbgSizeFor derives P from the BWP width, following the 3GPP sizing
// table: wider BWPs get coarser RBGs to bound PDCCH/PDSCH signalling
// overhead.
func rbgSizeFor(rbWidth int) int {
	switch {
	case rbWidth <= 36:
		return 2
	case rbWidth <= 72:
		return 4
	case rbWidth <= 144:
		return 8
	default:
		return 16
	}
}

// BWPConfig holds the cell/BWP invariants derived once at
// configuration time: RBG size P, RBG count N_rbg, the TDD direction
// predicate, and the coresets/search spaces available in this BWP.
// Immutable after construction and safe to share by read-only
// reference across every UE admitted to the BWP (§4.4, §9).
type BWPConfig struct {
	BWPID         int
	StartRB       int
	RBWidth       int
	P             int
	NRBG          int
	SlotsPerFrame uint32

	tdd []TDDSlotDirection

	Coresets         map[int]CoresetConfig
	SearchSpaces     map[int]SearchSpaceConfig
	RARSearchSpaceID int
}

// NewBWPConfig derives a BWPConfig from a cell and BWP configuration.
func NewBWPConfig(cell CellConfig, bwp BWPParams) *BWPConfig {
	p := rbgSizeFor(bwp.RBWidth)
	nRBG := (bwp.RBWidth + bwp.StartRB%p + p - 1) / p

	cfg := &BWPConfig{
		BWPID:            bwp.BWPID,
		StartRB:          bwp.StartRB,
		RBWidth:          bwp.RBWidth,
		P:                p,
		NRBG:             nRBG,
		SlotsPerFrame:    uint32(len(cell.TDDULDLPattern)),
		tdd:              cell.TDDULDLPattern,
		Coresets:         make(map[int]CoresetConfig, len(bwp.Coresets)),
		SearchSpaces:     make(map[int]SearchSpaceConfig, len(bwp.SearchSpaces)),
		RARSearchSpaceID: bwp.RARSearchSpaceID,
	}
	for _, cs := range bwp.Coresets {
		cfg.Coresets[cs.ID] = cs
	}
	for _, ss := range bwp.SearchSpaces {
		cfg.SearchSpaces[ss.ID] = ss
	}
	return cfg
}

// IsDL reports whether the given slot-in-frame carries DL traffic per
// the cell's TDD pattern.
func (c *BWPConfig) IsDL(slotInFrame uint32) bool {
	if int(slotInFrame) >= len(c.tdd) {
		return false
	}
	return c.tdd[slotInFrame].DL
}

// IsUL reports whether the given slot-in-frame carries UL traffic per
// the cell's TDD pattern.
func (c *BWPConfig) IsUL(slotInFrame uint32) bool {
	if int(slotInFrame) >= len(c.tdd) {
		return false
	}
	return c.tdd[slotInFrame].UL
}

// RARSearchSpace returns the search-space configuration used to
// schedule Msg2/Msg3, and whether it is configured.
func (c *BWPConfig) RARSearchSpace() (SearchSpaceConfig, bool) {
	ss, ok := c.SearchSpaces[c.RARSearchSpaceID]
	return ss, ok
}

// AllDL builds a TDD pattern where every slot carries both directions
// (the common FDD/lab-test configuration used in scenarios S1-S6).
func AllDL(n int) []TDDSlotDirection {
	out := make([]TDDSlotDirection, n)
	for i := range out {
		out[i] = TDDSlotDirection{DL: true, UL: true}
	}
	return out
}
