package sched

// ============================================================================
// BWP RESOURCE GRID RING
// ============================================================================
//
// BWPResourceGrid is a fixed-capacity ring of SlotGrid entries, one per
// slot-in-frame, reused frame after frame (§4.4). Unlike the
// power-of-2 SPSC ring this is adapted from, frame length is an
// arbitrary small integer (10 for 15kHz SCS, more for wider
// numerologies), so indexing is a plain modulo rather than a bit mask.
//
// Access model: the scheduler advances one slot at a time and is both
// the only reader and only writer of grid[now % N] for the duration of
// that slot. Neither the ring nor SlotAllocator takes the per-slot
// ResourceGuard token (SlotGrid.Acquire); exclusion comes only from
// the CarrierScheduler mutex held around every allocator call.

import "fmt"

// BWPResourceGrid holds SlotsPerFrame SlotGrids, indexed by slot
// number modulo frame length, alongside the BWP configuration they
// were built from.
type BWPResourceGrid struct {
	bwp   *BWPConfig
	grids []*SlotGrid
}

// NewBWPResourceGrid allocates a full ring of SlotGrids for a BWP.
func NewBWPResourceGrid(bwp *BWPConfig) *BWPResourceGrid {
	g := &BWPResourceGrid{
		bwp:   bwp,
		grids: make([]*SlotGrid, bwp.SlotsPerFrame),
	}
	for i := range g.grids {
		g.grids[i] = NewSlotGrid(bwp)
	}
	return g
}

// BWP returns the configuration the ring was built from.
func (g *BWPResourceGrid) BWP() *BWPConfig { return g.bwp }

// AdvanceTo resets the slot at position tti to a fresh state for this
// frame's pass through the ring, and returns it. Must be called
// exactly once per slot tick, before the slot's grid is used.
func (g *BWPResourceGrid) AdvanceTo(tti SlotPoint) *SlotGrid {
	idx := tti.FrameSlotIndex(g.bwp.SlotsPerFrame)
	grid := g.grids[idx]
	grid.Reset(tti, g.bwp.IsDL(idx), g.bwp.IsUL(idx))
	return grid
}

// At returns the SlotGrid currently occupying slot tti's ring
// position, without resetting it — used to look up a future slot's
// grid (e.g. to stage a PUSCH grant k2 slots ahead) or to revisit the
// slot that owns a pending HARQ feedback opportunity.
func (g *BWPResourceGrid) At(tti SlotPoint) *SlotGrid {
	idx := tti.FrameSlotIndex(g.bwp.SlotsPerFrame)
	return g.grids[idx]
}

// CheckOwnership reports an error if the grid currently at tti's ring
// position does not actually hold slot tti — a guard against scheduling
// a grant further into the future than the ring has capacity to stage.
func (g *BWPResourceGrid) CheckOwnership(tti SlotPoint) error {
	grid := g.At(tti)
	if grid.Slot != tti {
		return fmt.Errorf("sched: slot %d not resident in resource grid (holding %d)", uint32(tti), uint32(grid.Slot))
	}
	return nil
}
