// Package sched implements the slot-level BWP resource grid, PDCCH
// candidate search, HARQ bookkeeping and admission logic shared by the
// NR downlink/uplink scheduler.
package sched

// SlotPoint is a monotonically advancing logical slot tick. It wraps
// around a large modulus (see slotWrapModulus) rather than overflowing,
// and is always compared by signed difference so wrap-around never
// produces a spurious ordering — the same trick the hierarchical tick
// queues in the retrieval pack use to fold a tick into a fixed number
// of buckets without caring where the absolute counter currently sits.
type SlotPoint uint32

// slotWrapModulus bounds how far SlotPoint can count before wrapping.
// 1024 frames matches the SFN range a real NR cell uses; well beyond
// any scheduling horizon this allocator ever looks ahead or behind.
const slotWrapModulus = 1024 * 320

// Add returns the slot n ticks after s, wrapping at slotWrapModulus.
func (s SlotPoint) Add(n uint32) SlotPoint {
	return SlotPoint((uint32(s) + n) % slotWrapModulus)
}

// Sub returns s-o as a signed tick difference, tolerant of wrap-around
// in either direction.
func (s SlotPoint) Sub(o SlotPoint) int32 {
	d := int32((uint32(s) + slotWrapModulus - uint32(o)) % slotWrapModulus)
	if d >= slotWrapModulus/2 {
		d -= slotWrapModulus
	}
	return d
}

// FrameSlotIndex maps the slot point onto its position within a frame
// of slotsPerFrame slots — the index used by BWPResourceGrid to pick a
// ring slot.
func (s SlotPoint) FrameSlotIndex(slotsPerFrame uint32) uint32 {
	return uint32(s) % slotsPerFrame
}

// Before reports whether s occurred strictly before o, tolerant of
// wrap-around.
func (s SlotPoint) Before(o SlotPoint) bool {
	return s.Sub(o) < 0
}
