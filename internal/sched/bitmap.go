package sched

import "math/bits"

// ============================================================================
// PRB BITMAP — ordered bitset over physical resource blocks
// ============================================================================
//
// PRBBitmap is a word-sliced bitset, one bit per PRB. The hierarchical
// bitmap idiom in the retrieval pack's tick priority queues (group/lane/
// bucket masks scanned with math/bits for O(1) minimum-finding) is
// overkill for a few hundred PRBs — a single flat word slice is the
// right-sized version of the same technique. math/bits supplies the
// population count; FirstFreeRun and IntersectsInterval test bit by
// bit.

// Interval is a half-open [Start, Stop) range of PRB or RBG indices.
type Interval struct {
	Start int
	Stop  int
}

// Length returns the number of indices the interval covers.
func (iv Interval) Length() int {
	if iv.Stop <= iv.Start {
		return 0
	}
	return iv.Stop - iv.Start
}

// Empty reports whether the interval covers zero indices.
func (iv Interval) Empty() bool {
	return iv.Length() == 0
}

// PRBBitmap is a fixed-width bitset over PRB indices.
type PRBBitmap struct {
	words []uint64
	nbits int
}

// NewPRBBitmap allocates a zeroed bitmap of nbits positions.
func NewPRBBitmap(nbits int) PRBBitmap {
	return PRBBitmap{
		words: make([]uint64, (nbits+63)/64),
		nbits: nbits,
	}
}

// Len returns the number of addressable bit positions.
func (b *PRBBitmap) Len() int { return b.nbits }

// Clear resets every bit to zero.
func (b *PRBBitmap) Clear() {
	for i := range b.words {
		b.words[i] = 0
	}
}

// Test reports whether bit i is set.
func (b *PRBBitmap) Test(i int) bool {
	if i < 0 || i >= b.nbits {
		return false
	}
	return b.words[i/64]&(uint64(1)<<uint(i%64)) != 0
}

// SetInterval sets every bit in the half-open range [lo, hi).
func (b *PRBBitmap) SetInterval(lo, hi int) {
	if lo < 0 {
		lo = 0
	}
	if hi > b.nbits {
		hi = b.nbits
	}
	for i := lo; i < hi; i++ {
		b.words[i/64] |= uint64(1) << uint(i%64)
	}
}

// Count returns the number of set bits.
func (b *PRBBitmap) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// AnySet reports whether at least one bit is set.
func (b *PRBBitmap) AnySet() bool {
	for _, w := range b.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// UnionWith ORs other into b in place. Both bitmaps must share the
// same width.
func (b *PRBBitmap) UnionWith(other *PRBBitmap) {
	for i := range b.words {
		b.words[i] |= other.words[i]
	}
}

// Intersects reports whether b and other have any bit set in common.
func (b *PRBBitmap) Intersects(other *PRBBitmap) bool {
	for i := range b.words {
		if b.words[i]&other.words[i] != 0 {
			return true
		}
	}
	return false
}

// IntersectsInterval reports whether any bit within [lo, hi) is set.
func (b *PRBBitmap) IntersectsInterval(lo, hi int) bool {
	if hi > b.nbits {
		hi = b.nbits
	}
	for i := lo; i < hi; i++ {
		if b.Test(i) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of b.
func (b *PRBBitmap) Clone() PRBBitmap {
	w := make([]uint64, len(b.words))
	copy(w, b.words)
	return PRBBitmap{words: w, nbits: b.nbits}
}

// FirstFreeRun returns the lowest-starting interval of k consecutive
// clear bits, and false if no such run exists. A request for k==0
// always succeeds with the empty interval at position 0 (B3).
func (b *PRBBitmap) FirstFreeRun(k int) (Interval, bool) {
	if k == 0 {
		return Interval{0, 0}, true
	}
	run := 0
	start := 0
	for i := 0; i < b.nbits; i++ {
		if b.Test(i) {
			run = 0
			continue
		}
		if run == 0 {
			start = i
		}
		run++
		if run == k {
			return Interval{start, start + k}, true
		}
	}
	return Interval{}, false
}
