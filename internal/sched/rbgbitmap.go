package sched

// RBGBitmap is the coarser cousin of PRBBitmap: one bit per
// resource-block group of size P (P ∈ {2,4,8,16}). It is the wire
// shape PUSCH grants and Msg3 reservations are expressed in.
type RBGBitmap struct {
	bits PRBBitmap // one "PRB" position per RBG here
	p    int
}

// NewRBGBitmap allocates a zeroed RBG bitmap covering nRBG groups of
// size p PRBs each.
func NewRBGBitmap(nRBG, p int) RBGBitmap {
	return RBGBitmap{bits: NewPRBBitmap(nRBG), p: p}
}

// RBGSize returns P, the number of PRBs per RBG.
func (r *RBGBitmap) RBGSize() int { return r.p }

// Len returns the number of RBGs.
func (r *RBGBitmap) Len() int { return r.bits.Len() }

// Test reports whether RBG i is set.
func (r *RBGBitmap) Test(i int) bool { return r.bits.Test(i) }

// SetInterval sets RBGs [lo, hi).
func (r *RBGBitmap) SetInterval(lo, hi int) { r.bits.SetInterval(lo, hi) }

// Count returns the number of set RBGs.
func (r *RBGBitmap) Count() int { return r.bits.Count() }

// AnySet reports whether any RBG is set.
func (r *RBGBitmap) AnySet() bool { return r.bits.AnySet() }

// UnionWith ORs other into r in place.
func (r *RBGBitmap) UnionWith(other *RBGBitmap) { r.bits.UnionWith(&other.bits) }

// Intersects reports whether r and other share a set RBG.
func (r *RBGBitmap) Intersects(other *RBGBitmap) bool { return r.bits.Intersects(&other.bits) }

// FirstFreeRun returns the lowest-starting run of k consecutive free
// RBGs.
func (r *RBGBitmap) FirstFreeRun(k int) (Interval, bool) { return r.bits.FirstFreeRun(k) }

// ToPRB expands the RBG bitmap into a PRB bitmap of rbWidth PRBs,
// setting every PRB covered by a set RBG.
func (r *RBGBitmap) ToPRB(rbWidth int) PRBBitmap {
	out := NewPRBBitmap(rbWidth)
	for i := 0; i < r.bits.Len(); i++ {
		if !r.bits.Test(i) {
			continue
		}
		lo := i * r.p
		hi := lo + r.p
		if hi > rbWidth {
			hi = rbWidth
		}
		out.SetInterval(lo, hi)
	}
	return out
}

// RBGBitmapFromPRB condenses a PRB bitmap into an RBG bitmap of group
// size p: an RBG is set iff any PRB within it is set.
func RBGBitmapFromPRB(prb *PRBBitmap, p int) RBGBitmap {
	nRBG := (prb.Len() + p - 1) / p
	out := NewRBGBitmap(nRBG, p)
	for g := 0; g < nRBG; g++ {
		lo := g * p
		hi := lo + p
		if prb.IntersectsInterval(lo, hi) {
			out.SetInterval(g, g+1)
		}
	}
	return out
}
