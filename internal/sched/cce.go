package sched

// Aggregation levels in 3GPP order, indexed 0..4.
var aggregationLevels = [5]int{1, 2, 4, 8, 16}

// CoresetConfig describes one PDCCH control-resource set.
type CoresetConfig struct {
	ID     int
	NumCCE int // total CCEs available in this coreset
}

// SearchSpaceConfig describes one PDCCH search space: which coreset it
// draws from, whether it is the common (RNTI-independent) type, and
// how many candidates exist at each aggregation level.
type SearchSpaceConfig struct {
	ID              int
	CoresetID       int
	Common          bool
	CandidateCounts [5]int // M_L per aggregation-level index
}

// cceHashA and cceHashD are the linear-congruential constants from the
// 3GPP 38.213 §10.1 Y(n, rnti) recursion used to seed UE-specific
// search-space candidate positions.
const (
	cceHashA = 39827
	cceHashD = 65537
)

// yValue computes Y(n, rnti): Y_{-1} = rnti, Y_k = (A * Y_{k-1}) mod D,
// evaluated through slot index n. Deterministic and side-effect free,
// matching P4 — identical inputs always produce an identical sequence.
func yValue(rnti uint16, n uint32) uint64 {
	y := uint64(rnti)
	for k := uint32(0); k <= n; k++ {
		y = (cceHashA * y) % cceHashD
	}
	return y
}

// CCECandidateTable is the precomputed, per-slot, per-aggregation-level
// list of legal CCE starting positions for one (coreset, search space,
// rnti) triple. UEBWPConfig caches one per UE search space and
// rebuilds it only when its configuration digest changes; the RAR path
// (SlotAllocator.AllocRAR) builds a fresh table on every call.
type CCECandidateTable struct {
	slotsPerFrame uint32
	byLevel       [][5][]int // indexed by slot-in-frame, then aggregation-level index
}

// BuildCCECandidateTable computes the full table for a coreset/search
// space/rnti triple over slotsPerFrame slots.
func BuildCCECandidateTable(coreset CoresetConfig, ss SearchSpaceConfig, rnti uint16, slotsPerFrame uint32) CCECandidateTable {
	t := CCECandidateTable{
		slotsPerFrame: slotsPerFrame,
		byLevel:       make([][5][]int, slotsPerFrame),
	}
	for n := uint32(0); n < slotsPerFrame; n++ {
		var y uint64
		if !ss.Common {
			y = yValue(rnti, n)
		}
		for li, L := range aggregationLevels {
			M := ss.CandidateCounts[li]
			if M <= 0 || coreset.NumCCE < L {
				continue
			}
			nSets := coreset.NumCCE / L
			if nSets == 0 {
				continue
			}
			list := make([]int, 0, M)
			for m := 0; m < M; m++ {
				start := L * int((y+uint64(m*nSets)/uint64(M))%uint64(nSets))
				list = append(list, start)
			}
			t.byLevel[n][li] = list
		}
	}
	return t
}

// Candidates returns the ordered candidate CCE starting positions for
// the given slot-in-frame and aggregation-level index (0..4).
func (t *CCECandidateTable) Candidates(slotInFrame uint32, levelIdx int) []int {
	if levelIdx < 0 || levelIdx > 4 {
		return nil
	}
	return t.byLevel[slotInFrame%t.slotsPerFrame][levelIdx]
}

// AggregationLevelIndex returns the table index (0..4) for an
// aggregation level value (1,2,4,8,16), or -1 if invalid.
func AggregationLevelIndex(level int) int {
	for i, l := range aggregationLevels {
		if l == level {
			return i
		}
	}
	return -1
}
