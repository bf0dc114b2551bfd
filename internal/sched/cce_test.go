package sched

import "testing"

func TestYValueDeterministic(t *testing.T) {
	a := yValue(0x1234, 7)
	b := yValue(0x1234, 7)
	if a != b {
		t.Fatalf("yValue not deterministic: %d != %d", a, b)
	}
}

func TestAggregationLevelIndex(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 4: 2, 8: 3, 16: 4, 3: -1, 0: -1, 32: -1}
	for level, want := range cases {
		if got := AggregationLevelIndex(level); got != want {
			t.Fatalf("AggregationLevelIndex(%d) = %d, want %d", level, got, want)
		}
	}
}

// TestBuildCCECandidateTableDeterministic is P4: identical inputs
// produce an identical candidate list for every slot.
func TestBuildCCECandidateTableDeterministic(t *testing.T) {
	cs := CoresetConfig{ID: 0, NumCCE: 16}
	ss := SearchSpaceConfig{ID: 1, CoresetID: 0, Common: false, CandidateCounts: [5]int{0, 4, 2, 1, 0}}

	t1 := BuildCCECandidateTable(cs, ss, 0x4601, 10)
	t2 := BuildCCECandidateTable(cs, ss, 0x4601, 10)

	for slot := uint32(0); slot < 10; slot++ {
		for lvl := 0; lvl < 5; lvl++ {
			c1 := t1.Candidates(slot, lvl)
			c2 := t2.Candidates(slot, lvl)
			if len(c1) != len(c2) {
				t.Fatalf("slot %d level %d: length mismatch %d vs %d", slot, lvl, len(c1), len(c2))
			}
			for i := range c1 {
				if c1[i] != c2[i] {
					t.Fatalf("slot %d level %d candidate %d mismatch: %d vs %d", slot, lvl, i, c1[i], c2[i])
				}
			}
		}
	}
}

func TestBuildCCECandidateTableSkipsOversizedLevel(t *testing.T) {
	cs := CoresetConfig{ID: 0, NumCCE: 6}
	ss := SearchSpaceConfig{ID: 1, CoresetID: 0, CandidateCounts: [5]int{0, 0, 0, 1, 0}} // level 8 needs 8 CCEs
	table := BuildCCECandidateTable(cs, ss, 0x10, 10)
	if c := table.Candidates(0, AggregationLevelIndex(8)); c != nil {
		t.Fatalf("expected no candidates for a level exceeding coreset size, got %v", c)
	}
}

func TestBuildCCECandidateTableCommonSearchSpaceIgnoresRNTI(t *testing.T) {
	cs := CoresetConfig{ID: 0, NumCCE: 16}
	ss := SearchSpaceConfig{ID: 0, CoresetID: 0, Common: true, CandidateCounts: [5]int{4, 2, 1, 0, 0}}

	t1 := BuildCCECandidateTable(cs, ss, 0x1111, 10)
	t2 := BuildCCECandidateTable(cs, ss, 0x2222, 10)

	c1 := t1.Candidates(0, 0)
	c2 := t2.Candidates(0, 0)
	if len(c1) != len(c2) {
		t.Fatalf("common search space candidate count should not depend on rnti")
	}
	for i := range c1 {
		if c1[i] != c2[i] {
			t.Fatalf("common search space candidates depend on rnti at %d: %d vs %d", i, c1[i], c2[i])
		}
	}
}

func TestCCECandidatesOutOfRangeLevel(t *testing.T) {
	table := BuildCCECandidateTable(CoresetConfig{NumCCE: 16}, SearchSpaceConfig{}, 1, 10)
	if c := table.Candidates(0, -1); c != nil {
		t.Fatalf("expected nil for invalid level index")
	}
	if c := table.Candidates(0, 5); c != nil {
		t.Fatalf("expected nil for out-of-range level index")
	}
}
