package sched

import "testing"

func TestUEBWPConfigBuildsCandidateTables(t *testing.T) {
	cfg := testBWPConfig(t, 10, 16)
	ss := cfg.searchSpacesList()
	u := BuildUEBWPConfig(0x4601, cfg, ss)
	if table := u.CCEPositions(1); table == nil {
		t.Fatalf("expected a candidate table for search space 1")
	}
	if table := u.CCEPositions(99); table != nil {
		t.Fatalf("expected nil for an unconfigured search space")
	}
}

func TestUEBWPConfigRefreshSkipsUnchangedConfig(t *testing.T) {
	cfg := testBWPConfig(t, 10, 16)
	ss := cfg.searchSpacesList()
	u := BuildUEBWPConfig(0x4601, cfg, ss)

	if changed := u.Refresh(cfg, ss); changed {
		t.Fatalf("Refresh() reported a change for an identical configuration")
	}
}

func TestUEBWPConfigRefreshRebuildsOnChange(t *testing.T) {
	cfg := testBWPConfig(t, 10, 16)
	ss := cfg.searchSpacesList()
	u := BuildUEBWPConfig(0x4601, cfg, ss)

	ss[0].CandidateCounts[0] = 1 // mutate a copy, distinct from the cached digest
	if changed := u.Refresh(cfg, ss); !changed {
		t.Fatalf("Refresh() did not detect a changed search space configuration")
	}
}

func TestConfigDigestSensitiveToRNTI(t *testing.T) {
	cfg := testBWPConfig(t, 10, 16)
	ss := cfg.searchSpacesList()
	d1 := configDigest(0x1111, cfg, ss)
	d2 := configDigest(0x2222, cfg, ss)
	if d1 == d2 {
		t.Fatalf("digest must depend on rnti")
	}
}
