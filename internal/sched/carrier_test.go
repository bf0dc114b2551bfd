package sched

import "testing"

func testCellInput(frameLen, coresetCCEs int) CellConfigInput {
	return CellConfigInput{
		Cell: CellConfig{NofPRB: 52, TDDULDLPattern: AllDL(frameLen)},
		BWPs: []BWPParams{{
			BWPID: 0, StartRB: 0, RBWidth: 52,
			Coresets: []CoresetConfig{{ID: 0, NumCCE: coresetCCEs}},
			SearchSpaces: []SearchSpaceConfig{
				{ID: 0, CoresetID: 0, Common: true, CandidateCounts: [5]int{4, 2, 1, 0, 0}},
				{ID: 1, CoresetID: 0, Common: false, CandidateCounts: [5]int{0, 4, 2, 1, 0}},
			},
			RARSearchSpaceID: 0,
		}},
	}
}

func TestCarrierCellAndUECfgHappyPath(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))

	err := c.UECfg(UEConfigInput{
		RNTI: 0x4601, ActiveBWPID: 0,
		SearchSpaces: []SearchSpaceConfig{
			{ID: 0, CoresetID: 0, Common: true, CandidateCounts: [5]int{4, 2, 1, 0, 0}},
			{ID: 1, CoresetID: 0, Common: false, CandidateCounts: [5]int{0, 4, 2, 1, 0}},
		},
		MaxHARQTx: 4,
	})
	if err != nil {
		t.Fatalf("UECfg() = %v, want nil", err)
	}

	state, ok := c.UE(0x4601)
	if !ok {
		t.Fatalf("UE(0x4601) not found after UECfg")
	}
	if len(state.DLHARQ) == 0 || len(state.ULHARQ) == 0 {
		t.Fatalf("expected HARQ entities to be allocated")
	}
}

func TestCarrierUECfgUnknownBWPRejected(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))
	err := c.UECfg(UEConfigInput{RNTI: 1, ActiveBWPID: 99})
	if err == nil {
		t.Fatalf("expected an error for an unconfigured bwp id")
	}
}

func TestCarrierUERem(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))
	c.UECfg(UEConfigInput{RNTI: 1, ActiveBWPID: 0, MaxHARQTx: 4})
	c.UERem(1)
	if _, ok := c.UE(1); ok {
		t.Fatalf("UE(1) still present after UERem")
	}
}

func TestCarrierDLAckInfoUnknownRejected(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))
	if err := c.DLAckInfo(0x9999, 0, true); err == nil {
		t.Fatalf("expected an error for an unknown rnti")
	}

	c.UECfg(UEConfigInput{RNTI: 1, ActiveBWPID: 0, MaxHARQTx: 4})
	if err := c.DLAckInfo(1, 999, true); err == nil {
		t.Fatalf("expected an error for an out-of-range harq id")
	}
	if err := c.DLAckInfo(1, 0, true); err != nil {
		t.Fatalf("DLAckInfo(1, 0, true) = %v, want nil", err)
	}
}

func TestCarrierBearerCfgRequiresKnownRNTI(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))
	if err := c.BearerUECfg(1, 5); err == nil {
		t.Fatalf("expected an error for an unknown rnti")
	}
	c.UECfg(UEConfigInput{RNTI: 1, ActiveBWPID: 0, MaxHARQTx: 4})
	if err := c.BearerUECfg(1, 5); err != nil {
		t.Fatalf("BearerUECfg(1, 5) = %v, want nil", err)
	}
	if err := c.BearerUERem(1, 5); err != nil {
		t.Fatalf("BearerUERem(1, 5) = %v, want nil", err)
	}
}

func TestCarrierFeedbackValidation(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))
	c.UECfg(UEConfigInput{RNTI: 1, ActiveBWPID: 0, MaxHARQTx: 4})

	if err := c.DLCQIInfo(CQIReport{RNTI: 1, CQI: 10}); err != nil {
		t.Fatalf("DLCQIInfo = %v, want nil", err)
	}
	if err := c.DLCQIInfo(CQIReport{RNTI: 2, CQI: 10}); err == nil {
		t.Fatalf("expected an error for an unknown rnti")
	}
	if err := c.ULBSR(1, 0, 100); err != nil {
		t.Fatalf("ULBSR = %v, want nil", err)
	}
	if err := c.ULSRInfo(0, 1); err != nil {
		t.Fatalf("ULSRInfo = %v, want nil", err)
	}
}

func TestCarrierNewTTIIsIdempotent(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))

	c.NewTTI(3)
	tick, err := c.DLSched(0, 3)
	if err != nil {
		t.Fatalf("DLSched(0, 3) = %v", err)
	}
	_ = tick

	// Mutate the resident grid directly, then call NewTTI again for the
	// same tti: a real reset would wipe this out.
	grid := c.grids[0]
	g := grid.At(3)
	g.PDSCH = append(g.PDSCH, PDSCHRecord{RNTI: 0x77})

	c.NewTTI(3)
	if len(grid.At(3).PDSCH) != 1 {
		t.Fatalf("NewTTI(3) repeated for the same tti was not a no-op")
	}

	c.NewTTI(4)
	if len(grid.At(4).PDSCH) != 0 {
		t.Fatalf("expected a fresh slot at tti 4")
	}
}

func TestCarrierDLSchedUnknownSlotRejected(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))
	c.NewTTI(3)
	if _, err := c.DLSched(0, 8); err == nil {
		t.Fatalf("expected an error for a slot the ring hasn't advanced to")
	}
	if _, err := c.DLSched(99, 3); err == nil {
		t.Fatalf("expected an error for an unknown bwp id")
	}
}

func TestCarrierAllocPDSCHThroughFacade(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))
	c.UECfg(UEConfigInput{
		RNTI: 0x4601, ActiveBWPID: 0,
		SearchSpaces: []SearchSpaceConfig{
			{ID: 0, CoresetID: 0, Common: true, CandidateCounts: [5]int{4, 2, 1, 0, 0}},
			{ID: 1, CoresetID: 0, Common: false, CandidateCounts: [5]int{0, 4, 2, 1, 0}},
		},
		MaxHARQTx: 4,
	})
	c.NewTTI(0)
	c.NewTTI(4)

	res, err := c.AllocPDSCH(0, 0x4601, 0, 0, 4, Interval{Start: 8, Stop: 12})
	if err != nil {
		t.Fatalf("AllocPDSCH() error = %v", err)
	}
	if res != Success {
		t.Fatalf("AllocPDSCH() = %v, want Success", res)
	}

	tick, err := c.DLSched(0, 0)
	if err != nil {
		t.Fatalf("DLSched(0, 0) = %v", err)
	}
	if len(tick.DCIs) != 1 {
		t.Fatalf("DLSched DCI count = %d, want 1", len(tick.DCIs))
	}
}

func TestCarrierAllocPDSCHUnknownRNTIRejected(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))
	c.NewTTI(0)
	if _, err := c.AllocPDSCH(0, 0x9999, 0, 0, 4, Interval{Start: 0, Stop: 4}); err == nil {
		t.Fatalf("expected an error for an unconfigured rnti")
	}
}

func TestCarrierDLRachInfoThroughFacade(t *testing.T) {
	c := NewCarrierScheduler()
	c.CellCfg(testCellInput(10, 16))
	c.NewTTI(0) // lastGenerated=0, used as the RAR's PDCCH slot

	res := c.DLRachInfo(0, RARRequest{RARNTI: 0x11, NofGrants: 1, PRBs: Interval{Start: 0, Stop: 4}, AggrIdx: 2})
	if res != Success {
		t.Fatalf("DLRachInfo() = %v, want Success", res)
	}
}
