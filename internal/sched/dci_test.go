package sched

import "testing"

// TestDCIEncodeDecodeRoundTrip is P8.
func TestDCIEncodeDecodeRoundTrip(t *testing.T) {
	d := DCI{
		RNTI:             0x4601,
		Kind:             DCIDL,
		AggregationLevel: 4,
		CCEStart:         8,
		Format:           1,
		ResourceAlloc:    Interval{Start: 10, Stop: 20},
		HARQID:           3,
		NDI:              true,
		DAI:              2,
		PUCCHResource:    7,
	}
	buf := d.Encode()
	got, err := DecodeDCI(buf)
	if err != nil {
		t.Fatalf("DecodeDCI returned error: %v", err)
	}
	got.CodeRate = 0 // CodeRate is not carried on the wire
	if got != d {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, d)
	}
}

func TestDecodeDCIRejectsShortBuffer(t *testing.T) {
	if _, err := DecodeDCI([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected an error decoding a short buffer")
	}
}

func TestFillDCIRARInvalidCoderate(t *testing.T) {
	// A zero-length interval offers no capacity at all, so the code
	// rate is reported as 1 (above maxCodeRate), triggering
	// InvalidCoderate.
	_, res := FillDCIRAR(0x11, 4, 0, Interval{Start: 0, Stop: 0}, 56)
	if res != InvalidCoderate {
		t.Fatalf("AllocResult = %v, want InvalidCoderate for a zero-length interval", res)
	}
}

func TestFillDCIRARSuccess(t *testing.T) {
	dci, res := FillDCIRAR(0x11, 4, 0, Interval{Start: 0, Stop: 4}, 56)
	if res != Success {
		t.Fatalf("AllocResult = %v, want Success", res)
	}
	if dci.Kind != DCIRAR || dci.RNTI != 0x11 {
		t.Fatalf("unexpected DCI fields: %+v", dci)
	}
}

func TestFillDCIDLDAIModulo(t *testing.T) {
	dci, res := FillDCIDL(0x22, 2, 0, Interval{Start: 0, Stop: 4}, 80, 1, true, 5)
	if res != Success {
		t.Fatalf("AllocResult = %v, want Success", res)
	}
	if dci.DAI != 1 { // 5 mod 4 == 1
		t.Fatalf("DAI = %d, want 1", dci.DAI)
	}
}
