package sched

import "fmt"

// DCIKind distinguishes the three grant types the scheduler emits:
// random-access response, downlink data, uplink data.
type DCIKind int

const (
	DCIRAR DCIKind = iota
	DCIDL
	DCIUL
)

func (k DCIKind) String() string {
	switch k {
	case DCIRAR:
		return "rar"
	case DCIDL:
		return "dl"
	case DCIUL:
		return "ul"
	default:
		return "unknown"
	}
}

// DCI is a downlink control information record: a PDCCH grant pointing
// a UE at a PDSCH/PUSCH resource, or a common grant carrying an RAR.
type DCI struct {
	RNTI             uint16
	Kind             DCIKind
	AggregationLevel int
	CCEStart         int
	Format           int

	ResourceAlloc Interval
	HARQID        int
	NDI           bool
	DAI           int // mod-4 downlink assignment index, DL only

	PUCCHResource int
	CodeRate      float64
}

// maxCodeRate bounds the code rate FillDCIRAR accepts for an RAR
// grant; anything past it is treated as an unschedulable grant rather
// than silently truncated. UE-specific grants (FillDCIDL/FillDCIUL)
// are not checked against it.
const maxCodeRate = 0.93

// codeRateFor estimates the code rate implied by packing payloadBits
// into an interval of PRBs, using a flat 100 usable REs/PRB/slot
// figure (matching the PHY-agnostic framing of §9: no MCS tables, a
// single literal bits-per-RE assumption good enough to exercise the
// admission logic).
func codeRateFor(payloadBits int, prbs Interval) float64 {
	reCapacity := prbs.Length() * 100
	if reCapacity == 0 {
		return 1 // guaranteed over maxCodeRate, forcing InvalidCoderate
	}
	return float64(payloadBits) / float64(reCapacity)
}

// FillDCIRAR builds a DCI for an RAR grant, reporting InvalidCoderate
// if the chosen resource interval cannot carry payloadBits without
// exceeding maxCodeRate.
func FillDCIRAR(rnti uint16, aggLevel, cceStart int, prbs Interval, payloadBits int) (DCI, AllocResult) {
	cr := codeRateFor(payloadBits, prbs)
	if cr > maxCodeRate {
		return DCI{}, InvalidCoderate
	}
	return DCI{
		RNTI:             rnti,
		Kind:             DCIRAR,
		AggregationLevel: aggLevel,
		CCEStart:         cceStart,
		Format:           1, // RAR is always DCI format 1_0, common
		ResourceAlloc:    prbs,
		CodeRate:         cr,
	}, Success
}

// FillDCIDL builds a DCI for a PDSCH grant. Unlike FillDCIRAR, this
// never fails on code rate: fill_dl_dci_ue_fields in the reference
// scheduler returns void, and only the RAR admission path treats an
// unschedulable code rate as a rejection (§4.9.2/§4.9.3 list no
// invalid_coderate outcome for a UE-specific grant). CodeRate is still
// computed and recorded for observability.
func FillDCIDL(rnti uint16, aggLevel, cceStart int, prbs Interval, payloadBits, harqID int, ndi bool, dai int) (DCI, AllocResult) {
	return DCI{
		RNTI:             rnti,
		Kind:             DCIDL,
		AggregationLevel: aggLevel,
		CCEStart:         cceStart,
		Format:           1,
		ResourceAlloc:    prbs,
		HARQID:           harqID,
		NDI:              ndi,
		DAI:              dai % 4,
		CodeRate:         codeRateFor(payloadBits, prbs),
	}, Success
}

// FillDCIUL builds a DCI for a PUSCH grant, with the same
// never-fails-on-code-rate behavior as FillDCIDL.
func FillDCIUL(rnti uint16, aggLevel, cceStart int, prbs Interval, payloadBits, harqID int, ndi bool) (DCI, AllocResult) {
	return DCI{
		RNTI:             rnti,
		Kind:             DCIUL,
		AggregationLevel: aggLevel,
		CCEStart:         cceStart,
		Format:           0,
		ResourceAlloc:    prbs,
		HARQID:           harqID,
		NDI:              ndi,
		CodeRate:         codeRateFor(payloadBits, prbs),
	}, Success
}

// wireDCI is the fixed-width on-the-wire shape a DCI round-trips
// through (P7/P8): every field packed into a deterministic byte
// layout so Encode/Decode is exact, unlike the JSON trace records
// which are for audit, not wire fidelity.
type wireDCI struct {
	rnti     uint16
	kind     uint8
	aggLevel uint8
	cceStart uint16
	format   uint8
	rbStart  uint16
	rbStop   uint16
	harqID   uint8
	flags    uint8 // bit0 = NDI
	dai      uint8
	pucch    uint16
}

const wireDCISize = 2 + 1 + 1 + 2 + 1 + 2 + 2 + 1 + 1 + 1 + 2

// Encode serializes a DCI into its fixed-width wire form. CodeRate is
// not carried on the wire — it is a scheduler-local admission
// artifact, not part of the control channel payload.
func (d *DCI) Encode() []byte {
	var ndiBit uint8
	if d.NDI {
		ndiBit = 1
	}
	w := wireDCI{
		rnti:     d.RNTI,
		kind:     uint8(d.Kind),
		aggLevel: uint8(d.AggregationLevel),
		cceStart: uint16(d.CCEStart),
		format:   uint8(d.Format),
		rbStart:  uint16(d.ResourceAlloc.Start),
		rbStop:   uint16(d.ResourceAlloc.Stop),
		harqID:   uint8(d.HARQID),
		flags:    ndiBit,
		dai:      uint8(d.DAI),
		pucch:    uint16(d.PUCCHResource),
	}
	buf := make([]byte, wireDCISize)
	putU16(buf[0:2], w.rnti)
	buf[2] = w.kind
	buf[3] = w.aggLevel
	putU16(buf[4:6], w.cceStart)
	buf[6] = w.format
	putU16(buf[7:9], w.rbStart)
	putU16(buf[9:11], w.rbStop)
	buf[11] = w.harqID
	buf[12] = w.flags
	buf[13] = w.dai
	putU16(buf[14:16], w.pucch)
	return buf
}

// DecodeDCI parses the fixed-width wire form produced by Encode.
func DecodeDCI(buf []byte) (DCI, error) {
	if len(buf) != wireDCISize {
		return DCI{}, fmt.Errorf("sched: short DCI buffer: got %d bytes, want %d", len(buf), wireDCISize)
	}
	d := DCI{
		RNTI:             getU16(buf[0:2]),
		Kind:             DCIKind(buf[2]),
		AggregationLevel: int(buf[3]),
		CCEStart:         int(getU16(buf[4:6])),
		Format:           int(buf[6]),
		ResourceAlloc:    Interval{Start: int(getU16(buf[7:9])), Stop: int(getU16(buf[9:11]))},
		HARQID:           int(buf[11]),
		NDI:              buf[12]&1 != 0,
		DAI:              int(buf[13]),
		PUCCHResource:    int(getU16(buf[14:16])),
	}
	return d, nil
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func getU16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
