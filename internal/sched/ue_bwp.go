package sched

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// UEBWPConfig is a per-user projection of a BWP: the precomputed CCE
// candidate lists for every search space configured for that user.
// Rebuilding a CCECandidateTable is cheap but not free, and per §4.5
// it should only happen "when the user's configuration changes;
// otherwise reused across slots." Rather than deep-comparing the
// configuration struct on every slot, the configuration is fingerprinted
// with BLAKE2b-128 and the table is rebuilt only when the digest
// changes — the same cheap-fingerprint-instead-of-deep-compare trick
// used for event dedup in the retrieval pack.
type UEBWPConfig struct {
	RNTI uint16
	bwp  *BWPConfig

	tables map[int]*CCECandidateTable // search-space id -> table
	digest [16]byte
}

// configDigest hashes the fields that influence the CCE candidate
// tables: the RNTI, the BWP's id and frame length, and for each
// configured search space its id, coreset (with that coreset's CCE
// count), type and candidate counts.
func configDigest(rnti uint16, bwp *BWPConfig, searchSpaces []SearchSpaceConfig) [16]byte {
	h, _ := blake2b.New(16, nil)
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], rnti)
	h.Write(buf[:])
	var bwpFields [8]byte
	binary.BigEndian.PutUint32(bwpFields[0:4], uint32(bwp.BWPID))
	binary.BigEndian.PutUint32(bwpFields[4:8], bwp.SlotsPerFrame)
	h.Write(bwpFields[:])
	for _, ss := range searchSpaces {
		var fields [4 + 4 + 1 + 5*4 + 4]byte
		binary.BigEndian.PutUint32(fields[0:4], uint32(ss.ID))
		binary.BigEndian.PutUint32(fields[4:8], uint32(ss.CoresetID))
		if ss.Common {
			fields[8] = 1
		}
		for i, c := range ss.CandidateCounts {
			binary.BigEndian.PutUint32(fields[9+i*4:13+i*4], uint32(c))
		}
		binary.BigEndian.PutUint32(fields[29:33], uint32(bwp.Coresets[ss.CoresetID].NumCCE))
		h.Write(fields[:])
	}
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// BuildUEBWPConfig computes the CCE candidate tables for every search
// space in searchSpaces against bwp, caching the configuration digest
// used for later invalidation checks.
func BuildUEBWPConfig(rnti uint16, bwp *BWPConfig, searchSpaces []SearchSpaceConfig) *UEBWPConfig {
	u := &UEBWPConfig{
		RNTI:   rnti,
		bwp:    bwp,
		tables: make(map[int]*CCECandidateTable, len(searchSpaces)),
		digest: configDigest(rnti, bwp, searchSpaces),
	}
	u.rebuild(searchSpaces)
	return u
}

func (u *UEBWPConfig) rebuild(searchSpaces []SearchSpaceConfig) {
	for _, ss := range searchSpaces {
		cs, ok := u.bwp.Coresets[ss.CoresetID]
		if !ok {
			continue
		}
		t := BuildCCECandidateTable(cs, ss, u.RNTI, u.bwp.SlotsPerFrame)
		u.tables[ss.ID] = &t
	}
}

// Refresh recomputes the candidate tables only if the digest of
// (rnti, bwp, searchSpaces) has changed since the last build. Returns
// whether a rebuild happened.
func (u *UEBWPConfig) Refresh(bwp *BWPConfig, searchSpaces []SearchSpaceConfig) bool {
	d := configDigest(u.RNTI, bwp, searchSpaces)
	if d == u.digest {
		return false
	}
	u.bwp = bwp
	u.digest = d
	u.tables = make(map[int]*CCECandidateTable, len(searchSpaces))
	u.rebuild(searchSpaces)
	return true
}

// BWP returns the BWPConfig this projection was built against, used
// by the allocator to detect an active-BWP mismatch.
func (u *UEBWPConfig) BWP() *BWPConfig { return u.bwp }

// CCEPositions returns the candidate table for a search space id, or
// nil if the user has no such search space configured.
func (u *UEBWPConfig) CCEPositions(searchSpaceID int) *CCECandidateTable {
	return u.tables[searchSpaceID]
}
