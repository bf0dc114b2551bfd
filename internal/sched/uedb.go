package sched

// UEState holds the full per-user scheduling state: its BWP
// projection and its downlink/uplink HARQ entities. One instance is
// created on UECfg and torn down on UERem (§5, §6).
type UEState struct {
	RNTI uint16

	BWPCfg *UEBWPConfig
	DLHARQ []HARQProcess
	ULHARQ []HARQProcess

	MaxHARQTx int
}

// ueDB is a Robin Hood hash map keyed by RNTI that doubles its table
// once it is half full, adapted
// from the lock-free key/value table this scheduler borrows its
// bitmap and ring idioms from: same displacement-minimizing insert
// and early-termination lookup, generalized to store *UEState
// pointers and to support deletion via backward-shift (the original
// fixed table never needed to remove an entry; a UE database does).
type ueDB struct {
	keys []uint16
	vals []*UEState
	mask uint32
	n    int
}

func newUEDB(capacity int) *ueDB {
	sz := nextPow2UE(capacity * 2)
	return &ueDB{
		keys: make([]uint16, sz),
		vals: make([]*UEState, sz),
		mask: sz - 1,
	}
}

func nextPow2UE(n int) uint32 {
	s := uint32(1)
	for s < uint32(n) {
		s <<= 1
	}
	return s
}

func (d *ueDB) dist(i uint32, key uint16) uint32 {
	home := uint32(key) & d.mask
	return (i + d.mask + 1 - home) & d.mask
}

// Put inserts or replaces the state for rnti. RNTI 0 is reserved (the
// empty-slot sentinel) and is never a valid assignable RNTI per
// 3GPP convention, so it is rejected here rather than silently
// colliding with empty slots.
func (d *ueDB) Put(rnti uint16, state *UEState) bool {
	if rnti == 0 {
		return false
	}
	if d.n*2 >= len(d.keys) {
		d.grow()
	}
	key := rnti
	val := state
	i := uint32(key) & d.mask
	var probeDist uint32
	for {
		k := d.keys[i]
		if k == 0 {
			d.keys[i], d.vals[i] = key, val
			d.n++
			return true
		}
		if k == key {
			d.vals[i] = val
			return true
		}
		kDist := d.dist(i, k)
		if kDist < probeDist {
			key, d.keys[i] = d.keys[i], key
			val, d.vals[i] = d.vals[i], val
			probeDist = kDist
		}
		i = (i + 1) & d.mask
		probeDist++
	}
}

// Get looks up the state for rnti.
func (d *ueDB) Get(rnti uint16) (*UEState, bool) {
	if rnti == 0 {
		return nil, false
	}
	i := uint32(rnti) & d.mask
	var probeDist uint32
	for {
		k := d.keys[i]
		if k == 0 {
			return nil, false
		}
		if k == rnti {
			return d.vals[i], true
		}
		if d.dist(i, k) < probeDist {
			return nil, false
		}
		i = (i + 1) & d.mask
		probeDist++
	}
}

// Remove deletes rnti's entry, backward-shifting subsequent entries
// that would otherwise break the Robin Hood probe-distance invariant.
func (d *ueDB) Remove(rnti uint16) bool {
	if rnti == 0 {
		return false
	}
	i := uint32(rnti) & d.mask
	var probeDist uint32
	for {
		k := d.keys[i]
		if k == 0 {
			return false
		}
		if k == rnti {
			break
		}
		if d.dist(i, k) < probeDist {
			return false
		}
		i = (i + 1) & d.mask
		probeDist++
	}
	j := i
	for {
		next := (j + 1) & d.mask
		if d.keys[next] == 0 || d.dist(next, d.keys[next]) == 0 {
			d.keys[j] = 0
			d.vals[j] = nil
			break
		}
		d.keys[j], d.vals[j] = d.keys[next], d.vals[next]
		j = next
	}
	d.n--
	return true
}

func (d *ueDB) grow() {
	old := *d
	sz := uint32(len(old.keys)) * 2
	d.keys = make([]uint16, sz)
	d.vals = make([]*UEState, sz)
	d.mask = sz - 1
	d.n = 0
	for i, k := range old.keys {
		if k != 0 {
			d.Put(k, old.vals[i])
		}
	}
}

// Len returns the number of UEs currently tracked.
func (d *ueDB) Len() int { return d.n }
