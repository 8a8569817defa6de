package mesh

import (
	"golang.org/x/exp/slices"

	"lumenmesh/internal/config"
)

// Neighbor tracks one known mesh peer. RSSI is stored biased by +128 so it
// fits an unsigned byte.
type Neighbor struct {
	Addr        uint16
	RSSI        uint8
	LoadPercent uint8
	Epoch       uint16
	LastSeen    uint32
	HeldShards  [config.TotalModelShards / 8]byte
}

// HasShard reports whether this neighbor is known to hold shard id.
func (n *Neighbor) HasShard(id uint8) bool {
	return n.HeldShards[id/8]&(1<<(id%8)) != 0
}

// SetHasShard marks this neighbor as holding (or not holding) shard id.
func (n *Neighbor) SetHasShard(id uint8, held bool) {
	mask := byte(1 << (id % 8))
	if held {
		n.HeldShards[id/8] |= mask
	} else {
		n.HeldShards[id/8] &^= mask
	}
}

// neighborTable is a first-write-wins, fixed-capacity neighbor directory.
// It never evicts existing entries on overflow.
type neighborTable struct {
	entries [config.MaxNeighbors]Neighbor
	count   int
}

// findOrCreate returns the neighbor for addr, creating one if there is
// capacity. Returns nil if the table is full and addr is unknown.
func (t *neighborTable) findOrCreate(addr uint16) *Neighbor {
	for i := 0; i < t.count; i++ {
		if t.entries[i].Addr == addr {
			return &t.entries[i]
		}
	}
	if t.count >= config.MaxNeighbors {
		return nil
	}
	t.entries[t.count] = Neighbor{Addr: addr}
	t.count++
	return &t.entries[t.count-1]
}

// find returns the neighbor for addr, or nil if unknown.
func (t *neighborTable) find(addr uint16) *Neighbor {
	for i := 0; i < t.count; i++ {
		if t.entries[i].Addr == addr {
			return &t.entries[i]
		}
	}
	return nil
}

// all returns the currently tracked neighbors.
func (t *neighborTable) all() []Neighbor {
	return t.entries[:t.count]
}

// sortedByLoad returns a copy of the tracked neighbors ordered by ascending
// LoadPercent, for diagnostics listings that want the least-loaded neighbor
// first (a good relay/request target).
func (t *neighborTable) sortedByLoad() []Neighbor {
	out := make([]Neighbor, t.count)
	copy(out, t.entries[:t.count])
	slices.SortFunc(out, func(a, b Neighbor) int {
		return int(a.LoadPercent) - int(b.LoadPercent)
	})
	return out
}

// indexOf returns the index of addr within neighbors, or -1 if absent.
func indexOf(neighbors []Neighbor, addr uint16) int {
	return slices.IndexFunc(neighbors, func(n Neighbor) bool { return n.Addr == addr })
}
