package mesh

import "lumenmesh/internal/config"

// emptySlot marks a reassembly slot as unbound.
const emptySlot = 0xFF

// reassemblySlot holds in-progress fragments for one shard transfer.
type reassemblySlot struct {
	shardID      uint8
	receivedMask uint16
	buffer       [config.ShardSize]byte
}

// reassemblyPool is the fixed-capacity fragment reassembly buffer pool.
type reassemblyPool struct {
	slots [config.MaxPendingFragments]reassemblySlot
}

func newReassemblyPool() *reassemblyPool {
	p := &reassemblyPool{}
	for i := range p.slots {
		p.slots[i].shardID = emptySlot
	}
	return p
}

// findOrAllocate returns the slot bound to shardID, allocating the first
// empty slot if none is bound yet. Returns nil if none is available.
func (p *reassemblyPool) findOrAllocate(shardID uint8) *reassemblySlot {
	var empty *reassemblySlot
	for i := range p.slots {
		s := &p.slots[i]
		if s.shardID == shardID {
			return s
		}
		if empty == nil && s.shardID == emptySlot {
			empty = s
		}
	}
	if empty == nil {
		return nil
	}
	empty.shardID = shardID
	return empty
}

// free resets a slot back to unbound.
func (s *reassemblySlot) free() {
	s.shardID = emptySlot
	s.receivedMask = 0
}

// complete reports whether all totalFragments bits are set.
func (s *reassemblySlot) complete(totalFragments uint8) bool {
	want := uint16(1)<<totalFragments - 1
	return s.receivedMask == want
}
