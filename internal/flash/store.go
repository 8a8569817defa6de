package flash

import (
	"lumenmesh/internal/config"
	"lumenmesh/internal/shard"
)

// WriteShard persists s using the ping-pong protocol: the currently active
// sector is left untouched until the other sector has been fully erased,
// written, and marked Active, and only then is the old sector demoted to
// Valid-but-not-Active.
func (st *Store) WriteShard(s *shard.Shard) error {
	id := s.Header.ShardID
	active, found := st.findActiveSector(id)

	target := 0
	if found {
		target = 1 - active
	}

	prevWriteCount := uint32(0)
	if prev := st.readHeader(sectorAddr(id, target)); prev.valid() && prev.ShardID == uint16(id) {
		prevWriteCount = prev.WriteCount
	}

	targetAddr := sectorAddr(id, target)
	if err := st.dev.EraseSector(targetAddr); err != nil {
		return err
	}

	newHeader := SectorHeader{
		Magic:      config.FlashSectorMagic,
		WriteCount: prevWriteCount + 1,
		ShardID:    uint16(id),
		Flags:      flagValid | flagActive,
	}
	if err := st.dev.WritePage(targetAddr, newHeader.marshal()); err != nil {
		return err
	}
	if err := st.dev.WritePage(targetAddr+config.FlashSectorHeaderSize, s.Marshal()); err != nil {
		return err
	}

	if found && active != target {
		oldAddr := sectorAddr(id, active)
		oldHeader := st.readHeader(oldAddr)
		oldHeader.Flags = flagValid
		if err := st.dev.WritePage(oldAddr, oldHeader.marshal()); err != nil {
			return err
		}
	}
	return nil
}

// ReadShard loads the active copy of shard id, failing if its checksum
// does not verify.
func (st *Store) ReadShard(id uint8) (*shard.Shard, bool) {
	which, found := st.findActiveSector(id)
	if !found {
		return nil, false
	}
	addr := sectorAddr(id, which)
	buf := make([]byte, config.ShardSize)
	if err := st.dev.ReadPage(addr+config.FlashSectorHeaderSize, buf); err != nil {
		return nil, false
	}
	s := shard.New()
	if !s.Unmarshal(buf) || !s.VerifyChecksum() {
		return nil, false
	}
	return s, true
}

// WearCount reports the active sector's write count for shard id, or 0 if
// no valid copy exists yet.
func (st *Store) WearCount(id uint8) uint32 {
	which, found := st.findActiveSector(id)
	if !found {
		return 0
	}
	return st.readHeader(sectorAddr(id, which)).WriteCount
}
