// Package flash implements wear-leveled shard persistence (F) on top of raw
// sector primitives: a ping-pong pair of sectors per shard, so a crash
// mid-write always leaves one side fully readable.
package flash

import (
	"encoding/binary"

	"lumenmesh/internal/config"
)

// flags bits within SectorHeader.Flags.
const (
	flagValid  uint16 = 1 << 0
	flagActive uint16 = 1 << 1
)

// Primitive is the raw flash surface the host exposes: erase a whole sector,
// or read/write a byte range within one. Implementations live outside this
// package (internal/flashsim for simulation, real flash glue in firmware).
type Primitive interface {
	EraseSector(addr uint32) error
	ReadPage(addr uint32, buf []byte) error
	WritePage(addr uint32, data []byte) error
}

// SectorHeader precedes every shard image on flash.
type SectorHeader struct {
	Magic      uint32
	WriteCount uint32
	ShardID    uint16
	Flags      uint16
}

func (h SectorHeader) marshal() []byte {
	buf := make([]byte, config.FlashSectorHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.WriteCount)
	binary.LittleEndian.PutUint16(buf[8:10], h.ShardID)
	binary.LittleEndian.PutUint16(buf[10:12], h.Flags)
	return buf
}

func unmarshalHeader(data []byte) SectorHeader {
	return SectorHeader{
		Magic:      binary.LittleEndian.Uint32(data[0:4]),
		WriteCount: binary.LittleEndian.Uint32(data[4:8]),
		ShardID:    binary.LittleEndian.Uint16(data[8:10]),
		Flags:      binary.LittleEndian.Uint16(data[10:12]),
	}
}

func (h SectorHeader) valid() bool {
	return h.Magic == config.FlashSectorMagic && h.Flags&flagValid != 0
}

// Store is the wear-leveled shard persistence layer.
type Store struct {
	dev Primitive
}

// New builds a Store backed by dev.
func New(dev Primitive) *Store {
	return &Store{dev: dev}
}

// sectorAddr returns the base address of sector `which` (0 or 1) of the
// ping-pong pair for shard id.
func sectorAddr(id uint8, which int) uint32 {
	return config.FlashBaseOffset + uint32(id)*2*config.FlashSectorSize + uint32(which)*config.FlashSectorSize
}

func (st *Store) readHeader(addr uint32) SectorHeader {
	buf := make([]byte, config.FlashSectorHeaderSize)
	if err := st.dev.ReadPage(addr, buf); err != nil {
		return SectorHeader{}
	}
	return unmarshalHeader(buf)
}

// findActiveSector locates the live copy of shard id among its two
// candidate sectors.
func (st *Store) findActiveSector(id uint8) (which int, found bool) {
	h0 := st.readHeader(sectorAddr(id, 0))
	h1 := st.readHeader(sectorAddr(id, 1))
	v0, v1 := h0.valid() && h0.ShardID == uint16(id), h1.valid() && h1.ShardID == uint16(id)

	switch {
	case !v0 && !v1:
		return 0, false
	case v0 && !v1:
		return 0, true
	case v1 && !v0:
		return 1, true
	}

	// Both valid: prefer the Active-flagged one, else the higher write count.
	if h0.Flags&flagActive != 0 && h1.Flags&flagActive == 0 {
		return 0, true
	}
	if h1.Flags&flagActive != 0 && h0.Flags&flagActive == 0 {
		return 1, true
	}
	if h1.WriteCount > h0.WriteCount {
		return 1, true
	}
	return 0, true
}
