// Package flashsim provides host-side implementations of the raw flash
// primitives (flash_erase_sector, flash_read_page, flash_write_page) that
// internal/flash treats as external collaborators. MemoryDevice is the
// in-memory default used by radiosim when no on-disk persistence is
// requested. A SQLite-backed implementation
// (behind the "sqlite" build tag) lets a simulated device's wear state
// survive across cmd/bulbsimctl invocations.
package flashsim

import "lumenmesh/internal/config"

// MemoryDevice is a byte-addressable stand-in for raw NOR flash. Erasing a
// sector sets it to all 0xFF, matching real flash erase semantics.
type MemoryDevice struct {
	sectors map[uint32][]byte
}

// NewMemoryDevice builds an empty (virgin) flash image.
func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{sectors: make(map[uint32][]byte)}
}

func sectorBase(addr uint32) uint32 {
	rel := addr - config.FlashBaseOffset
	return config.FlashBaseOffset + (rel/config.FlashSectorSize)*config.FlashSectorSize
}

func (d *MemoryDevice) sectorFor(addr uint32) []byte {
	base := sectorBase(addr)
	sector, ok := d.sectors[base]
	if !ok {
		sector = make([]byte, config.FlashSectorSize)
		d.sectors[base] = sector
	}
	return sector
}

// EraseSector resets the sector containing addr to all 0xFF.
func (d *MemoryDevice) EraseSector(addr uint32) error {
	sector := make([]byte, config.FlashSectorSize)
	for i := range sector {
		sector[i] = 0xFF
	}
	d.sectors[sectorBase(addr)] = sector
	return nil
}

// WritePage copies data into the sector containing addr, at addr's offset
// within that sector.
func (d *MemoryDevice) WritePage(addr uint32, data []byte) error {
	sector := d.sectorFor(addr)
	copy(sector[addr-sectorBase(addr):], data)
	return nil
}

// ReadPage copies len(buf) bytes starting at addr into buf.
func (d *MemoryDevice) ReadPage(addr uint32, buf []byte) error {
	sector := d.sectorFor(addr)
	copy(buf, sector[addr-sectorBase(addr):])
	return nil
}

// BytesWritten reports how many sectors have ever been touched, scaled to
// bytes.
func (d *MemoryDevice) BytesWritten() uint64 {
	return uint64(len(d.sectors)) * uint64(config.FlashSectorSize)
}
