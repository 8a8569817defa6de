//go:build sqlite

package flashsim

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"lumenmesh/internal/config"
	"lumenmesh/internal/flash"
)

func openSQLite(path string) (flash.Primitive, error) {
	return OpenSQLiteDevice(path)
}

// SQLiteDevice persists simulated flash sectors to a SQLite file, so a
// simulated device's wear-leveling state survives across separate
// cmd/bulbsimctl invocations.
type SQLiteDevice struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLiteDevice opens (creating if necessary) the flash sector table in
// the SQLite database at path.
func OpenSQLiteDevice(path string) (*SQLiteDevice, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("flashsim: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("flashsim: ping %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flash_sectors (
			addr INTEGER PRIMARY KEY,
			data BLOB NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("flashsim: create table: %w", err)
	}
	return &SQLiteDevice{db: db}, nil
}

// Close releases the underlying database handle.
func (d *SQLiteDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}

func (d *SQLiteDevice) readSector(base uint32) ([]byte, error) {
	var data []byte
	err := d.db.QueryRow(`SELECT data FROM flash_sectors WHERE addr = ?`, base).Scan(&data)
	if err == sql.ErrNoRows {
		data = make([]byte, config.FlashSectorSize)
	} else if err != nil {
		return nil, err
	}
	return data, nil
}

func (d *SQLiteDevice) writeSector(base uint32, data []byte) error {
	_, err := d.db.Exec(`
		INSERT INTO flash_sectors (addr, data) VALUES (?, ?)
		ON CONFLICT(addr) DO UPDATE SET data = excluded.data
	`, base, data)
	return err
}

// EraseSector resets the sector containing addr to all 0xFF.
func (d *SQLiteDevice) EraseSector(addr uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sector := make([]byte, config.FlashSectorSize)
	for i := range sector {
		sector[i] = 0xFF
	}
	return d.writeSector(sectorBase(addr), sector)
}

// WritePage writes data into the sector containing addr at addr's offset.
func (d *SQLiteDevice) WritePage(addr uint32, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	base := sectorBase(addr)
	sector, err := d.readSector(base)
	if err != nil {
		return err
	}
	copy(sector[addr-base:], data)
	return d.writeSector(base, sector)
}

// ReadPage reads len(buf) bytes starting at addr into buf.
func (d *SQLiteDevice) ReadPage(addr uint32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	base := sectorBase(addr)
	sector, err := d.readSector(base)
	if err != nil {
		return err
	}
	copy(buf, sector[addr-base:])
	return nil
}
