//go:build sqlite

package flashsim

import (
	"path/filepath"
	"testing"

	"lumenmesh/internal/config"
	"lumenmesh/internal/flash"
)

func TestSQLiteDeviceSatisfiesFlashPrimitive(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "flash.db")
	d, err := OpenSQLiteDevice(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	var _ flash.Primitive = d
}

func TestSQLiteDeviceEraseThenWriteReadRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "flash.db")
	d, err := OpenSQLiteDevice(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	addr := uint32(config.FlashBaseOffset)
	if err := d.EraseSector(addr); err != nil {
		t.Fatal(err)
	}
	want := []byte{9, 8, 7, 6}
	if err := d.WritePage(addr+16, want); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, len(want))
	if err := d.ReadPage(addr+16, got); err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSQLiteDeviceStateSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "flash.db")
	addr := uint32(config.FlashBaseOffset)

	first, err := OpenSQLiteDevice(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.EraseSector(addr); err != nil {
		t.Fatal(err)
	}
	if err := first.WritePage(addr, []byte{0x42}); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenSQLiteDevice(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got := make([]byte, 1)
	if err := reopened.ReadPage(addr, got); err != nil {
		t.Fatal(err)
	}
	if got[0] != 0x42 {
		t.Fatalf("byte = %#x, want 0x42 after reopen", got[0])
	}
}

func TestOpenViaFactoryBuildsSQLiteBackedPrimitive(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "flash.db")
	dev, err := Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if closer, ok := dev.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	if err := dev.EraseSector(config.FlashBaseOffset); err != nil {
		t.Fatal(err)
	}
}
