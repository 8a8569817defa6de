package flashsim

import (
	"testing"

	"lumenmesh/internal/config"
	"lumenmesh/internal/flash"
)

func TestMemoryDeviceSatisfiesFlashPrimitive(t *testing.T) {
	var _ flash.Primitive = NewMemoryDevice()
}

func TestEraseSectorSetsAllOnes(t *testing.T) {
	d := NewMemoryDevice()
	addr := uint32(config.FlashBaseOffset)
	if err := d.EraseSector(addr); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 8)
	if err := d.ReadPage(addr, buf); err != nil {
		t.Fatal(err)
	}
	for _, b := range buf {
		if b != 0xFF {
			t.Fatalf("byte = %#x, want 0xFF after erase", b)
		}
	}
}

func TestWriteThenReadPageRoundTrip(t *testing.T) {
	d := NewMemoryDevice()
	addr := uint32(config.FlashBaseOffset)
	if err := d.EraseSector(addr); err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 5}
	if err := d.WritePage(addr+4, want); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, len(want))
	if err := d.ReadPage(addr+4, got); err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBytesWrittenTracksTouchedSectors(t *testing.T) {
	d := NewMemoryDevice()
	if d.BytesWritten() != 0 {
		t.Fatal("virgin device should report zero bytes written")
	}
	if err := d.EraseSector(config.FlashBaseOffset); err != nil {
		t.Fatal(err)
	}
	if err := d.EraseSector(config.FlashBaseOffset + config.FlashSectorSize); err != nil {
		t.Fatal(err)
	}
	if got := d.BytesWritten(); got != 2*config.FlashSectorSize {
		t.Fatalf("BytesWritten = %d, want %d", got, 2*config.FlashSectorSize)
	}
}
