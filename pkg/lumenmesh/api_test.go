package lumenmesh

import (
	"testing"

	"lumenmesh/internal/radiosim"
)

func TestNewRequiresHost(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error when Host is nil")
	}
}

func TestNewStartsSuccessfullyWithRadiosimHost(t *testing.T) {
	node := radiosim.NewNode(1, nil)
	b, err := New(Options{Host: node, SelfAddr: 1})
	if err != nil {
		t.Fatal(err)
	}
	b.RunSlice()
	b.TickLight()
}

func TestSetLightTargetAndDiagnosticsRoundTrip(t *testing.T) {
	node := radiosim.NewNode(1, nil)
	b, err := New(Options{Host: node, SelfAddr: 1})
	if err != nil {
		t.Fatal(err)
	}
	b.SetLightTarget(80, 60, 0)
	d := b.Diagnostics()
	if len(d.Shards) == 0 {
		t.Fatal("expected at least one shard in diagnostics")
	}
}

func TestNeighborsEmptyOnFreshBulb(t *testing.T) {
	node := radiosim.NewNode(1, nil)
	b, err := New(Options{Host: node, SelfAddr: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Neighbors(); len(got) != 0 {
		t.Fatalf("Neighbors() = %v, want empty", got)
	}
}

func TestThrottleLevelStartsAtZero(t *testing.T) {
	node := radiosim.NewNode(1, nil)
	b, err := New(Options{Host: node, SelfAddr: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := b.ThrottleLevel(); got != 0 {
		t.Fatalf("ThrottleLevel() = %d, want 0", got)
	}
}
