package mesh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lumenmesh/internal/config"
	"lumenmesh/internal/shard"
)

type fakeSender struct {
	frames [][]byte
	dests  []uint16
}

func (f *fakeSender) MeshSend(dst uint16, frame []byte) {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.frames = append(f.frames, cp)
	f.dests = append(f.dests, dst)
}

func TestBroadcastShardFragmentsIntoExpectedCount(t *testing.T) {
	sender := &fakeSender{}
	g := New(1, sender)

	s := shard.New()
	s.Init(5)
	s.UpdateChecksum()

	g.BroadcastShard(s)

	wantFragments := config.ShardSize / config.FragmentSize
	if len(sender.frames) != wantFragments {
		t.Fatalf("frames = %d, want %d", len(sender.frames), wantFragments)
	}
	for _, d := range sender.dests {
		if d != BroadcastAddr {
			t.Fatalf("dest = %d, want broadcast", d)
		}
	}
}

func TestFragmentReassemblyRoundTrip(t *testing.T) {
	sendSender := &fakeSender{}
	sender := New(1, sendSender)

	s := shard.New()
	s.Init(9)
	s.Header.GlobalEpoch = 42
	s.UpdateChecksum()
	sender.BroadcastShard(s)

	receiverSink := &fakeSender{}
	receiver := New(2, receiverSink)

	var got *shard.Shard
	receiver.OnShardReceived(func(rs *shard.Shard) { got = rs })

	for i, frame := range sendSender.frames {
		receiver.OnReceive(frame, 1, -40, uint32(i))
	}

	if got == nil {
		t.Fatal("shard was never reassembled")
	}
	if got.Header.ShardID != 9 {
		t.Fatalf("ShardID = %d, want 9", got.Header.ShardID)
	}
	if got.Header.GlobalEpoch != 42 {
		t.Fatalf("GlobalEpoch = %d, want 42", got.Header.GlobalEpoch)
	}
	if !got.VerifyChecksum() {
		t.Fatal("reassembled shard failed checksum")
	}
	for i, w := range got.Weights {
		want := int8((i*7+9)%17 - 8)
		if w != want {
			t.Fatalf("weight[%d] = %d, want %d", i, w, want)
		}
	}
}

func TestReassemblyIgnoresOutOfOrderDuplicateFragment(t *testing.T) {
	sendSender := &fakeSender{}
	sender := New(1, sendSender)
	s := shard.New()
	s.Init(3)
	s.UpdateChecksum()
	sender.BroadcastShard(s)

	receiverSink := &fakeSender{}
	receiver := New(2, receiverSink)
	calls := 0
	receiver.OnShardReceived(func(*shard.Shard) { calls++ })

	// Deliver fragment 0 twice, then everything else; dedup on (src, seq)
	// must drop the repeat so the slot's mask doesn't spuriously "complete"
	// any earlier than it should.
	receiver.OnReceive(sendSender.frames[0], 1, -40, 0)
	receiver.OnReceive(sendSender.frames[0], 1, -40, 1)
	for i := 1; i < len(sendSender.frames); i++ {
		receiver.OnReceive(sendSender.frames[i], 1, -40, uint32(i+1))
	}

	if calls != 1 {
		t.Fatalf("onShardReceived called %d times, want 1", calls)
	}
}

func TestDedupDropsRepeatedSequenceFromSameSource(t *testing.T) {
	sink := &fakeSender{}
	g := New(1, sink)

	hdr := Header{Opcode: OpHeartbeat, TTL: 1, SrcAddr: 7, SeqNum: 3}
	payload := HeartbeatPayload{LoadPercent: 50, ShardsHeld: 2, Epoch: 1, Neighbors: 0}
	frame := payload.Marshal(hdr.Marshal(nil))

	g.OnReceive(frame, 7, -50, 0)
	n := g.neighbors.find(7)
	if n == nil || n.LoadPercent != 50 {
		t.Fatal("first heartbeat should register the neighbor")
	}

	// Same (src, seq) again but with a different load: must be dropped as a
	// duplicate, so the neighbor's load stays at the first-seen value.
	payload2 := payload
	payload2.LoadPercent = 99
	frame2 := payload2.Marshal(hdr.Marshal(nil))
	g.OnReceive(frame2, 7, -50, 1)

	if n.LoadPercent != 50 {
		t.Fatalf("LoadPercent = %d, want 50 (duplicate should be dropped)", n.LoadPercent)
	}
}

func TestShouldThrottleOnMajorityHighLoad(t *testing.T) {
	sink := &fakeSender{}
	g := New(1, sink)

	send := func(src uint16, load uint8, seq uint8) {
		hdr := Header{Opcode: OpHeartbeat, TTL: 1, SrcAddr: src, SeqNum: seq}
		payload := HeartbeatPayload{LoadPercent: load, ShardsHeld: 0, Epoch: 0, Neighbors: 0}
		g.OnReceive(payload.Marshal(hdr.Marshal(nil)), src, -50, 0)
	}

	send(10, 90, 0)
	send(11, 85, 0)
	send(12, 10, 0)

	if !g.ShouldThrottle() {
		t.Fatal("2 of 3 neighbors over 80% load should trigger throttling")
	}
}

func TestShouldThrottleFalseWithNoNeighbors(t *testing.T) {
	g := New(1, &fakeSender{})
	if g.ShouldThrottle() {
		t.Fatal("no neighbors should never throttle")
	}
}

func TestWeightRequestInvokesCallbackWithRequester(t *testing.T) {
	g := New(2, &fakeSender{})
	var gotID uint8
	var gotFrom uint16
	g.OnShardRequested(func(id uint8, requester uint16) {
		gotID, gotFrom = id, requester
	})

	requester := New(1, &fakeSender{})
	var captured []byte
	sink := &fakeSender{}
	requester.sender = sink
	requester.RequestShardFrom(7, 2)

	g.OnReceive(sink.frames[0], 1, -40, 0)
	captured = sink.frames[0]
	_ = captured

	if gotID != 7 || gotFrom != 1 {
		t.Fatalf("got id=%d from=%d, want id=7 from=1", gotID, gotFrom)
	}
}

func TestAckRoundTrip(t *testing.T) {
	ackerSink := &fakeSender{}
	acker := New(2, ackerSink)
	acker.Ack(5, 1)

	receiverSink := &fakeSender{}
	receiver := New(1, receiverSink)
	var gotSeq uint8
	var gotFrom uint16
	receiver.OnAck(func(seq uint8, from uint16) { gotSeq, gotFrom = seq, from })

	receiver.OnReceive(ackerSink.frames[0], 2, -40, 0)

	if gotSeq != 5 || gotFrom != 2 {
		t.Fatalf("got seq=%d from=%d, want seq=5 from=2", gotSeq, gotFrom)
	}
}

func TestNeighborsByLoadOrdersAscending(t *testing.T) {
	g := New(1, &fakeSender{})

	send := func(src uint16, load uint8) {
		hdr := Header{Opcode: OpHeartbeat, TTL: 1, SrcAddr: src, SeqNum: 0}
		payload := HeartbeatPayload{LoadPercent: load, ShardsHeld: 0, Epoch: 0, Neighbors: 0}
		g.OnReceive(payload.Marshal(hdr.Marshal(nil)), src, -50, 0)
	}
	send(10, 70)
	send(11, 20)
	send(12, 95)

	sorted := g.NeighborsByLoad()
	require.Len(t, sorted, 3)
	require.Equal(t, uint16(11), sorted[0].Addr)
	require.Equal(t, uint16(10), sorted[1].Addr)
	require.Equal(t, uint16(12), sorted[2].Addr)
}

func TestLoadRankReportsPositionAndMissingNeighbor(t *testing.T) {
	g := New(1, &fakeSender{})

	send := func(src uint16, load uint8) {
		hdr := Header{Opcode: OpHeartbeat, TTL: 1, SrcAddr: src, SeqNum: 0}
		payload := HeartbeatPayload{LoadPercent: load, ShardsHeld: 0, Epoch: 0, Neighbors: 0}
		g.OnReceive(payload.Marshal(hdr.Marshal(nil)), src, -50, 0)
	}
	send(10, 70)
	send(11, 20)

	rank, ok := g.LoadRank(11)
	require.True(t, ok)
	require.Equal(t, 0, rank)

	rank, ok = g.LoadRank(10)
	require.True(t, ok)
	require.Equal(t, 1, rank)

	_, ok = g.LoadRank(99)
	require.False(t, ok)
}
