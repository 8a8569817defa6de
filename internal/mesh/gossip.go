package mesh

import (
	"lumenmesh/internal/config"
	"lumenmesh/internal/shard"
)

// BroadcastAddr is the reserved destination address meaning "all neighbors
// in radio range", mirroring the BLE mesh advertisement model.
const BroadcastAddr uint16 = 0xFFFF

// initialTTL bounds how many hops a flooded frame survives.
const initialTTL uint8 = 3

// Sender abstracts the radio's mesh_send primitive so Gossip stays testable
// without a real BLE stack underneath it.
type Sender interface {
	MeshSend(dst uint16, frame []byte)
}

// Gossip is the mesh gossip protocol engine: it fragments and reassembles
// shards, deduplicates floods, tracks neighbors, and dispatches received
// frames by opcode.
type Gossip struct {
	selfAddr uint16
	sender   Sender

	seq       uint8
	neighbors neighborTable
	dedup     dedupRing
	pool      *reassemblyPool

	onShardReceived  func(*shard.Shard)
	onShardRequested func(id uint8, requester uint16)
	onAck            func(seq uint8, from uint16)
}

// New builds a Gossip node that sends through sender and identifies itself
// as selfAddr.
func New(selfAddr uint16, sender Sender) *Gossip {
	return &Gossip{
		selfAddr: selfAddr,
		sender:   sender,
		pool:     newReassemblyPool(),
	}
}

// OnShardReceived registers the callback invoked once a fragmented shard
// transfer completes and passes its checksum.
func (g *Gossip) OnShardReceived(fn func(*shard.Shard)) { g.onShardReceived = fn }

// OnShardRequested registers the callback invoked when a peer asks for a
// shard this node may hold.
func (g *Gossip) OnShardRequested(fn func(id uint8, requester uint16)) {
	g.onShardRequested = fn
}

// OnAck registers the callback invoked when an OpAck frame arrives.
func (g *Gossip) OnAck(fn func(seq uint8, from uint16)) { g.onAck = fn }

// Neighbors returns the currently tracked neighbor table.
func (g *Gossip) Neighbors() []Neighbor { return g.neighbors.all() }

// NeighborsByLoad returns the tracked neighbors ordered by ascending load,
// for callers (diagnostics, relay-target selection) that want the
// least-busy neighbor first.
func (g *Gossip) NeighborsByLoad() []Neighbor { return g.neighbors.sortedByLoad() }

// LoadRank reports addr's position (0 = least loaded) in the load-sorted
// neighbor list, or ok=false if addr is not a tracked neighbor.
func (g *Gossip) LoadRank(addr uint16) (rank int, ok bool) {
	sorted := g.neighbors.sortedByLoad()
	idx := indexOf(sorted, addr)
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// nextSeq returns the next outgoing sequence number, wrapping at 256.
func (g *Gossip) nextSeq() uint8 {
	s := g.seq
	g.seq++
	return s
}

func rssiToByte(rssi int8) uint8 { return uint8(int16(rssi) + 128) }

// OnReceive processes one inbound frame: reject-if-short, dedup, neighbor
// bookkeeping, then opcode dispatch. now is the scheduler tick the frame
// arrived on, recorded as the neighbor's LastSeen.
func (g *Gossip) OnReceive(data []byte, src uint16, rssi int8, now uint32) {
	hdr, ok := ParseHeader(data)
	if !ok {
		return
	}
	if g.dedup.seenOrRecord(src, hdr.SeqNum) {
		return
	}
	n := g.neighbors.findOrCreate(src)
	if n != nil {
		n.RSSI = rssiToByte(rssi)
		n.LastSeen = now
	}
	body := data[config.GossipHeaderSize:]

	switch hdr.Opcode {
	case OpShardFragment:
		g.handleFragment(body)
	case OpWeightUpdate:
		if len(body) >= config.ShardSize {
			var s shard.Shard
			if s.Unmarshal(body) && g.onShardReceived != nil {
				g.onShardReceived(&s)
			}
		} else if n != nil && len(body) >= 1 {
			n.SetHasShard(body[0], true)
		}
	case OpWeightRequest:
		if g.onShardRequested != nil && len(body) >= 1 {
			g.onShardRequested(body[0], src)
		}
	case OpHeartbeat:
		hb, ok := ParseHeartbeatPayload(body)
		if ok && n != nil {
			n.LoadPercent = hb.LoadPercent
			n.Epoch = hb.Epoch
		}
	case OpBackpressure:
		if n != nil && len(body) >= 1 {
			n.LoadPercent = body[0]
		}
	case OpAck:
		if g.onAck != nil && len(body) >= 1 {
			g.onAck(body[0], src)
		}
	default:
		// unknown opcode: drop silently, matching the reference firmware's
		// forward-compatible framing.
	}

	if hdr.TTL > 0 && hdr.Opcode == OpShardFragment {
		g.relay(data, hdr)
	}
}

// relay forwards a flooded frame on with a decremented TTL and this node's
// address as the new hop source, so dedup keys change per hop.
func (g *Gossip) relay(data []byte, hdr Header) {
	if hdr.SrcAddr == g.selfAddr {
		return
	}
	out := make([]byte, 0, len(data))
	hdr.TTL--
	out = hdr.Marshal(out)
	out = append(out, data[config.GossipHeaderSize:]...)
	g.sender.MeshSend(BroadcastAddr, out)
}

func (g *Gossip) handleFragment(body []byte) {
	info, ok := ParseFragmentInfo(body)
	if !ok {
		return
	}
	payload := body[config.FragmentInfoSize:]
	slot := g.pool.findOrAllocate(info.ShardID)
	if slot == nil {
		return
	}
	off := int(info.FragmentIdx) * config.FragmentSize
	if off+len(payload) > len(slot.buffer) {
		return
	}
	copy(slot.buffer[off:], payload)
	slot.receivedMask |= 1 << info.FragmentIdx

	if !slot.complete(info.TotalFragments) {
		return
	}
	var s shard.Shard
	if s.Unmarshal(slot.buffer[:]) && s.VerifyChecksum() && g.onShardReceived != nil {
		g.onShardReceived(&s)
	}
	slot.free()
}

// BroadcastShard fragments s into FragmentSize chunks and floods each as a
// separate OpShardFragment frame.
func (g *Gossip) BroadcastShard(s *shard.Shard) {
	raw := s.Marshal()
	total := uint8(len(raw) / config.FragmentSize)
	for idx := uint8(0); idx < total; idx++ {
		hdr := Header{
			Opcode:  OpShardFragment,
			TTL:     initialTTL,
			SrcAddr: g.selfAddr,
			SeqNum:  g.nextSeq(),
		}
		info := FragmentInfo{ShardID: s.Header.ShardID, FragmentIdx: idx, TotalFragments: total}

		frame := make([]byte, 0, config.GossipHeaderSize+config.FragmentInfoSize+config.FragmentSize)
		frame = hdr.Marshal(frame)
		frame = info.Marshal(frame)
		start := int(idx) * config.FragmentSize
		frame = append(frame, raw[start:start+config.FragmentSize]...)

		g.sender.MeshSend(BroadcastAddr, frame)
	}
}

// SendHeartbeat announces this node's load and holdings to the mesh.
func (g *Gossip) SendHeartbeat(loadPercent, shardsHeld uint8, epoch uint16) {
	hdr := Header{
		Opcode:  OpHeartbeat,
		TTL:     1,
		SrcAddr: g.selfAddr,
		SeqNum:  g.nextSeq(),
	}
	payload := HeartbeatPayload{
		LoadPercent: loadPercent,
		ShardsHeld:  shardsHeld,
		Epoch:       epoch,
		Neighbors:   uint8(len(g.neighbors.all())),
	}
	frame := make([]byte, 0, config.GossipHeaderSize+config.HeartbeatPayloadSize)
	frame = hdr.Marshal(frame)
	frame = payload.Marshal(frame)
	g.sender.MeshSend(BroadcastAddr, frame)
}

// RequestShard broadcasts a request for shard id to the whole mesh.
func (g *Gossip) RequestShard(id uint8) {
	g.requestShardTo(id, BroadcastAddr)
}

// RequestShardFrom targets the request at one known neighbor instead of
// flooding, useful once the neighbor table shows who already holds the
// shard. This is not in the original wire spec but follows naturally from
// it: the frame shape is identical, only the destination narrows.
func (g *Gossip) RequestShardFrom(id uint8, addr uint16) {
	g.requestShardTo(id, addr)
}

func (g *Gossip) requestShardTo(id uint8, dst uint16) {
	hdr := Header{
		Opcode:  OpWeightRequest,
		TTL:     initialTTL,
		SrcAddr: g.selfAddr,
		SeqNum:  g.nextSeq(),
	}
	frame := hdr.Marshal(make([]byte, 0, config.GossipHeaderSize+1))
	frame = append(frame, id)
	g.sender.MeshSend(dst, frame)
}

// AnnounceShard tells the mesh this node now holds shard id, without
// pushing the full payload.
func (g *Gossip) AnnounceShard(id uint8) {
	hdr := Header{
		Opcode:  OpWeightUpdate,
		TTL:     initialTTL,
		SrcAddr: g.selfAddr,
		SeqNum:  g.nextSeq(),
	}
	frame := hdr.Marshal(make([]byte, 0, config.GossipHeaderSize+1))
	frame = append(frame, id)
	g.sender.MeshSend(BroadcastAddr, frame)
}

// Ack acknowledges seq back to from.
func (g *Gossip) Ack(seq uint8, from uint16) {
	hdr := Header{
		Opcode:  OpAck,
		TTL:     1,
		SrcAddr: g.selfAddr,
		SeqNum:  g.nextSeq(),
	}
	frame := hdr.Marshal(make([]byte, 0, config.GossipHeaderSize+1))
	frame = append(frame, seq)
	g.sender.MeshSend(from, frame)
}

// ShouldThrottle reports whether a majority of known neighbors are above
// 80% load, signaling this node should back off on broadcasting.
func (g *Gossip) ShouldThrottle() bool {
	all := g.neighbors.all()
	if len(all) == 0 {
		return false
	}
	loaded := 0
	for _, n := range all {
		if n.LoadPercent > 80 {
			loaded++
		}
	}
	return loaded*2 > len(all)
}
