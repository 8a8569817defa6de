// Package mesh implements the Mesh Gossip protocol (M): frame
// fragmentation/reassembly of 4 KiB shards across a small MTU,
// deduplication, neighbor tracking, backpressure, and weighted shard
// delivery to the engine.
//
// Wire structures here are never host-native Go structs reinterpreted as
// bytes (Go struct layout is not a wire contract); every frame is packed
// and parsed explicitly against its exact byte layout via encoding/binary.
package mesh

import (
	"encoding/binary"

	"lumenmesh/internal/config"
)

// Opcode identifies a gossip message type.
type Opcode uint8

const (
	OpWeightUpdate  Opcode = 0xC0
	OpWeightRequest Opcode = 0xC1
	OpHeartbeat     Opcode = 0xC2
	OpBackpressure  Opcode = 0xC3
	OpShardFragment Opcode = 0xC4
	OpAck           Opcode = 0xC5
)

// Header is the 6-byte frame header shared by every gossip message.
type Header struct {
	Opcode  Opcode
	TTL     uint8
	SrcAddr uint16
	SeqNum  uint8
	Flags   uint8
}

// Marshal appends the encoded header to buf and returns the result.
func (h Header) Marshal(buf []byte) []byte {
	var b [config.GossipHeaderSize]byte
	b[0] = byte(h.Opcode)
	b[1] = h.TTL
	binary.LittleEndian.PutUint16(b[2:4], h.SrcAddr)
	b[4] = h.SeqNum
	b[5] = h.Flags
	return append(buf, b[:]...)
}

// ParseHeader decodes a Header from the front of data. ok is false if data
// is shorter than the header.
func ParseHeader(data []byte) (Header, bool) {
	if len(data) < config.GossipHeaderSize {
		return Header{}, false
	}
	return Header{
		Opcode:  Opcode(data[0]),
		TTL:     data[1],
		SrcAddr: binary.LittleEndian.Uint16(data[2:4]),
		SeqNum:  data[4],
		Flags:   data[5],
	}, true
}

// FragmentInfo precedes a shard fragment's payload bytes.
type FragmentInfo struct {
	ShardID        uint8
	FragmentIdx    uint8
	TotalFragments uint8
}

// Marshal appends the encoded FragmentInfo to buf.
func (f FragmentInfo) Marshal(buf []byte) []byte {
	return append(buf, f.ShardID, f.FragmentIdx, f.TotalFragments, 0)
}

// ParseFragmentInfo decodes a FragmentInfo from the front of data.
func ParseFragmentInfo(data []byte) (FragmentInfo, bool) {
	if len(data) < config.FragmentInfoSize {
		return FragmentInfo{}, false
	}
	return FragmentInfo{
		ShardID:        data[0],
		FragmentIdx:    data[1],
		TotalFragments: data[2],
	}, true
}

// HeartbeatPayload announces presence, load, and training epoch.
type HeartbeatPayload struct {
	LoadPercent uint8
	ShardsHeld  uint8
	Epoch       uint16
	Neighbors   uint8
}

// Marshal appends the encoded HeartbeatPayload to buf.
func (h HeartbeatPayload) Marshal(buf []byte) []byte {
	var b [config.HeartbeatPayloadSize]byte
	b[0] = h.LoadPercent
	b[1] = h.ShardsHeld
	binary.LittleEndian.PutUint16(b[2:4], h.Epoch)
	b[4] = h.Neighbors
	return append(buf, b[:]...)
}

// ParseHeartbeatPayload decodes a HeartbeatPayload from the front of data.
func ParseHeartbeatPayload(data []byte) (HeartbeatPayload, bool) {
	if len(data) < config.HeartbeatPayloadSize {
		return HeartbeatPayload{}, false
	}
	return HeartbeatPayload{
		LoadPercent: data[0],
		ShardsHeld:  data[1],
		Epoch:       binary.LittleEndian.Uint16(data[2:4]),
		Neighbors:   data[4],
	}, true
}
