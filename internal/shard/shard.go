// Package shard implements the Weight Shard (S): a fixed 4 KiB fragment of
// the sharded model, self-describing and CRC-protected. Shards are mutated
// only by apply_gradient (local SGD step) and fed_avg (federated merge);
// everything else about a shard is derived from those two operations plus
// init.
package shard

import (
	"math"

	"lumenmesh/internal/config"
)

// Header is the 12-byte on-wire and on-flash shard header. Field order and
// widths are the wire contract and must never be reordered.
type Header struct {
	ShardID      uint8
	Version      uint8
	Checksum     uint16
	GlobalEpoch  uint32
	Contributors uint8
	reserved     [3]byte
}

// Shard is a fixed-size 4 KiB record: header plus int8 weight payload.
type Shard struct {
	Header  Header
	Weights [config.ShardPayloadSize]int8
}

// New builds a zero-valued shard with no header fields set. Use Init for a
// shard ready to train on.
func New() *Shard {
	return &Shard{}
}

// Init deterministically seeds a shard for the given id: version 1,
// contributors 1, and a pseudo-random payload derived from both the weight
// index and the shard id.
func (s *Shard) Init(id uint8) {
	*s = Shard{}
	s.Header.ShardID = id
	s.Header.Version = 1
	s.Header.Contributors = 1
	for i := range s.Weights {
		s.Weights[i] = int8((int(i)*7+int(id))%17 - 8)
	}
	s.UpdateChecksum()
}

// UpdateChecksum recomputes and stores the CRC-16/CCITT of the weight
// payload (header excluded).
func (s *Shard) UpdateChecksum() {
	s.Header.Checksum = crc16CCITT(weightBytes(&s.Weights))
}

// VerifyChecksum reports whether the stored checksum matches the payload.
func (s *Shard) VerifyChecksum() bool {
	return s.Header.Checksum == crc16CCITT(weightBytes(&s.Weights))
}

// ApplyGradient performs one fixed-point SGD step: w[i] -= (grad[i] *
// round(lr*256)) >> 8, saturating to the int8 range, over
// min(count, len(Weights)) elements. It increments Version and recomputes
// the checksum.
func (s *Shard) ApplyGradient(grads []int8, count int, lr float64) {
	lrFixed := int16(math.Round(lr * 256))
	n := count
	if n > len(grads) {
		n = len(grads)
	}
	if n > len(s.Weights) {
		n = len(s.Weights)
	}
	for i := 0; i < n; i++ {
		update := (int32(grads[i]) * int32(lrFixed)) >> 8
		s.Weights[i] = saturateInt8(int32(s.Weights[i]) - update)
	}
	s.Header.Version++
	s.UpdateChecksum()
}

// FedAvg merges other into s as a contributor-weighted mean. It is a no-op
// if shard ids differ, other's checksum is invalid, or the combined
// contributor count is zero.
func (s *Shard) FedAvg(other *Shard) {
	if other == nil || other.Header.ShardID != s.Header.ShardID {
		return
	}
	if !other.VerifyChecksum() {
		return
	}
	a := int32(s.Header.Contributors)
	b := int32(other.Header.Contributors)
	total := a + b
	if total == 0 {
		return
	}
	for i := range s.Weights {
		merged := (int32(s.Weights[i])*a + int32(other.Weights[i])*b) / total
		s.Weights[i] = int8(merged)
	}
	if total > 255 {
		total = 255
	}
	s.Header.Contributors = uint8(total)
	s.Header.Version++
	if other.Header.GlobalEpoch > s.Header.GlobalEpoch {
		s.Header.GlobalEpoch = other.Header.GlobalEpoch
	}
	s.UpdateChecksum()
}

func saturateInt8(v int32) int8 {
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}

func weightBytes(w *[config.ShardPayloadSize]int8) []byte {
	b := make([]byte, len(w))
	for i, v := range w {
		b[i] = byte(v)
	}
	return b
}
