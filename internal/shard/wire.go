package shard

import (
	"encoding/binary"

	"lumenmesh/internal/config"
)

// Marshal encodes the shard to its exact on-wire/on-flash byte layout:
// a 12-byte header followed by the raw weight payload.
func (s *Shard) Marshal() []byte {
	buf := make([]byte, config.ShardSize)
	buf[0] = s.Header.ShardID
	buf[1] = s.Header.Version
	binary.LittleEndian.PutUint16(buf[2:4], s.Header.Checksum)
	binary.LittleEndian.PutUint32(buf[4:8], s.Header.GlobalEpoch)
	buf[8] = s.Header.Contributors
	// buf[9:12] reserved, left zero
	for i, w := range s.Weights {
		buf[config.ShardHeaderSize+i] = byte(w)
	}
	return buf
}

// Unmarshal decodes data into s. data must be at least ShardSize bytes.
// Returns false if data is too short.
func (s *Shard) Unmarshal(data []byte) bool {
	if len(data) < config.ShardSize {
		return false
	}
	s.Header.ShardID = data[0]
	s.Header.Version = data[1]
	s.Header.Checksum = binary.LittleEndian.Uint16(data[2:4])
	s.Header.GlobalEpoch = binary.LittleEndian.Uint32(data[4:8])
	s.Header.Contributors = data[8]
	for i := range s.Weights {
		s.Weights[i] = int8(data[config.ShardHeaderSize+i])
	}
	return true
}
