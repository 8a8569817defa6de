package shard

// crc16CCITT computes CRC-16/CCITT (poly 0x1021, init 0xFFFF, no final XOR)
// over data. No ecosystem package in this corpus offers a CRC-16 variant
// with these exact parameters (only stdlib hash/crc32 and hash/adler32
// appear anywhere in the pack), and the bit-exact polynomial/init/no-XOR
// triple is part of the wire contract itself, so it is
// hand-rolled rather than pulled from a generic CRC library that might
// default to a different reflect/xorout convention.
func crc16CCITT(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
