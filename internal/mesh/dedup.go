package mesh

import "lumenmesh/internal/config"

// dedupRing remembers the last DedupRingSize (src, seq) pairs seen, to drop
// mesh flood duplicates. occupied tracks which slots hold a real entry, so
// the zero value (src 0, seq 0) from an untouched slot never falsely
// matches a genuine first frame from address 0 with sequence 0.
type dedupRing struct {
	src      [config.DedupRingSize]uint16
	seq      [config.DedupRingSize]uint8
	occupied [config.DedupRingSize]bool
	idx      int
}

// seenOrRecord reports whether (src, seq) was already seen; if not, it
// records it, replacing the oldest entry.
func (d *dedupRing) seenOrRecord(src uint16, seq uint8) bool {
	for i := 0; i < config.DedupRingSize; i++ {
		if d.occupied[i] && d.src[i] == src && d.seq[i] == seq {
			return true
		}
	}
	d.src[d.idx] = src
	d.seq[d.idx] = seq
	d.occupied[d.idx] = true
	d.idx = (d.idx + 1) % config.DedupRingSize
	return false
}
