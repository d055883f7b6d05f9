package pir

import (
	"bytes"
	"encoding/binary"
	"math/bits"
)

// probeKey reads the first four bytes of a point big-endian. It only steers
// where the search probes next.
func probeKey(point []byte) int64 {
	return int64(binary.BigEndian.Uint32(point[:4]))
}

// Lookup finds m such that point is the encoding of m*G. Point encodings are
// close to uniformly distributed, so an interpolation search on their leading
// bytes needs far fewer probes than a binary search.
func (t *Table) Lookup(point []byte) (uint32, bool) {
	if len(point) != PointSize {
		return 0, false
	}
	imin, imax := 0, t.n-1
	left, right := probeKey(t.point(imin)), probeKey(t.point(imax))
	my := probeKey(point)
	for imin <= imax {
		imid := imin + (imax-imin)/2
		if right > left {
			// Keys outside [left, right] clamp to the ends of the range.
			switch {
			case my <= left:
				imid = imin
			case my >= right:
				imid = imax
			default:
				hi, lo := bits.Mul64(uint64(imax-imin), uint64(my-left))
				q, _ := bits.Div64(hi, lo, uint64(right-left))
				imid = imin + int(q)
			}
		}

		probe := t.point(imid)
		switch cmp := bytes.Compare(probe, point); {
		case cmp < 0:
			imin = imid + 1
			left = probeKey(probe)
		case cmp > 0:
			imax = imid - 1
			right = probeKey(probe)
		default:
			return binary.LittleEndian.Uint32(t.buf[imid*RecordSize+PointSize:]), true
		}
	}
	return 0, false
}
