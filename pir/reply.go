package pir

import (
	"context"

	"github.com/pkg/errors"
)

// chunkValue reads the t-th packing-byte little-endian chunk of elem; bytes
// past the end of elem count as zero.
func chunkValue(elem []byte, t, packing int) uint64 {
	var v uint64
	for p := 0; p < packing; p++ {
		if i := t*packing + p; i < len(elem) {
			v |= uint64(elem[i]) << (8 * p)
		}
	}
	return v
}

// ComputeReply answers a selector over db. Dimension d folds the elements,
// viewed as counts[d] rows of P/counts[d] columns, into one element per column
// by a homomorphic inner product with that dimension's slots. Every packing
// bytes of an element become one ciphertext, so the next dimension works on
// elements of ceil(size/packing)*CipherSize bytes. Rows past db.NumRows are zero.
func ComputeReply(ctx context.Context, ev Evaluator, db *StaticDB, selector []byte, counts []uint64, packing, workers int) ([]byte, error) {
	if workers < 1 {
		return nil, configErrorf("worker count %d", workers)
	}
	if packing < 1 || packing > MaxPacking {
		return nil, configErrorf("packing %d out of range [1, %d]", packing, MaxPacking)
	}
	if db.RowLen < 1 {
		return nil, configErrorf("row length %d", db.RowLen)
	}
	if len(counts) == 0 || len(counts) > MaxDimensions {
		return nil, configErrorf("%d index counts, want 1 to %d", len(counts), MaxDimensions)
	}
	for i, c := range counts {
		if c == 0 {
			return nil, configErrorf("index count %d is zero", i)
		}
	}
	elements, ok := SelectorElementsCount(counts)
	if !ok || elements > uint64(maxInt/db.RowLen) {
		return nil, configErrorf("index counts %v too large", counts)
	}
	if elements < uint64(db.NumRows) {
		return nil, configErrorf("index counts %v address %d elements, database has %d", counts, elements, db.NumRows)
	}
	if uint64(len(selector)) != SelectorCiphersCount(counts)*CipherSize {
		return nil, configErrorf("selector length %d does not match index counts %v", len(selector), counts)
	}
	log := Logger("reply")

	size := db.RowLen
	data := make([]byte, int(elements)*size)
	copy(data, db.FlatDb[:db.NumRows*db.RowLen])
	offset := 0
	for d, c64 := range counts {
		c := int(c64)
		stride := len(data) / size / c
		chunks := (size + packing - 1) / packing
		slots := selector[offset*CipherSize : (offset+c)*CipherSize]
		offset += c

		parts, err := runRound(ctx, partition(stride*chunks, workers), func(ctx context.Context, _ int, s span) ([]byte, error) {
			out := make([]byte, 0, s.Len()*CipherSize)
			for q := s.Begin; q < s.End; q++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				k, t := q/chunks, q%chunks
				acc := ev.ZeroCipher()
				for r := 0; r < c; r++ {
					elem := data[(r*stride+k)*size : (r*stride+k+1)*size]
					v := chunkValue(elem, t, packing)
					if v == 0 {
						continue
					}
					if err := ev.MulAddCipher(acc, slots[r*CipherSize:(r+1)*CipherSize], v); err != nil {
						return nil, errors.Wrapf(err, "dimension %d column %d", d, k)
					}
				}
				out = append(out, acc...)
			}
			return out, nil
		})
		if err != nil {
			log.Error().Err(err).Int("dimension", d).Msg("reply round failed")
			return nil, err
		}
		data = concat(parts)
		size = chunks * CipherSize
	}
	log.Debug().Int("bytes", len(data)).Int("dimensions", len(counts)).Msg("reply computed")
	return data, nil
}
