package pir

import (
	"context"
	"math/bits"

	"github.com/pkg/errors"
)

// MaxDimensions is the largest number of index counts a selector can have.
const MaxDimensions = 255

type SelectorOptions struct {
	// Key is a public key, or the private key when Fast is set.
	Key []byte
	// IndexCounts is the size of the index space in every dimension.
	IndexCounts []uint64
	Index       uint64
	Fast        bool
	Workers     int
}

// SelectorCiphersCount is the number of ciphertext slots of a selector.
func SelectorCiphersCount(counts []uint64) uint64 {
	var n uint64
	for _, c := range counts {
		n += c
	}
	return n
}

// SelectorElementsCount is the number of database elements a selector can
// address. ok is false on overflow.
func SelectorElementsCount(counts []uint64) (n uint64, ok bool) {
	n = 1
	for _, c := range counts {
		hi, lo := bits.Mul64(n, c)
		if hi != 0 {
			return 0, false
		}
		n = lo
	}
	return n, true
}

func (o SelectorOptions) validate() error {
	if len(o.Key) != ScalarSize {
		return configErrorf("key length %d", len(o.Key))
	}
	if len(o.IndexCounts) == 0 || len(o.IndexCounts) > MaxDimensions {
		return configErrorf("%d index counts, want 1 to %d", len(o.IndexCounts), MaxDimensions)
	}
	for i, c := range o.IndexCounts {
		if c == 0 {
			return configErrorf("index count %d is zero", i)
		}
	}
	elements, ok := SelectorElementsCount(o.IndexCounts)
	if !ok {
		return configErrorf("index counts %v overflow", o.IndexCounts)
	}
	if o.Index >= elements {
		return configErrorf("index %d out of range [0, %d)", o.Index, elements)
	}
	if SelectorCiphersCount(o.IndexCounts) > uint64(maxInt/CipherSize) {
		return configErrorf("selector too large")
	}
	if o.Workers < 1 {
		return configErrorf("worker count %d", o.Workers)
	}
	return nil
}

// selectorChoice decomposes idx over the index counts, most significant
// dimension first, and returns one flag per slot that is set on the chosen
// row of every dimension.
func selectorChoice(counts []uint64, idx uint64) []bool {
	prod, _ := SelectorElementsCount(counts)
	choice := make([]bool, 0, SelectorCiphersCount(counts))
	for _, cols := range counts {
		prod /= cols
		row := idx / prod
		idx -= row * prod
		for r := uint64(0); r < cols; r++ {
			choice = append(choice, r == row)
		}
	}
	return choice
}

// CreateSelector encrypts the one-hot encoding of opts.Index. Slots are
// blinded in parallel with fresh randomness and laid out in slot order.
func CreateSelector(ctx context.Context, crypto Crypto, opts SelectorOptions) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := Logger("selector")

	// The choice is computed by a single designated worker.
	choices, err := runRound(ctx, []span{{0, 1}}, func(context.Context, int, span) ([]bool, error) {
		return selectorChoice(opts.IndexCounts, opts.Index), nil
	})
	if err != nil {
		return nil, err
	}
	choice := choices[0]

	spans := partition(len(choice), opts.Workers)
	randoms := make([][]byte, len(spans))
	for i, s := range spans {
		if randoms[i], err = crypto.RandomBytes(s.Len() * ScalarSize); err != nil {
			return nil, errors.Wrap(err, "selector randomness")
		}
		if len(randoms[i]) != s.Len()*ScalarSize {
			return nil, errors.Errorf("selector randomness: got %d bytes, want %d", len(randoms[i]), s.Len()*ScalarSize)
		}
	}
	parts, err := runRound(ctx, spans, func(ctx context.Context, i int, s span) ([]byte, error) {
		random := randoms[i]
		out := make([]byte, 0, s.Len()*CipherSize)
		for j := 0; j < s.Len(); j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			slot, err := crypto.SelectorSlot(random[j*ScalarSize:(j+1)*ScalarSize], opts.Key, choice[s.Begin+j], opts.Fast)
			if err != nil {
				return nil, errors.Wrapf(err, "slot %d", s.Begin+j)
			}
			out = append(out, slot...)
		}
		return out, nil
	})
	if err != nil {
		log.Error().Err(err).Msg("selector round failed")
		return nil, err
	}
	log.Debug().Int("slots", len(choice)).Int("workers", len(spans)).Bool("fast", opts.Fast).Msg("selector created")
	return concat(parts), nil
}
