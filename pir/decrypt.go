package pir

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DecryptionContext solves the bounded discrete logs left by EC-ElGamal
// decryption using an mG table.
type DecryptionContext struct {
	table  *Table
	crypto Crypto
	log    zerolog.Logger
}

func NewDecryptionContext(crypto Crypto, table *Table) *DecryptionContext {
	return &DecryptionContext{table: table, crypto: crypto, log: Logger("decrypt")}
}

// LoadDecryptionContext uses a table persisted with Table.Bytes.
func LoadDecryptionContext(crypto Crypto, buf []byte) (*DecryptionContext, error) {
	table, err := LoadTable(buf)
	if err != nil {
		return nil, err
	}
	return NewDecryptionContext(crypto, table), nil
}

// GenerateDecryptionContext builds a fresh table with BuildTable.
func GenerateDecryptionContext(ctx context.Context, crypto Crypto, opts BuildOptions) (*DecryptionContext, error) {
	table, err := BuildTable(ctx, crypto, opts)
	if err != nil {
		return nil, err
	}
	return NewDecryptionContext(crypto, table), nil
}

func (dc *DecryptionContext) Table() *Table {
	return dc.table
}

func (dc *DecryptionContext) Crypto() Crypto {
	return dc.crypto
}

// Decrypt decrypts a batch of ciphertexts and writes packing little-endian
// bytes of each plaintext, in ciphertext order. The batch is split across
// workers goroutines; the output does not depend on workers.
func (dc *DecryptionContext) Decrypt(ctx context.Context, ciphers, privkey []byte, packing, workers int) ([]byte, error) {
	if workers < 1 {
		return nil, configErrorf("worker count %d", workers)
	}
	if packing < 1 || packing > MaxPacking {
		return nil, configErrorf("packing %d out of range [1, %d]", packing, MaxPacking)
	}
	if len(ciphers)%CipherSize != 0 {
		return nil, configErrorf("ciphertext buffer length %d is not a multiple of %d", len(ciphers), CipherSize)
	}
	if len(privkey) != ScalarSize {
		return nil, configErrorf("private key length %d", len(privkey))
	}
	count := len(ciphers) / CipherSize

	parts, err := runRound(ctx, partition(count, workers), func(ctx context.Context, _ int, s span) ([]byte, error) {
		points := make([]byte, 0, s.Len()*PointSize)
		for i := s.Begin; i < s.End; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p, err := dc.crypto.DecryptPoint(ciphers[i*CipherSize:(i+1)*CipherSize], privkey)
			if err != nil {
				return nil, errors.Wrapf(err, "ciphertext %d", i)
			}
			points = append(points, p...)
		}
		return points, nil
	})
	if err != nil {
		dc.log.Error().Err(err).Int("ciphers", count).Msg("decryption round failed")
		return nil, err
	}
	points := concat(parts)

	out := make([]byte, count*packing)
	var failed []int
	for i := 0; i < count; i++ {
		m, ok := dc.table.Lookup(points[i*PointSize : (i+1)*PointSize])
		if !ok {
			failed = append(failed, i)
			continue
		}
		for p := 0; p < packing; p++ {
			out[i*packing+p] = byte(m >> (8 * p))
		}
	}
	if len(failed) > 0 {
		dc.log.Warn().Int("failed", len(failed)).Int("ciphers", count).Msg("plaintext not in mG table")
		return nil, &DecodeError{Indices: failed}
	}
	return out, nil
}

// DecryptReply peels the dimension layers of a PIR reply. Each phase's output
// is the next phase's ciphertext batch, with any trailing partial ciphertext
// dropped; the last phase's output is returned as is.
func (dc *DecryptionContext) DecryptReply(ctx context.Context, reply, privkey []byte, dimension, packing, workers int) ([]byte, error) {
	if dimension < 1 {
		return nil, configErrorf("dimension %d", dimension)
	}
	midstate := reply
	for phase := 0; phase < dimension; phase++ {
		decrypted, err := dc.Decrypt(ctx, midstate, privkey, packing, workers)
		if err != nil {
			return nil, errors.WithMessagef(err, "phase %d", phase)
		}
		if phase == dimension-1 {
			midstate = decrypted
		} else {
			midstate = decrypted[:len(decrypted)-len(decrypted)%CipherSize]
		}
	}
	return midstate, nil
}
