package pir

import (
	"io"
	"testing"

	"gotest.tools/assert"
)

func TestDeterministicReaderChunking(t *testing.T) {
	const n = 20000
	whole := make([]byte, n)
	_, err := io.ReadFull(NewDeterministicReader([]byte("seed")), whole)
	assert.NilError(t, err)

	r := NewDeterministicReader([]byte("seed"))
	var pieces []byte
	for size := 1; len(pieces) < n; size = size*3 + 1 {
		buf := make([]byte, min(size, n-len(pieces)))
		_, err := io.ReadFull(r, buf)
		assert.NilError(t, err)
		pieces = append(pieces, buf...)
	}
	assert.DeepEqual(t, pieces, whole)

	other := make([]byte, 64)
	_, err = io.ReadFull(NewDeterministicReader([]byte("other")), other)
	assert.NilError(t, err)
	assert.Check(t, string(other) != string(whole[:64]))
}

func TestCryptoRand(t *testing.T) {
	r := CryptoRand()
	seen := map[int64]bool{}
	for i := 0; i < 16; i++ {
		seen[r.Int63()] = true
	}
	assert.Check(t, len(seen) > 1)
	for i := 0; i < 100; i++ {
		n := r.Intn(7)
		assert.Assert(t, n >= 0 && n < 7)
	}
	assert.Assert(t, r.Int63() >= 0)
}

func TestCryptoRandCannotBeSeeded(t *testing.T) {
	defer func() {
		assert.Check(t, recover() != nil)
	}()
	CryptoRand().Seed(1)
}
