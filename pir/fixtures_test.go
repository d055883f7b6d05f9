package pir

import (
	"context"
	"runtime"
	"sync"
	"testing"

	"github.com/dimakogan/ecpir/ecelgamal"
	"gotest.tools/assert"
)

const (
	smallBits = 12
	largeBits = 16
)

var (
	_ Crypto      = (*ecelgamal.Backend)(nil)
	_ PointRanger = (*ecelgamal.Backend)(nil)
	_ Evaluator   = (*ecelgamal.Backend)(nil)
)

var (
	testBackend = ecelgamal.New()

	tablesMu sync.Mutex
	tables   = map[int]*Table{}
)

// testTable builds a table of 2^bits records once per test binary.
func testTable(t testing.TB, bits int) *Table {
	t.Helper()
	tablesMu.Lock()
	defer tablesMu.Unlock()
	if tbl, ok := tables[bits]; ok {
		return tbl
	}
	tbl, err := BuildTable(context.Background(), testBackend, BuildOptions{Bits: bits, Workers: runtime.NumCPU()})
	assert.NilError(t, err)
	tables[bits] = tbl
	return tbl
}

func testContext(t testing.TB, bits int) *DecryptionContext {
	return NewDecryptionContext(testBackend, testTable(t, bits))
}

func testKeys(t testing.TB) (priv, pub []byte) {
	t.Helper()
	b := ecelgamal.New(ecelgamal.WithRandom(NewDeterministicReader(TestSeed())))
	priv, err := b.GeneratePrivateKey()
	assert.NilError(t, err)
	pub, err = b.PublicKey(priv)
	assert.NilError(t, err)
	return priv, pub
}

// encryptAll encrypts every value under pub with reproducible randomness.
func encryptAll(t testing.TB, pub []byte, values []uint64) []byte {
	t.Helper()
	rnd := NewDeterministicReader([]byte("encryptAll"))
	out := make([]byte, 0, len(values)*CipherSize)
	for _, v := range values {
		r := make([]byte, ScalarSize)
		_, err := rnd.Read(r)
		assert.NilError(t, err)
		c, err := testBackend.Encrypt(pub, v, r)
		assert.NilError(t, err)
		out = append(out, c...)
	}
	return out
}

// failingCrypto fails DecryptPoint for one ciphertext.
type failingCrypto struct {
	Crypto
	failOn []byte
}

func (c failingCrypto) DecryptPoint(cipher, privkey []byte) ([]byte, error) {
	if string(cipher) == string(c.failOn) {
		return nil, ecelgamal.ErrInvalidPoint
	}
	return c.Crypto.DecryptPoint(cipher, privkey)
}

// plainCrypto hides the PointRanger fast path.
type plainCrypto struct {
	Crypto
}
