package pir

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"
	mrand "math/rand"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// cryptoSource feeds math/rand from crypto/rand, for choices a server must
// not be able to predict, such as which row a benchmark queries.
type cryptoSource struct{}

func (s cryptoSource) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

func (cryptoSource) Uint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(errors.Wrap(err, "reading crypto/rand"))
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func (cryptoSource) Seed(int64) {
	panic("cryptoSource cannot be seeded")
}

// CryptoRand returns an unpredictable math/rand generator.
func CryptoRand() *mrand.Rand {
	return mrand.New(cryptoSource{})
}

// NewDeterministicReader returns an endless reproducible byte stream derived
// from seed with HKDF-SHA256. It is meant for tests and benchmarks that need
// repeatable selectors, never for real keys.
func NewDeterministicReader(seed []byte) io.Reader {
	return &deterministicReader{seed: seed, pos: sha256.Size}
}

// deterministicReader chains HKDF instances since a single one is limited to
// 255 hash blocks of output. It reads them one block at a time so the stream
// does not depend on how callers size their reads.
type deterministicReader struct {
	seed    []byte
	counter uint64
	cur     io.Reader
	block   [sha256.Size]byte
	pos     int
}

func (r *deterministicReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.pos == len(r.block) {
			r.refill()
		}
		m := copy(p[n:], r.block[r.pos:])
		r.pos += m
		n += m
	}
	return n, nil
}

func (r *deterministicReader) refill() {
	for {
		if r.cur == nil {
			var info [8]byte
			binary.BigEndian.PutUint64(info[:], r.counter)
			r.counter++
			r.cur = hkdf.New(sha256.New, r.seed, nil, info[:])
		}
		if _, err := io.ReadFull(r.cur, r.block[:]); err == nil {
			r.pos = 0
			return
		}
		r.cur = nil
	}
}
