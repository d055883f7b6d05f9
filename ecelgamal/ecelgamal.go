// Package ecelgamal implements additively homomorphic ElGamal over
// edwards25519: messages are encrypted as m*G, so ciphertexts can be added and
// multiplied by small constants, and decryption leaves m*G for the caller to
// solve.
//
// Points use the canonical 32-byte edwards25519 compression, scalars 32-byte
// little-endian canonical encodings. A ciphertext is c1||c2 with c1 = r*G.
package ecelgamal

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	"filippo.io/edwards25519"
	"github.com/pkg/errors"
)

const (
	PointSize  = 32
	ScalarSize = 32
	CipherSize = 2 * PointSize
)

var ErrInvalidPoint = errors.New("invalid edwards25519 point")
var ErrInvalidScalar = errors.New("invalid edwards25519 scalar")

type Backend struct {
	mu   sync.Mutex
	rand io.Reader
}

type Option func(*Backend)

// WithRandom replaces crypto/rand as the source of keys and selector
// randomness. Reads are serialized, so r need not be safe for concurrent use.
func WithRandom(r io.Reader) Option {
	return func(b *Backend) {
		b.rand = r
	}
}

func New(opts ...Option) *Backend {
	b := &Backend{rand: rand.Reader}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.ReadFull(b.rand, buf); err != nil {
		return nil, errors.Wrap(err, "reading randomness")
	}
	return buf, nil
}

func (b *Backend) GeneratePrivateKey() ([]byte, error) {
	seed, err := b.RandomBytes(64)
	if err != nil {
		return nil, err
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(seed)
	if err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func (b *Backend) PublicKey(privkey []byte) ([]byte, error) {
	s, err := scalar(privkey)
	if err != nil {
		return nil, err
	}
	return new(edwards25519.Point).ScalarBaseMult(s).Bytes(), nil
}

func (b *Backend) DecryptPoint(cipher, privkey []byte) ([]byte, error) {
	s, err := scalar(privkey)
	if err != nil {
		return nil, err
	}
	c1, c2, err := splitCipher(cipher)
	if err != nil {
		return nil, err
	}
	shared := new(edwards25519.Point).ScalarMult(s, c1)
	return new(edwards25519.Point).Subtract(c2, shared).Bytes(), nil
}

func (b *Backend) ScalarToPoint(m uint64) ([]byte, error) {
	return new(edwards25519.Point).ScalarBaseMult(smallScalar(m)).Bytes(), nil
}

// ScalarRangeToPoints walks start*G, (start+1)*G, ... with one point addition
// per step.
func (b *Backend) ScalarRangeToPoints(start uint64, dst []byte) error {
	if len(dst)%PointSize != 0 {
		return errors.Errorf("destination length %d is not a multiple of %d", len(dst), PointSize)
	}
	g := edwards25519.NewGeneratorPoint()
	p := new(edwards25519.Point).ScalarBaseMult(smallScalar(start))
	for off := 0; off < len(dst); off += PointSize {
		copy(dst[off:], p.Bytes())
		p.Add(p, g)
	}
	return nil
}

// Encrypt returns (r*G, r*pubkey + m*G).
func (b *Backend) Encrypt(pubkey []byte, m uint64, random []byte) ([]byte, error) {
	pub, err := new(edwards25519.Point).SetBytes(pubkey)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPoint, "public key")
	}
	r, err := randomScalar(random)
	if err != nil {
		return nil, err
	}
	c1 := new(edwards25519.Point).ScalarBaseMult(r)
	c2 := new(edwards25519.Point).VarTimeDoubleScalarBaseMult(r, pub, smallScalar(m))
	return joinCipher(c1, c2), nil
}

// EncryptFast returns (r*G, (r*privkey + m)*G): the same ciphertext as Encrypt
// under the matching public key, computed with two base point multiplications.
func (b *Backend) EncryptFast(privkey []byte, m uint64, random []byte) ([]byte, error) {
	priv, err := scalar(privkey)
	if err != nil {
		return nil, err
	}
	r, err := randomScalar(random)
	if err != nil {
		return nil, err
	}
	c1 := new(edwards25519.Point).ScalarBaseMult(r)
	e := edwards25519.NewScalar().MultiplyAdd(r, priv, smallScalar(m))
	c2 := new(edwards25519.Point).ScalarBaseMult(e)
	return joinCipher(c1, c2), nil
}

func (b *Backend) SelectorSlot(random, key []byte, choice, fast bool) ([]byte, error) {
	var m uint64
	if choice {
		m = 1
	}
	if fast {
		return b.EncryptFast(key, m, random)
	}
	return b.Encrypt(key, m, random)
}

// ZeroCipher returns (O, O), the encryption of zero with zero randomness.
func (b *Backend) ZeroCipher() []byte {
	id := edwards25519.NewIdentityPoint()
	return joinCipher(id, id)
}

func (b *Backend) MulAddCipher(acc, cipher []byte, k uint64) error {
	a1, a2, err := splitCipher(acc)
	if err != nil {
		return err
	}
	c1, c2, err := splitCipher(cipher)
	if err != nil {
		return err
	}
	ks := smallScalar(k)
	a1.Add(a1, new(edwards25519.Point).ScalarMult(ks, c1))
	a2.Add(a2, new(edwards25519.Point).ScalarMult(ks, c2))
	copy(acc[:PointSize], a1.Bytes())
	copy(acc[PointSize:], a2.Bytes())
	return nil
}

func scalar(b []byte) (*edwards25519.Scalar, error) {
	if len(b) != ScalarSize {
		return nil, errors.Wrapf(ErrInvalidScalar, "length %d", len(b))
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidScalar, "not canonical")
	}
	return s, nil
}

// randomScalar reduces 32 random bytes modulo the group order.
func randomScalar(random []byte) (*edwards25519.Scalar, error) {
	if len(random) != ScalarSize {
		return nil, errors.Wrapf(ErrInvalidScalar, "randomness length %d", len(random))
	}
	var wide [64]byte
	copy(wide[:], random)
	return edwards25519.NewScalar().SetUniformBytes(wide[:])
}

func smallScalar(m uint64) *edwards25519.Scalar {
	var buf [ScalarSize]byte
	binary.LittleEndian.PutUint64(buf[:], m)
	s, err := edwards25519.NewScalar().SetCanonicalBytes(buf[:])
	if err != nil {
		// Any value below 2^64 is canonical.
		panic(err)
	}
	return s
}

func splitCipher(cipher []byte) (*edwards25519.Point, *edwards25519.Point, error) {
	if len(cipher) != CipherSize {
		return nil, nil, errors.Errorf("ciphertext length %d", len(cipher))
	}
	c1, err := new(edwards25519.Point).SetBytes(cipher[:PointSize])
	if err != nil {
		return nil, nil, errors.Wrap(ErrInvalidPoint, "c1")
	}
	c2, err := new(edwards25519.Point).SetBytes(cipher[PointSize:])
	if err != nil {
		return nil, nil, errors.Wrap(ErrInvalidPoint, "c2")
	}
	return c1, c2, nil
}

func joinCipher(c1, c2 *edwards25519.Point) []byte {
	out := make([]byte, 0, CipherSize)
	out = append(out, c1.Bytes()...)
	return append(out, c2.Bytes()...)
}
