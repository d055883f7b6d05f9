package pir

const (
	// PointSize is the size of a compressed curve point in bytes.
	PointSize = 32
	// ScalarSize is the size of a curve scalar (and of a private key) in bytes.
	ScalarSize = 32
	// CipherSize is the size of one EC-ElGamal ciphertext: two points.
	CipherSize = 2 * PointSize
	// RecordSize is the size of one mG table record: a point and a uint32 scalar.
	RecordSize = PointSize + 4

	// MaxPacking is the largest number of plaintext bytes carried by one ciphertext.
	MaxPacking = 4
)

// One database row.
type Row []byte

// Crypto is the curve and EC-ElGamal layer the client core is built on.
// Implementations must be safe for concurrent use.
type Crypto interface {
	GeneratePrivateKey() ([]byte, error)
	PublicKey(privkey []byte) ([]byte, error)

	// DecryptPoint returns the encoding of c2 - privkey*c1 for cipher = c1||c2.
	DecryptPoint(cipher, privkey []byte) ([]byte, error)

	// ScalarToPoint returns the encoding of m*G.
	ScalarToPoint(m uint64) ([]byte, error)

	// SelectorSlot encrypts choice (0 or 1) under key with the given 32 bytes of
	// randomness. key is a public key, or a private key when fast is set.
	SelectorSlot(random, key []byte, choice, fast bool) ([]byte, error)

	RandomBytes(n int) ([]byte, error)
}

// PointRanger is implemented by backends that can produce consecutive multiples
// of the base point faster than one ScalarToPoint call each.
type PointRanger interface {
	// ScalarRangeToPoints writes the encodings of start*G, (start+1)*G, ...
	// into dst, which holds a whole number of points.
	ScalarRangeToPoints(start uint64, dst []byte) error
}

// Evaluator is the homomorphic part of EC-ElGamal that a server needs to answer
// a selector.
type Evaluator interface {
	// ZeroCipher returns a ciphertext of zero that carries no randomness.
	ZeroCipher() []byte
	// MulAddCipher sets acc = acc + k*cipher.
	MulAddCipher(acc, cipher []byte, k uint64) error
}
