package ecelgamal

import (
	"bytes"
	"testing"

	"gotest.tools/assert"
)

func testRandom(b byte) []byte {
	r := make([]byte, ScalarSize)
	for i := range r {
		r[i] = b + byte(i)
	}
	return r
}

func keyPair(t *testing.T, b *Backend) (priv, pub []byte) {
	priv, err := b.GeneratePrivateKey()
	assert.NilError(t, err)
	pub, err = b.PublicKey(priv)
	assert.NilError(t, err)
	return priv, pub
}

func TestEncryptDecrypt(t *testing.T) {
	b := New()
	priv, pub := keyPair(t, b)

	for _, m := range []uint64{0, 1, 2, 255, 65535} {
		cipher, err := b.Encrypt(pub, m, testRandom(byte(m)))
		assert.NilError(t, err)
		assert.Equal(t, len(cipher), CipherSize)

		point, err := b.DecryptPoint(cipher, priv)
		assert.NilError(t, err)
		want, err := b.ScalarToPoint(m)
		assert.NilError(t, err)
		assert.DeepEqual(t, point, want)
	}
}

func TestEncryptFastMatchesEncrypt(t *testing.T) {
	b := New()
	priv, pub := keyPair(t, b)
	r := testRandom(7)

	slow, err := b.Encrypt(pub, 1, r)
	assert.NilError(t, err)
	fast, err := b.EncryptFast(priv, 1, r)
	assert.NilError(t, err)
	assert.DeepEqual(t, slow, fast)

	slot, err := b.SelectorSlot(r, priv, true, true)
	assert.NilError(t, err)
	assert.DeepEqual(t, slot, fast)
}

func TestScalarRangeToPoints(t *testing.T) {
	b := New()
	dst := make([]byte, 10*PointSize)
	assert.NilError(t, b.ScalarRangeToPoints(1000, dst))
	for i := 0; i < 10; i++ {
		want, err := b.ScalarToPoint(uint64(1000 + i))
		assert.NilError(t, err)
		assert.DeepEqual(t, dst[i*PointSize:(i+1)*PointSize], want)
	}
	assert.ErrorContains(t, b.ScalarRangeToPoints(0, make([]byte, 33)), "multiple")
}

func TestIdentityEncoding(t *testing.T) {
	p, err := New().ScalarToPoint(0)
	assert.NilError(t, err)
	want := make([]byte, PointSize)
	want[0] = 1
	assert.DeepEqual(t, p, want)
}

func TestMulAddCipher(t *testing.T) {
	b := New()
	priv, pub := keyPair(t, b)

	c3, err := b.Encrypt(pub, 3, testRandom(1))
	assert.NilError(t, err)
	c5, err := b.Encrypt(pub, 5, testRandom(2))
	assert.NilError(t, err)

	acc := b.ZeroCipher()
	assert.NilError(t, b.MulAddCipher(acc, c3, 10))
	assert.NilError(t, b.MulAddCipher(acc, c5, 7))

	point, err := b.DecryptPoint(acc, priv)
	assert.NilError(t, err)
	want, err := b.ScalarToPoint(3*10 + 5*7)
	assert.NilError(t, err)
	assert.DeepEqual(t, point, want)
}

func TestZeroCipherDecryptsToIdentity(t *testing.T) {
	b := New()
	priv, _ := keyPair(t, b)
	point, err := b.DecryptPoint(b.ZeroCipher(), priv)
	assert.NilError(t, err)
	want, _ := b.ScalarToPoint(0)
	assert.DeepEqual(t, point, want)
}

func TestInvalidInputs(t *testing.T) {
	b := New()
	priv, _ := keyPair(t, b)

	_, err := b.PublicKey(priv[:31])
	assert.ErrorContains(t, err, "scalar")

	nonCanonical := bytes.Repeat([]byte{0xff}, ScalarSize)
	_, err = b.PublicKey(nonCanonical)
	assert.ErrorContains(t, err, "not canonical")

	_, err = b.DecryptPoint(make([]byte, CipherSize-1), priv)
	assert.ErrorContains(t, err, "ciphertext length")

	_, err = b.Encrypt(priv, 1, testRandom(0)[:16])
	assert.Check(t, err != nil)
}

func TestWithRandomIsDeterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 1024)
	k1, err := New(WithRandom(bytes.NewReader(seed))).GeneratePrivateKey()
	assert.NilError(t, err)
	k2, err := New(WithRandom(bytes.NewReader(seed))).GeneratePrivateKey()
	assert.NilError(t, err)
	assert.DeepEqual(t, k1, k2)

	_, err = New(WithRandom(bytes.NewReader(nil))).RandomBytes(1)
	assert.ErrorContains(t, err, "reading randomness")
}
