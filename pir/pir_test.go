package pir

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/assert"
)

func newTestReader(t *testing.T, db *StaticDB, dimension, packing, tableBits int, fast bool) PIRReader {
	t.Helper()
	params := ReaderParams{
		DBParams:    *db.Params(),
		IndexCounts: db.Params().IndexCounts(dimension),
		Packing:     packing,
		Workers:     4,
		Fast:        fast,
	}
	server := &LocalServer{
		DB:          db,
		Evaluator:   testBackend,
		IndexCounts: params.IndexCounts,
		Packing:     packing,
		Workers:     3,
	}
	client := NewPIRReader(testContext(t, tableBits), server, params)
	assert.NilError(t, client.Init())
	return client
}

func TestReaderOneDimension(t *testing.T) {
	db := MakeDB(30, 8)
	for _, fast := range []bool{false, true} {
		client := newTestReader(t, &db, 1, 1, smallBits, fast)
		for _, i := range []int{0, 7, 29} {
			val, err := client.Read(context.Background(), i)
			assert.NilError(t, err)
			assert.DeepEqual(t, val, db.Row(i))
		}
	}
}

func TestReaderTwoDimensions(t *testing.T) {
	db := MakeDB(29, 5)
	for _, fast := range []bool{false, true} {
		client := newTestReader(t, &db, 2, 1, smallBits, fast)

		val, err := client.Read(context.Background(), 0x7)
		assert.NilError(t, err)
		assert.DeepEqual(t, val, db.Row(7))

		// Last row of a database that does not fill the index space.
		val, err = client.Read(context.Background(), 28)
		assert.NilError(t, err)
		assert.DeepEqual(t, val, db.Row(28))
	}
}

func TestReaderThreeDimensions(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a 2^16 table")
	}
	db := MakeDB(27, 3)
	client := newTestReader(t, &db, 3, 2, largeBits, true)
	val, err := client.Read(context.Background(), 13)
	assert.NilError(t, err)
	assert.DeepEqual(t, val, db.Row(13))
}

func TestReaderErrors(t *testing.T) {
	db := MakeDB(10, 4)
	server := &LocalServer{DB: &db, Evaluator: testBackend, IndexCounts: []uint64{10}, Packing: 1, Workers: 1}
	params := ReaderParams{DBParams: *db.Params(), IndexCounts: []uint64{10}, Packing: 1, Workers: 1}

	client := NewPIRReader(testContext(t, smallBits), server, params)
	_, err := client.Read(context.Background(), 1)
	assert.ErrorContains(t, err, "Init")

	assert.NilError(t, client.Init())
	_, err = client.Read(context.Background(), 10)
	assert.Check(t, errors.Is(err, ErrConfiguration))
	_, err = client.Read(context.Background(), -1)
	assert.Check(t, errors.Is(err, ErrConfiguration))

	// The server folds with more index counts than the client peels.
	server.IndexCounts = []uint64{5, 2}
	_, err = client.Read(context.Background(), 1)
	assert.Check(t, err != nil)
}

func TestComputeReplyBadArguments(t *testing.T) {
	db := MakeDB(10, 4)
	ctx := context.Background()
	selector := make([]byte, 10*CipherSize)
	for i := 0; i < 10; i++ {
		copy(selector[i*CipherSize:], testBackend.ZeroCipher())
	}

	for _, tc := range []struct {
		counts           []uint64
		selector         []byte
		packing, workers int
	}{
		{[]uint64{10}, selector, 1, 0},
		{[]uint64{10}, selector, 0, 1},
		{[]uint64{10}, selector, MaxPacking + 1, 1},
		{nil, selector, 1, 1},
		{[]uint64{10, 0}, selector, 1, 1},
		{[]uint64{9}, selector[:9*CipherSize], 1, 1},
		{[]uint64{10}, selector[:9*CipherSize], 1, 1},
		{[]uint64{1 << 40, 1 << 40}, selector, 1, 1},
	} {
		_, err := ComputeReply(ctx, testBackend, &db, tc.selector, tc.counts, tc.packing, tc.workers)
		assert.Check(t, errors.Is(err, ErrConfiguration), "%+v", tc.counts)
	}
}

func TestComputeReplySize(t *testing.T) {
	db := MakeDB(12, 5)
	counts := []uint64{4, 3}
	selector := make([]byte, 7*CipherSize)
	for i := 0; i < 7; i++ {
		copy(selector[i*CipherSize:], testBackend.ZeroCipher())
	}
	reply, err := ComputeReply(context.Background(), testBackend, &db, selector, counts, 2, 2)
	assert.NilError(t, err)
	// ceil(5/2) = 3 ciphertexts after the first dimension, then
	// ceil(3*64/2) = 96 after the second.
	assert.Equal(t, len(reply), 96*CipherSize)
}

func TestIndexCounts(t *testing.T) {
	for _, tc := range []struct {
		rows, dimension int
		want            []uint64
	}{
		{30, 1, []uint64{30}},
		{29, 2, []uint64{6, 5}},
		{27, 3, []uint64{3, 3, 3}},
		{1, 2, []uint64{1, 1}},
		{0, 1, []uint64{1}},
		{1000, 2, []uint64{32, 32}},
	} {
		p := DBParams{NRows: tc.rows, RowLen: 1}
		got := p.IndexCounts(tc.dimension)
		assert.DeepEqual(t, got, tc.want)
		n, ok := SelectorElementsCount(got)
		assert.Assert(t, ok)
		assert.Assert(t, n >= uint64(tc.rows))
	}
}

func TestStaticDB(t *testing.T) {
	db := MakeDB(5, 3)
	assert.Equal(t, db.NumRows, 5)
	assert.Equal(t, len(db.FlatDb), 15)
	assert.Equal(t, db.Row(2)[0], byte(2))
	assert.Equal(t, db.Row(2)[1], byte('C'))
	assert.Check(t, db.Row(5) == nil)
}
