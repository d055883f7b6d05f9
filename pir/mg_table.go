package pir

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Record maps the encoding of m*G to m.
type Record struct {
	Point [PointSize]byte
	Value uint32
}

func (r Record) put(dst []byte) {
	copy(dst[:PointSize], r.Point[:])
	binary.LittleEndian.PutUint32(dst[PointSize:RecordSize], r.Value)
}

func recordAt(buf []byte, i int) Record {
	var r Record
	copy(r.Point[:], buf[i*RecordSize:])
	r.Value = binary.LittleEndian.Uint32(buf[i*RecordSize+PointSize:])
	return r
}

// EncodeRecords lays the records out back to back, 36 bytes each.
func EncodeRecords(records []Record) []byte {
	buf := make([]byte, len(records)*RecordSize)
	for i, r := range records {
		r.put(buf[i*RecordSize:])
	}
	return buf
}

func DecodeRecords(buf []byte) ([]Record, error) {
	if len(buf)%RecordSize != 0 {
		return nil, errors.Wrapf(ErrMalformedTable, "length %d is not a multiple of %d", len(buf), RecordSize)
	}
	records := make([]Record, len(buf)/RecordSize)
	for i := range records {
		records[i] = recordAt(buf, i)
	}
	return records, nil
}

// Table is a sorted mG table. It is never modified after construction, so
// lookups may run concurrently.
type Table struct {
	buf []byte
	n   int
}

// LoadTable wraps an encoded table after checking that it is non-empty and
// strictly sorted by point. The table keeps buf; callers must not modify it.
func LoadTable(buf []byte) (*Table, error) {
	if len(buf)%RecordSize != 0 {
		return nil, errors.Wrapf(ErrMalformedTable, "length %d is not a multiple of %d", len(buf), RecordSize)
	}
	t := &Table{buf: buf, n: len(buf) / RecordSize}
	if t.n == 0 {
		return nil, errors.Wrap(ErrMalformedTable, "empty table")
	}
	if i := t.firstUnsorted(); i >= 0 {
		return nil, errors.Wrapf(ErrMalformedTable, "records %d and %d are out of order", i, i+1)
	}
	return t, nil
}

func (t *Table) firstUnsorted() int {
	for i := 0; i+1 < t.n; i++ {
		if bytes.Compare(t.point(i), t.point(i+1)) >= 0 {
			return i
		}
	}
	return -1
}

func (t *Table) point(i int) []byte {
	return t.buf[i*RecordSize : i*RecordSize+PointSize]
}

func (t *Table) Len() int {
	return t.n
}

func (t *Table) Record(i int) Record {
	return recordAt(t.buf, i)
}

// Bytes returns the canonical encoding of the table. It must not be modified.
func (t *Table) Bytes() []byte {
	return t.buf
}

// Digest returns the SHA-256 of the canonical encoding.
func (t *Table) Digest() [sha256.Size]byte {
	return sha256.Sum256(t.buf)
}
