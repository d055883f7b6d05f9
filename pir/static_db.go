package pir

import (
	"fmt"
)

type StaticDB struct {
	NumRows int
	RowLen  int
	FlatDb  []byte
}

func (db *StaticDB) Slice(start, end int) []byte {
	return db.FlatDb[start*db.RowLen : end*db.RowLen]
}

func (db *StaticDB) Row(i int) Row {
	if i >= db.NumRows {
		return nil
	}
	return Row(db.Slice(i, i+1))
}

func StaticDBFromRows(data []Row) *StaticDB {
	if len(data) < 1 {
		return &StaticDB{0, 0, nil}
	}

	rowLen := len(data[0])
	flatDb := make([]byte, rowLen*len(data))

	for i, v := range data {
		if len(v) != rowLen {
			panic(fmt.Sprintf("Database rows must all be of the same length: row[%d] has %d, want %d", i, len(v), rowLen))
		}

		copy(flatDb[i*rowLen:], v[:])
	}
	return &StaticDB{len(data), rowLen, flatDb}
}

type DBParams struct {
	NRows  int
	RowLen int
}

func (p *DBParams) NumRows() int {
	return p.NRows
}

func (db StaticDB) Params() *DBParams {
	return &DBParams{db.NumRows, db.RowLen}
}

// IndexCounts splits the rows of a database into dimension index counts of
// near-equal size whose product covers every row.
func (p *DBParams) IndexCounts(dimension int) []uint64 {
	counts := make([]uint64, dimension)
	n := uint64(max(p.NRows, 1))
	for d := 0; d < dimension; d++ {
		// Smallest c with c^(dimension-d) >= remaining rows.
		c := uint64(1)
		for pow(c, dimension-d) < n {
			c++
		}
		counts[d] = c
		n = (n + c - 1) / c
	}
	return counts
}

func pow(b uint64, e int) uint64 {
	r := uint64(1)
	for i := 0; i < e; i++ {
		r *= b
	}
	return r
}
