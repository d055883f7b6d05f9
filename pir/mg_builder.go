package pir

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/pkg/errors"
)

// MaxTableBits bounds the table size exponent: scalars are stored as uint32.
const MaxTableBits = 32

type BuildOptions struct {
	// Bits is the table size exponent; the table holds 2^Bits records.
	Bits    int
	Workers int

	// Progress, if set, receives the number of points computed so far: Interval,
	// 2*Interval, ... and finally 2^Bits. All sends happen before BuildTable
	// returns, so the receiver must keep draining. The channel is not closed.
	Progress chan<- uint64
	Interval uint64
}

func (o BuildOptions) validate() error {
	if o.Bits < 1 || o.Bits > MaxTableBits {
		return configErrorf("table bits %d out of range [1, %d]", o.Bits, MaxTableBits)
	}
	if o.Workers < 1 {
		return configErrorf("worker count %d", o.Workers)
	}
	if o.Progress != nil && o.Interval == 0 {
		return configErrorf("progress interval must be positive")
	}
	if uint64(1)<<o.Bits > uint64(maxInt/RecordSize) {
		return configErrorf("table bits %d too large for this platform", o.Bits)
	}
	return nil
}

const maxInt = int(^uint(0) >> 1)

// progressCollector turns the batch sizes reported by the workers into the
// sequence Interval, 2*Interval, ..., total.
type progressCollector struct {
	batches chan uint64
	done    chan struct{}
}

func newProgressCollector(ctx context.Context, out chan<- uint64, interval, total uint64) *progressCollector {
	pc := &progressCollector{batches: make(chan uint64, 64), done: make(chan struct{})}
	go func() {
		defer close(pc.done)
		var computed, reported uint64
		emit := func(v uint64) bool {
			select {
			case out <- v:
				reported = v
				return true
			case <-ctx.Done():
				return false
			}
		}
		for n := range pc.batches {
			computed += n
			for reported+interval <= computed {
				if !emit(reported + interval) {
					// Keep draining so workers never block.
					for range pc.batches {
					}
					return
				}
			}
		}
		if computed == total && reported != total {
			emit(total)
		}
	}()
	return pc
}

func (pc *progressCollector) add(n uint64) {
	if pc != nil {
		pc.batches <- n
	}
}

func (pc *progressCollector) finish() {
	if pc != nil {
		close(pc.batches)
		<-pc.done
	}
}

// BuildTable computes m*G for every m in [0, 2^Bits), sorts the pairs by point
// encoding and returns the resulting table.
func BuildTable(ctx context.Context, crypto Crypto, opts BuildOptions) (*Table, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := Logger("mg_builder")
	total := uint64(1) << opts.Bits
	spans := partition(int(total), opts.Workers)

	var pc *progressCollector
	if opts.Progress != nil {
		pc = newProgressCollector(ctx, opts.Progress, opts.Interval, total)
	}
	batch := opts.Interval
	if batch == 0 || batch > 1<<12 {
		batch = 1 << 12
	}

	start := time.Now()
	log.Info().Int("bits", opts.Bits).Int("workers", len(spans)).Msg("generating mG")
	parts, err := runRound(ctx, spans, func(ctx context.Context, _ int, s span) ([]Record, error) {
		return generateRecords(ctx, crypto, s, batch, pc)
	})
	pc.finish()
	if err != nil {
		log.Error().Err(err).Msg("mG generation failed")
		return nil, err
	}

	records := make([]Record, 0, total)
	for _, p := range parts {
		records = append(records, p...)
	}
	sortStart := time.Now()
	slices.SortFunc(records, func(a, b Record) int {
		return bytes.Compare(a.Point[:], b.Point[:])
	})
	for i := 0; i+1 < len(records); i++ {
		if records[i].Point == records[i+1].Point {
			return nil, errors.Wrapf(ErrMalformedTable, "scalars %d and %d map to the same point",
				records[i].Value, records[i+1].Value)
		}
	}
	log.Info().
		Dur("generate", sortStart.Sub(start)).
		Dur("sort", time.Since(sortStart)).
		Int("records", len(records)).
		Msg("mG table built")

	return &Table{buf: EncodeRecords(records), n: len(records)}, nil
}

func generateRecords(ctx context.Context, crypto Crypto, s span, batch uint64, pc *progressCollector) ([]Record, error) {
	records := make([]Record, s.Len())
	ranger, _ := crypto.(PointRanger)
	points := make([]byte, int(batch)*PointSize)
	for done := 0; done < len(records); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := min(int(batch), len(records)-done)
		first := uint64(s.Begin + done)
		if ranger != nil {
			if err := ranger.ScalarRangeToPoints(first, points[:n*PointSize]); err != nil {
				return nil, err
			}
		} else {
			for j := 0; j < n; j++ {
				p, err := crypto.ScalarToPoint(first + uint64(j))
				if err != nil {
					return nil, err
				}
				copy(points[j*PointSize:], p)
			}
		}
		for j := 0; j < n; j++ {
			r := &records[done+j]
			copy(r.Point[:], points[j*PointSize:])
			r.Value = uint32(first + uint64(j))
		}
		done += n
		pc.add(uint64(n))
	}
	return records, nil
}
