package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/dimakogan/ecpir/driver"
	"github.com/dimakogan/ecpir/ecelgamal"
	"github.com/dimakogan/ecpir/pir"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"gotest.tools/assert"
)

func main() {
	config := new(driver.Config).AddTableFlags().AddDecryptFlags().AddBenchmarkFlags().Parse()

	logger, err := config.NewLogger(os.Stderr)
	if err != nil {
		log.Fatalf("Bad log level %q: %s\n", config.LogLevel, err)
	}
	pir.SetLogger(logger)

	prof := driver.NewProfiler(config.CpuProfile)
	err = run(config)
	if perr := prof.Close(); perr != nil {
		logger.Error().Err(perr).Msg("failed to write profile")
	}
	if err != nil {
		color.Red("[FAILED] %v", err)
		os.Exit(1)
	}
}

func run(config *driver.Config) error {
	var ep driver.ErrorPrinter

	ctx := context.Background()
	crypto := ecelgamal.New()

	source, release, err := config.OpenContextSource(ctx, crypto)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			log := pir.Logger("benchmark")
			log.Warn().Err(err).Msg("failed to release table")
		}
	}()
	minPoints := 1 << (8 * config.Packing)
	if n := source.Context().Table().Len(); n < minPoints {
		return errors.Errorf("table of %d points cannot decode packing %d", n, config.Packing)
	}

	db := pir.MakeDB(config.NumRows, config.RowLen)
	counts := db.Params().IndexCounts(config.Dimension)
	// Rows are picked unpredictably, as a real client would.
	rand := pir.CryptoRand()

	fmt.Printf("# %s %s\n", path.Base(os.Args[0]), strings.Join(os.Args[1:], " "))
	fmt.Printf("# counts=%v db=%s\n", counts, datasize.ByteSize(len(db.FlatDb)).HumanReadable())
	fmt.Printf("%8s%22s%22s%22s%15s%15s\n",
		"workers", "SelectorTime[us]", "AnswerTime[us]", "DecryptTime[us]", "SelectorBytes", "ReplyBytes")

	for _, workers := range config.WorkerCounts {
		result := testing.Benchmark(func(b *testing.B) {
			priv, err := crypto.GeneratePrivateKey()
			assert.NilError(ep, err)
			key, err := crypto.PublicKey(priv)
			assert.NilError(ep, err)
			if config.Fast {
				key = priv
			}

			var selectorTime, answerTime, decryptTime time.Duration
			var selectorBytes, replyBytes int
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				idx := rand.Intn(db.NumRows)
				// Picks up a table file rewritten while the benchmark runs.
				dc := source.Context()
				assert.Assert(ep, dc.Table().Len() >= minPoints, "table shrank to %d points", dc.Table().Len())

				start := time.Now()
				selector, err := pir.CreateSelector(ctx, crypto, pir.SelectorOptions{
					Key:         key,
					IndexCounts: counts,
					Index:       uint64(idx),
					Fast:        config.Fast,
					Workers:     workers,
				})
				selectorTime += time.Since(start)
				assert.NilError(ep, err)

				start = time.Now()
				reply, err := pir.ComputeReply(ctx, crypto, &db, selector, counts, config.Packing, workers)
				answerTime += time.Since(start)
				assert.NilError(ep, err)

				start = time.Now()
				plain, err := dc.DecryptReply(ctx, reply, priv, len(counts), config.Packing, workers)
				decryptTime += time.Since(start)
				assert.NilError(ep, err)
				assert.DeepEqual(ep, pir.Row(plain[:db.RowLen]), db.Row(idx))

				selectorBytes += len(selector)
				replyBytes += len(reply)
			}
			b.ReportMetric(float64(selectorTime.Microseconds())/float64(b.N), "selector-us/op")
			b.ReportMetric(float64(answerTime.Microseconds())/float64(b.N), "answer-us/op")
			b.ReportMetric(float64(decryptTime.Microseconds())/float64(b.N), "decrypt-us/op")
			b.ReportMetric(float64(selectorBytes)/float64(b.N), "selector-bytes/op")
			b.ReportMetric(float64(replyBytes)/float64(b.N), "reply-bytes/op")
		})
		fmt.Printf("%8d%22d%22d%22d%15d%15d\n",
			workers,
			int(result.Extra["selector-us/op"]),
			int(result.Extra["answer-us/op"]),
			int(result.Extra["decrypt-us/op"]),
			int(result.Extra["selector-bytes/op"]),
			int(result.Extra["reply-bytes/op"]))
	}
	return nil
}
