package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/dimakogan/ecpir/driver"
	"github.com/dimakogan/ecpir/ecelgamal"
	"github.com/dimakogan/ecpir/pir"
	"github.com/fatih/color"
	"github.com/paulbellamy/ratecounter"
)

func main() {
	config := new(driver.Config).AddTableFlags().Parse()

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
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	total := uint64(1) << config.TableBits
	fmt.Printf("# %s %s\n", path.Base(os.Args[0]), strings.Join(os.Args[1:], " "))
	fmt.Printf("Building mG table: %d points, %s, %d workers\n",
		total, config.TableSize().HumanReadable(), config.Workers)

	opts := pir.BuildOptions{Bits: config.TableBits, Workers: config.Workers}
	var progress chan uint64
	progressDone := make(chan struct{})
	if config.Progress {
		progress = make(chan uint64, 16)
		opts.Progress = progress
		opts.Interval = config.Interval
		go reportProgress(progress, total, progressDone)
	} else {
		close(progressDone)
	}

	start := time.Now()
	table, err := pir.BuildTable(ctx, ecelgamal.New(), opts)
	if progress != nil {
		close(progress)
	}
	<-progressDone
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := driver.SaveTable(config.TableFile, table); err != nil {
		return err
	}
	digest := table.Digest()
	color.Green("[OK] wrote %s in %s", config.TableFile, elapsed.Round(time.Millisecond))
	fmt.Printf("sha256: %s\n", hex.EncodeToString(digest[:]))
	return nil
}

func reportProgress(progress <-chan uint64, total uint64, done chan<- struct{}) {
	defer close(done)
	label := color.New(color.FgYellow).SprintFunc()

	// Points per second over the last second
	counter := ratecounter.NewRateCounter(1 * time.Second)
	var last uint64
	for p := range progress {
		counter.Incr(int64(p - last))
		last = p
		fmt.Printf("\r%s %d/%d (%5.1f%%) %d points/s   ",
			label("building"), p, total, 100*float64(p)/float64(total), counter.Rate())
	}
	if last > 0 {
		fmt.Println()
	}
}
