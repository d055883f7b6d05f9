package driver

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/dimakogan/ecpir/pir"
	"github.com/pkg/errors"
)

type Config struct {
	// mG table
	TableFile    string
	TableBits    int
	MaxTableSize datasize.ByteSize

	// 0 means runtime.NumCPU().
	Workers int

	// For decryption
	Packing   int
	Dimension int
	Fast      bool

	// For benchmarks
	NumRows      int
	RowLen       int
	WorkerCounts []int
	Progress     bool
	Interval     uint64

	CpuProfile string
	LogLevel   string

	workerCountsStr string

	FlagSet *flag.FlagSet
}

func (c *Config) flagSet() *flag.FlagSet {
	if c.FlagSet == nil {
		c.FlagSet = flag.CommandLine
	}
	return c.FlagSet
}

func (c *Config) AddTableFlags() *Config {
	fs := c.flagSet()
	c.MaxTableSize = 4 * datasize.GB
	fs.StringVar(&c.TableFile, "table", "mg.bin", "mG table `file`")
	fs.IntVar(&c.TableBits, "bits", 16, "mG table holds 2^bits points")
	fs.TextVar(&c.MaxTableSize, "maxTableSize", c.MaxTableSize, "refuse to build tables larger than this (e.g. 512MB)")
	fs.IntVar(&c.Workers, "workers", 0, "worker goroutines per operation (default: number of CPUs)")
	fs.BoolVar(&c.Progress, "progress", true, "Show table build progress")
	fs.Uint64Var(&c.Interval, "interval", 1<<14, "points between progress reports")
	fs.StringVar(&c.CpuProfile, "cpuprofile", "", "write cpu profile to `file`")
	fs.StringVar(&c.LogLevel, "log", "info", "log level")
	return c
}

func (c *Config) AddDecryptFlags() *Config {
	fs := c.flagSet()
	fs.IntVar(&c.Packing, "packing", 1, fmt.Sprintf("plaintext bytes per ciphertext [1-%d]", pir.MaxPacking))
	fs.IntVar(&c.Dimension, "dimension", 2, "number of selector dimensions")
	fs.BoolVar(&c.Fast, "fast", true, "encrypt selectors with the private key")
	return c
}

func (c *Config) AddBenchmarkFlags() *Config {
	fs := c.flagSet()
	fs.IntVar(&c.NumRows, "numRows", 1000, "Num DB Rows")
	fs.IntVar(&c.RowLen, "rowLen", 32, "Row length in bytes")
	fs.StringVar(&c.workerCountsStr, "workerCounts", "1,2,4,8", "comma separated worker counts to benchmark")
	return c
}

// Parse parses os.Args and exits on bad flags.
func (c *Config) Parse() *Config {
	if c.flagSet().Parsed() {
		return c
	}
	if err := c.ParseArgs(os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
	return c
}

func (c *Config) ParseArgs(args []string) error {
	if err := c.flagSet().Parse(args); err != nil {
		return err
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Workers < 0 {
		return errors.Wrapf(pir.ErrConfiguration, "worker count %d", c.Workers)
	}
	if c.TableBits < 1 || c.TableBits > pir.MaxTableBits {
		return errors.Wrapf(pir.ErrConfiguration, "table bits %d out of range [1, %d]", c.TableBits, pir.MaxTableBits)
	}
	if c.MaxTableSize > 0 && c.TableSize() > c.MaxTableSize {
		return errors.Wrapf(pir.ErrConfiguration, "table of 2^%d points needs %s, limit is %s",
			c.TableBits, c.TableSize().HumanReadable(), c.MaxTableSize.HumanReadable())
	}
	if c.Packing != 0 && (c.Packing < 1 || c.Packing > pir.MaxPacking) {
		return errors.Wrapf(pir.ErrConfiguration, "packing %d out of range [1, %d]", c.Packing, pir.MaxPacking)
	}
	if c.Packing != 0 && c.TableBits < 8*c.Packing {
		return errors.Wrapf(pir.ErrConfiguration, "packing %d needs a table of at least 2^%d points", c.Packing, 8*c.Packing)
	}
	if c.workerCountsStr != "" {
		counts, err := parseWorkerCounts(c.workerCountsStr)
		if err != nil {
			return err
		}
		c.WorkerCounts = counts
	}
	return nil
}

func parseWorkerCounts(s string) ([]int, error) {
	var counts []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 1 {
			return nil, errors.Wrapf(pir.ErrConfiguration, "bad worker count %q", f)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

// TableSize is the encoded size of a table of 2^TableBits records.
func (c *Config) TableSize() datasize.ByteSize {
	return datasize.ByteSize(uint64(1)<<c.TableBits) * pir.RecordSize * datasize.B
}

func (c *Config) String() string {
	return fmt.Sprintf("bits=%d,w=%d,p=%d,d=%d", c.TableBits, c.Workers, c.Packing, c.Dimension)
}
