package driver

import (
	"context"
	"os"
	"sync"

	"github.com/c2h5oh/datasize"
	"github.com/dimakogan/ecpir/pir"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// TableStore serves the decryption context of an mG table file and reloads it
// whenever the file is rewritten. A rewrite that does not load keeps the
// previous table.
type TableStore struct {
	tableFile string
	crypto    pir.Crypto
	watcher   *fsnotify.Watcher
	log       zerolog.Logger

	lock    sync.RWMutex
	dc      *pir.DecryptionContext
	reloads int
}

func OpenTableStore(crypto pir.Crypto, tableFile string) (*TableStore, error) {
	store := &TableStore{
		tableFile: tableFile,
		crypto:    crypto,
		log:       pir.Logger("table-store").With().Str("file", tableFile).Logger(),
	}
	if err := store.update(); err != nil {
		return nil, err
	}

	var err error
	store.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "Cannot create watcher")
	}
	if err := store.watcher.Add(tableFile); err != nil {
		store.watcher.Close()
		return nil, errors.Wrap(err, "Cannot watch table file")
	}

	// Reload the table whenever the file changes
	go func() {
		for {
			select {
			case event, ok := <-store.watcher.Events:
				if !ok {
					return
				}
				store.log.Debug().Str("op", event.Op.String()).Msg("table file event")
				if event.Op&fsnotify.Write == fsnotify.Write {
					if err := store.update(); err != nil {
						store.log.Warn().Err(err).Msg("Cannot load table -- this may happen when a rewrite is in progress")
					}
				}
			case err, ok := <-store.watcher.Errors:
				if !ok {
					return
				}
				store.log.Error().Err(err).Msg("watcher error")
			}
		}
	}()

	return store, nil
}

func (s *TableStore) Close() error {
	return s.watcher.Close()
}

func (s *TableStore) update() error {
	buf, err := os.ReadFile(s.tableFile)
	if err != nil {
		return errors.Wrap(err, "reading table file")
	}
	dc, err := pir.LoadDecryptionContext(s.crypto, buf)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.dc = dc
	s.reloads++
	s.log.Info().
		Int("records", dc.Table().Len()).
		Str("size", datasize.ByteSize(len(buf)).HumanReadable()).
		Msg("table loaded")
	return nil
}

// Context returns the most recently loaded decryption context.
func (s *TableStore) Context() *pir.DecryptionContext {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.dc
}

// Loads counts successful loads, including the initial one.
func (s *TableStore) Loads() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.reloads
}

// SaveTable writes table to tableFile in place, so that a TableStore watching
// the file picks it up.
func SaveTable(tableFile string, table *pir.Table) error {
	if err := os.WriteFile(tableFile, table.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "writing table file %s", tableFile)
	}
	return nil
}

// ContextSource hands out the decryption context for the next operation.
type ContextSource interface {
	Context() *pir.DecryptionContext
}

type fixedContext struct {
	dc *pir.DecryptionContext
}

func (f fixedContext) Context() *pir.DecryptionContext {
	return f.dc
}

// OpenContextSource serves the table file of c through a TableStore, or
// builds a table of 2^TableBits points in memory when there is no file.
// The returned func releases the source.
func (c *Config) OpenContextSource(ctx context.Context, crypto pir.Crypto) (ContextSource, func() error, error) {
	if _, err := os.Stat(c.TableFile); err == nil {
		store, err := OpenTableStore(crypto, c.TableFile)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	} else if !os.IsNotExist(err) {
		return nil, nil, errors.Wrapf(err, "table file %s", c.TableFile)
	}

	log := pir.Logger("table-store")
	log.Info().Int("bits", c.TableBits).Str("file", c.TableFile).
		Msg("no table file, building in memory")
	dc, err := pir.GenerateDecryptionContext(ctx, crypto, pir.BuildOptions{Bits: c.TableBits, Workers: c.Workers})
	if err != nil {
		return nil, nil, err
	}
	return fixedContext{dc}, func() error { return nil }, nil
}
