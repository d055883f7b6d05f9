package pir

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Server answers encrypted selectors.
type Server interface {
	Answer(ctx context.Context, selector []byte) ([]byte, error)
}

// ReaderParams describes how the database a server holds is addressed.
type ReaderParams struct {
	DBParams
	IndexCounts []uint64
	Packing     int
	Workers     int
	// Fast selects selectors encrypted with the private key.
	Fast bool
}

type PIRReader interface {
	Init() error
	Read(ctx context.Context, i int) (Row, error)
}

type pirReader struct {
	dc     *DecryptionContext
	server Server
	params ReaderParams

	privkey []byte
	pubkey  []byte
}

func NewPIRReader(dc *DecryptionContext, server Server, params ReaderParams) PIRReader {
	return &pirReader{dc: dc, server: server, params: params}
}

func (c *pirReader) Init() error {
	var err error
	if c.privkey, err = c.dc.crypto.GeneratePrivateKey(); err != nil {
		return errors.Wrap(err, "Failed to create private key")
	}
	if c.pubkey, err = c.dc.crypto.PublicKey(c.privkey); err != nil {
		return errors.Wrap(err, "Failed to derive public key")
	}
	return nil
}

func (c *pirReader) Read(ctx context.Context, i int) (Row, error) {
	if c.privkey == nil {
		return nil, fmt.Errorf("Must run Init() before Read()")
	}
	if i < 0 || i >= c.params.NumRows() {
		return nil, configErrorf("row %d out of range [0, %d)", i, c.params.NumRows())
	}
	key := c.pubkey
	if c.params.Fast {
		key = c.privkey
	}
	selector, err := CreateSelector(ctx, c.dc.crypto, SelectorOptions{
		Key:         key,
		IndexCounts: c.params.IndexCounts,
		Index:       uint64(i),
		Fast:        c.params.Fast,
		Workers:     c.params.Workers,
	})
	if err != nil {
		return nil, err
	}
	reply, err := c.server.Answer(ctx, selector)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to query: %d", i)
	}
	plain, err := c.dc.DecryptReply(ctx, reply, c.privkey, len(c.params.IndexCounts), c.params.Packing, c.params.Workers)
	if err != nil {
		return nil, err
	}
	if len(plain) < c.params.RowLen {
		return nil, errors.Wrapf(ErrDecodeFailure, "reply decrypted to %d bytes, row has %d", len(plain), c.params.RowLen)
	}
	return Row(plain[:c.params.RowLen]), nil
}

// LocalServer answers selectors over an in-memory database.
type LocalServer struct {
	DB          *StaticDB
	Evaluator   Evaluator
	IndexCounts []uint64
	Packing     int
	Workers     int
}

func (s *LocalServer) Answer(ctx context.Context, selector []byte) ([]byte, error) {
	return ComputeReply(ctx, s.Evaluator, s.DB, selector, s.IndexCounts, s.Packing, s.Workers)
}
