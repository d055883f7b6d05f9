package pir

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrMalformedTable = errors.New("malformed mG table")
	ErrDecodeFailure  = errors.New("failed to decrypt")
	ErrWorkerFailure  = errors.New("worker failed")
	ErrConfiguration  = errors.New("invalid configuration")
)

// DecodeError reports the ciphertexts of a batch whose plaintext is not in the
// mG table.
type DecodeError struct {
	Indices []int
}

func (e *DecodeError) Error() string {
	if len(e.Indices) == 1 {
		return fmt.Sprintf("%v: ciphertext %d", ErrDecodeFailure, e.Indices[0])
	}
	return fmt.Sprintf("%v: %d ciphertexts (first %d)", ErrDecodeFailure, len(e.Indices), e.Indices[0])
}

func (e *DecodeError) Unwrap() error {
	return ErrDecodeFailure
}

// WorkerError is a failure inside one worker of a round. It matches
// ErrWorkerFailure and unwraps to the worker's own error.
type WorkerError struct {
	Worker     int
	Begin, End int
	Err        error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("%v: worker %d [%d, %d): %v", ErrWorkerFailure, e.Worker, e.Begin, e.End, e.Err)
}

func (e *WorkerError) Is(target error) bool {
	return target == ErrWorkerFailure
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}
