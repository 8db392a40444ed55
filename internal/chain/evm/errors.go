package evm

import (
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned for logs whose topic0 is not a consumed event.
var ErrUnknownEvent = errors.New("unknown contract event")

// DecodeError reports a malformed ABI payload or log shape. Events that fail
// to decode are dropped, never retried.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
