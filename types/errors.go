package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy. Transport and protocol errors are absorbed by the
// connection strategy's fallback cascade; only total exhaustion reaches
// the orchestrator.

// ErrInsufficientData marks a transcript shorter than the minimum usable
// length. It is treated as a transport-level failure (triggers fallback),
// not a parse failure.
var ErrInsufficientData = errors.New("transcript below minimum length")

// TransportError wraps a single failed protocol attempt
type TransportError struct {
	Transport Transport
	Port      int
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Transport, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExhaustedError aggregates every failed attempt once the fallback
// cascade has run out of transports.
type ExhaustedError struct {
	Attempts []*TransportError
}

func (e *ExhaustedError) Error() string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, a.Error())
	}
	return "all connection attempts failed: " + strings.Join(reasons, "; ")
}

// ProtocolError is a device-reported API failure (router !trap/!fatal, or
// a non-2xx REST response).
type ProtocolError struct {
	Op      string
	Message string
	Fatal   bool
}

func (e *ProtocolError) Error() string {
	kind := "trap"
	if e.Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, kind, e.Message)
}

// PersistenceError marks a store write failure for one record. Batch
// processing logs it and continues with the remaining records.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
