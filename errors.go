package erlike

import (
	"errors"
	"fmt"
)

var (
	// ErrNilMessage is returned when Mailbox.Enqueue is given a nil message. ProcID.Send
	// returns nothing; a nil message sent through it is dropped.
	ErrNilMessage = errors.New("erlike: message must not be nil")

	// ErrNilHandler is returned when a receive call is given a nil handler.
	ErrNilHandler = errors.New("erlike: handler must not be nil")

	// ErrInvalidTimeout is returned when a negative timeout is supplied to a timed
	// receive. Timed mailbox operations treat a negative timeout like zero.
	ErrInvalidTimeout = errors.New("erlike: timeout must not be negative")

	// ErrConcurrentAwait is returned when a second goroutine attempts to Await a
	// SignalBarrier that already has a waiter installed.
	ErrConcurrentAwait = errors.New("erlike: signal barrier already has a waiter")

	// ErrInterrupted is returned by a blocking mailbox or receive call whose context was
	// canceled while waiting.
	ErrInterrupted = errors.New("erlike: interrupted while waiting")

	// ErrDead names the failure of an operation against a proc that has already
	// terminated. No operation in this package returns it: ProcID.Send to a terminated
	// proc drops the message silently.
	ErrDead = errors.New("erlike: proc is not alive")

	// ErrAlreadyStarted is the value Proc.start panics with when a Proc's goroutine is
	// started a second time.
	ErrAlreadyStarted = errors.New("erlike: proc has already been started")
)

// PanicError wraps a value recovered from a panic inside a proc's body, annotated with
// the call site at which the panic originated. It distinguishes an unhandled panic from
// an ordinary error returned through the normal control flow.
type PanicError struct {
	Value any
	Site  string
}

var _ error = (*PanicError)(nil)

// NewPanicError wraps a recovered panic value with the caller/line it was recovered at.
func NewPanicError(value any, site string) *PanicError {
	return &PanicError{Value: value, Site: site}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return fmt.Sprintf("panic: %v at %s", err, e.Site)
	}
	return fmt.Sprintf("panic: %#v at %s", e.Value, e.Site)
}

// Unwrap allows errors.As/errors.Is to see through to an underlying error value, when the
// recovered panic value was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// SpawnError wraps a failure encountered while constructing or starting a proc.
type SpawnError struct {
	err error
}

var _ error = (*SpawnError)(nil)

// NewSpawnError wraps err as a SpawnError.
func NewSpawnError(err error) *SpawnError {
	return &SpawnError{err: fmt.Errorf("spawn error: %w", err)}
}

// Error implements the error interface.
func (s *SpawnError) Error() string {
	return s.err.Error()
}

// Unwrap returns the wrapped error.
func (s *SpawnError) Unwrap() error {
	return s.err
}
