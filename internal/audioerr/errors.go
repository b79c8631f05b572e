// Package audioerr defines the typed error kinds used across the audio
// engine. It follows the marker-interface + Op/Err wrapping pattern so
// callers can classify failures with errors.As without a growing switch
// over sentinel values.
package audioerr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error. It mirrors the error kinds enumerated
// in the design: EndOfStream and Shutdown are not represented here because
// they are normal control-flow signals, not reported errors (see
// decoder.ErrEndOfFile and the engine's shutdown flag).
type Kind int

const (
	KindBufferUnderrun Kind = iota
	KindDecodeFailure
	KindBackendFailure
	KindInvalidState
	KindConcurrentLoad
)

func (k Kind) String() string {
	switch k {
	case KindBufferUnderrun:
		return "buffer_underrun"
	case KindDecodeFailure:
		return "decode_failure"
	case KindBackendFailure:
		return "backend_failure"
	case KindInvalidState:
		return "invalid_state"
	case KindConcurrentLoad:
		return "concurrent_load"
	default:
		return "unknown"
	}
}

// engineMarker is implemented by every error type in this package so
// callers can distinguish engine errors from arbitrary errors with a
// type assertion if they don't want to match on Kind.
type engineMarker interface {
	error
	isEngineError()
}

// Error is a classified engine error, optionally wrapping an underlying
// cause (a decoder error, a backend error, etc).
type Error struct {
	Kind Kind
	Op   string // e.g. "core.SeekStream", "soundsystem.PlayMusic"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
func (e *Error) isEngineError() {}

// New constructs an *Error of the given kind for op, wrapping cause (which
// may be nil — e.g. InvalidState errors usually have no underlying cause).
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Is reports whether err is an engine error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
