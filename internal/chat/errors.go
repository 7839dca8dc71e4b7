package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("chat: message is empty")

	// ErrNoChapter is returned by Send when no chapter is selected.
	ErrNoChapter = errors.New("chat: no chapter selected")

	// ErrBusy is returned by Send while a chat request or a transcription is
	// in flight.
	ErrBusy = errors.New("chat: busy")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("chat: controller closed")

	// ErrSuperseded is returned when the chapter was changed while an
	// operation was in flight. Its result is discarded.
	ErrSuperseded = errors.New("chat: superseded by a newer chapter selection")
)

// ErrorKind classifies a failed dispatch.
type ErrorKind int

const (
	// KindApplication: the backend answered but reported a failure. Never retried.
	KindApplication ErrorKind = iota
	// KindTimeout: the per-attempt deadline expired. Never retried.
	KindTimeout
	// KindNetwork: a transport failure that persisted through every retry.
	KindNetwork
	// KindCancelled: the caller's context was cancelled or the controller closed.
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindApplication:
		return "application"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Failure is the user-facing category of an application failure.
type Failure int

const (
	FailureNone Failure = iota
	FailureModelOffline
	FailureSlowResponse
	FailureConnectivity
	FailureGeneric
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureModelOffline:
		return "model_offline"
	case FailureSlowResponse:
		return "slow_response"
	case FailureConnectivity:
		return "connectivity"
	case FailureGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// DispatchError describes a chat message that did not produce a reply. The
// matching error turn has already been appended to the transcript.
type DispatchError struct {
	Kind ErrorKind

	// Failure is set for KindApplication.
	Failure Failure

	// Attempts is the number of requests issued.
	Attempts int

	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("chat: %s failure after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
