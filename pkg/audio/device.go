// Package audio defines the capture abstractions used for voice input.
//
// The two primary abstractions are:
//
//   - [Device]: acquires an audio input (a microphone, a recorder process, a
//     remote capture bridge) and returns a [Capture].
//   - [Capture]: an active recording that delivers raw PCM chunks until it is
//     stopped or the underlying input ends.
//
// Implementations live in sub-packages (audio/recorder, audio/wsmic). The
// interfaces are intentionally narrow so the chat controller stays decoupled
// from how audio is actually captured.
package audio

import (
	"context"
	"errors"
)

// ErrPermissionDenied is returned by [Device.Open] when the operating system or
// the capture bridge refuses access to the audio input. Implementations should
// wrap it so callers can test with [errors.Is].
var ErrPermissionDenied = errors.New("audio: permission denied")

// ErrNoDevice is returned by [Device.Open] when no usable input exists.
var ErrNoDevice = errors.New("audio: no input device")

// Capture represents an active recording.
//
// The Chunks channel delivers 16-bit signed little-endian PCM in the capture's
// [Format] and is closed when the recording ends, either because [Capture.Stop]
// was called or because the input went away. After Chunks is closed, Err
// reports why the recording ended (nil for a clean stop).
//
// Close releases the underlying device. It must be called exactly once per
// capture by the owner; implementations tolerate repeated calls.
type Capture interface {
	// Chunks returns the stream of captured PCM chunks.
	Chunks() <-chan []byte

	// Format returns the sample rate and channel count of the delivered PCM.
	Format() Format

	// Stop asks the capture to end. Chunks is closed once buffered audio has
	// been delivered. Stop is idempotent.
	Stop()

	// Err returns the error that terminated the capture, or nil.
	// It is only meaningful once Chunks has been closed.
	Err() error

	// Close stops the capture if needed and releases the device handle.
	Close() error
}

// Device is the entry point for an audio input.
//
// Implementations must be safe for concurrent use, but callers are expected to
// hold at most one open [Capture] per device.
type Device interface {
	// Open acquires the input and starts recording. Returns an error wrapping
	// [ErrPermissionDenied] when access is refused.
	Open(ctx context.Context) (Capture, error)
}
