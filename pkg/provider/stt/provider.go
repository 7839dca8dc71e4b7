// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider turns one finished voice recording into text. Recordings are
// short (a spoken question to the tutor), so the interface is batch-oriented:
// the caller hands over a complete [audio.Clip] and receives a [Transcript].
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"

	"github.com/MrWong99/tutor/pkg/audio"
)

// ErrEmptyClip is returned when a provider is asked to transcribe a clip with
// no audio data.
var ErrEmptyClip = errors.New("stt: empty clip")

// Request carries the recording and recognition hints for one transcription.
type Request struct {
	// Clip is the recording to transcribe.
	Clip audio.Clip

	// Language is the preferred language code (e.g., "en", "hi", "gu"). An
	// empty string lets the provider auto-detect, if supported.
	Language string
}

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Transcribe converts the recording in req into text. An empty Text in the
	// returned Transcript with a nil error means no speech was recognised.
	//
	// Returns an error if the backend cannot be reached, rejects the request,
	// or ctx is cancelled.
	Transcribe(ctx context.Context, req Request) (Transcript, error)
}

// Func adapts a plain function to the [Provider] interface.
type Func func(ctx context.Context, req Request) (Transcript, error)

// Transcribe implements [Provider].
func (f Func) Transcribe(ctx context.Context, req Request) (Transcript, error) {
	return f(ctx, req)
}
