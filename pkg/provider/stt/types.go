package stt

import "time"

// Transcript is the result of transcribing one recording.
type Transcript struct {
	// Text is the recognised speech, trimmed of surrounding whitespace.
	Text string

	// Language is the language the backend detected or used. May be empty.
	Language string

	// Duration is the length of the transcribed audio as reported by the
	// backend, or the clip duration when the backend does not report one.
	Duration time.Duration

	// Provider names the backend that produced the transcript.
	Provider string
}
