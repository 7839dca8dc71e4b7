package audio

import "time"

// Clip is a finished recording ready for transcription.
type Clip struct {
	// Data is a complete RIFF/WAV file.
	Data []byte

	// Format describes the PCM stored in Data.
	Format Format

	// Duration is the length of the recorded audio.
	Duration time.Duration
}

// NewClip wraps raw PCM in a WAV container and computes its duration.
func NewClip(pcm []byte, f Format) Clip {
	return Clip{
		Data:     EncodeWAV(pcm, f),
		Format:   f,
		Duration: f.Duration(len(pcm)),
	}
}
