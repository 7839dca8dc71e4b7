package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/tutor/internal/observe"
	"github.com/MrWong99/tutor/pkg/audio"
	"github.com/MrWong99/tutor/pkg/provider/stt"
)

// recording is one open capture. pcm is written only by the pump goroutine
// until drained is closed.
type recording struct {
	capture audio.Capture
	epoch   uint64
	started time.Time
	pcm     []byte
	drained chan struct{}
	once    sync.Once
}

// ToggleCapture starts recording when idle and stops recording when a
// recording is active. Stopping transcribes the captured audio and places
// the text in the draft; it is never sent automatically.
//
// The call is a no-op while a transcription or a chat request is in flight,
// while the microphone is still being opened, or when voice input is not
// configured. Failures are reported as error turns.
func (c *Controller) ToggleCapture(ctx context.Context) {
	c.mu.Lock()
	if c.closed || !c.VoiceEnabled() || c.acquiring {
		c.mu.Unlock()
		return
	}
	switch c.capture {
	case CaptureTranscribing:
		c.mu.Unlock()
		return
	case CaptureRecording:
		rec := c.rec
		c.wg.Add(1)
		c.mu.Unlock()
		defer c.wg.Done()
		c.finishCapture(ctx, rec)
		return
	}
	if c.sending {
		c.mu.Unlock()
		return
	}
	c.acquiring = true
	epoch := c.epoch
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	c.startCapture(ctx, epoch)
}

func (c *Controller) startCapture(ctx context.Context, epoch uint64) {
	log := observe.Logger(ctx)
	octx, stop := c.bind(ctx)
	capture, err := c.device.Open(octx)
	stop()

	c.mu.Lock()
	c.acquiring = false
	if err != nil {
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		msg, outcome := msgMicFailed, "open_failed"
		if errors.Is(err, audio.ErrPermissionDenied) {
			msg, outcome = msgMicDenied, "denied"
		}
		log.Warn("chat: failed to open microphone", "err", err)
		c.metrics.RecordCaptureSession(ctx, outcome)
		c.appendIfCurrent(epoch, c.newTurn(SpeakerAssistant, TurnError, msg))
		return
	}
	if c.closed {
		c.mu.Unlock()
		if cerr := capture.Close(); cerr != nil {
			log.Warn("chat: failed to release microphone", "err", cerr)
		}
		return
	}
	rec := &recording{
		capture: capture,
		epoch:   epoch,
		started: time.Now(),
		drained: make(chan struct{}),
	}
	c.rec = rec
	c.capture = CaptureRecording
	c.wg.Add(1)
	c.mu.Unlock()

	c.metrics.ActiveCaptures.Add(ctx, 1)
	log.Debug("chat: recording started", "format", capture.Format().String())
	c.notify()
	go c.pump(rec)
}

// pump accumulates audio until the capture ends. If the stream ends without
// a toggle, for example because the device went away, it finishes the
// recording itself.
func (c *Controller) pump(rec *recording) {
	defer c.wg.Done()
	for chunk := range rec.capture.Chunks() {
		rec.pcm = append(rec.pcm, chunk...)
	}
	close(rec.drained)
	c.finishCapture(c.lifetime, rec)
}

// finishCapture stops rec, releases the device and transcribes the audio.
// Only the first caller for a given recording does any work.
func (c *Controller) finishCapture(ctx context.Context, rec *recording) {
	c.mu.Lock()
	if rec == nil || c.rec != rec || c.capture != CaptureRecording {
		c.mu.Unlock()
		return
	}
	closed := c.closed
	c.capture = CaptureTranscribing
	c.mu.Unlock()
	c.notify()

	rec.capture.Stop()
	<-rec.drained
	devErr := rec.capture.Err()
	c.release(rec)

	if !closed {
		c.transcribe(ctx, rec, devErr)
	}

	c.mu.Lock()
	c.capture = CaptureIdle
	c.rec = nil
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) transcribe(ctx context.Context, rec *recording, devErr error) {
	log := observe.Logger(ctx)
	switch {
	case devErr != nil:
		log.Warn("chat: recording ended with an error", "err", devErr)
		c.metrics.RecordCaptureSession(ctx, "device_error")
		c.appendIfCurrent(rec.epoch, c.newTurn(SpeakerAssistant, TurnError, msgCaptureFailed))
		return
	case len(rec.pcm) == 0:
		c.metrics.RecordCaptureSession(ctx, "empty")
		c.appendIfCurrent(rec.epoch, c.newTurn(SpeakerAssistant, TurnError, msgNoSpeech))
		return
	}

	pcm := audio.Normalize(rec.pcm, rec.capture.Format(), audio.SpeechFormat)
	clip := audio.NewClip(pcm, audio.SpeechFormat)
	log.Debug("chat: transcribing recording", "duration", clip.Duration, "elapsed", time.Since(rec.started))

	tctx, stop := c.bind(ctx)
	defer stop()
	start := time.Now()
	t, err := c.transcriber.Transcribe(tctx, stt.Request{Clip: clip, Language: c.language})
	c.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())

	switch {
	case err != nil && tctx.Err() != nil:
		c.metrics.RecordCaptureSession(ctx, "cancelled")
		if c.lifetime.Err() == nil {
			c.appendIfCurrent(rec.epoch, c.newTurn(SpeakerAssistant, TurnNotice, msgCancelled))
		}
	case err != nil:
		log.Warn("chat: transcription failed", "err", err)
		c.metrics.RecordCaptureSession(ctx, "stt_error")
		c.appendIfCurrent(rec.epoch, c.newTurn(SpeakerAssistant, TurnError, msgSTTFailed))
	case strings.TrimSpace(t.Text) == "":
		c.metrics.RecordCaptureSession(ctx, "no_speech")
		c.appendIfCurrent(rec.epoch, c.newTurn(SpeakerAssistant, TurnError, msgNoSpeech))
	default:
		c.metrics.RecordCaptureSession(ctx, "ok")
		c.mu.Lock()
		c.draft = strings.TrimSpace(t.Text)
		c.mu.Unlock()
	}
}

// release closes the capture exactly once.
func (c *Controller) release(rec *recording) {
	rec.once.Do(func() {
		if err := rec.capture.Close(); err != nil {
			observe.Logger(c.lifetime).Warn("chat: failed to release microphone", "err", err)
		}
		c.metrics.ActiveCaptures.Add(context.Background(), -1)
	})
}
