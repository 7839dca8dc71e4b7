// Package chat implements the conversation with the tutor for one selected
// chapter: the transcript, message dispatch with bounded retries and error
// classification, and toggle-style voice input that fills the draft with a
// transcription.
//
// A [Controller] is owned by one screen. It is created with [New] and must be
// released with [Controller.Close], which cancels in-flight requests, releases
// the audio device and waits for every goroutine the controller started.
//
// All methods are safe for concurrent use.
package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/tutor/internal/observe"
	"github.com/MrWong99/tutor/internal/resilience"
	"github.com/MrWong99/tutor/pkg/audio"
	"github.com/MrWong99/tutor/pkg/portal"
	"github.com/MrWong99/tutor/pkg/provider/stt"
)

const (
	// DefaultTimeout bounds a single chat attempt.
	DefaultTimeout = 90 * time.Second

	// DefaultMaxRetries is the number of retries after a network failure.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the pause before each retry.
	DefaultRetryDelay = 2 * time.Second
)

// Service is the backend the controller talks to. [*portal.Client] satisfies it.
type Service interface {
	SendChat(ctx context.Context, req portal.ChatRequest) (string, error)
	History(ctx context.Context, subjectID, chapterID int64) ([]portal.HistoryEntry, error)
}

// Option configures a [Controller].
type Option func(*Controller)

// WithTimeout sets the per-attempt deadline. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetryPolicy sets how network failures are retried.
func WithRetryPolicy(p resilience.RetryPolicy) Option {
	return func(c *Controller) { c.retry = p }
}

// WithTranscriber enables voice input together with [WithDevice].
func WithTranscriber(p stt.Provider) Option {
	return func(c *Controller) { c.transcriber = p }
}

// WithDevice sets the microphone used for voice input.
func WithDevice(d audio.Device) Option {
	return func(c *Controller) { c.device = d }
}

// WithLanguage sets the language hint passed to the transcriber.
func WithLanguage(lang string) Option {
	return func(c *Controller) { c.language = lang }
}

// WithObserver registers fn to be called after every state change. fn is
// called without internal locks held and may call [Controller.Snapshot].
func WithObserver(fn func()) Option {
	return func(c *Controller) { c.observer = fn }
}

// WithMetrics overrides the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller holds the conversation state for the selected chapter.
type Controller struct {
	svc         Service
	transcriber stt.Provider
	device      audio.Device
	language    string
	timeout     time.Duration
	retry       resilience.RetryPolicy
	observer    func()
	metrics     *observe.Metrics
	now         func() time.Time

	lifetime context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	transcript []Turn
	scope      Scope
	epoch      uint64
	sending    bool
	abortSend  context.CancelFunc
	capture    CaptureState
	acquiring  bool
	rec        *recording
	draft      string
}

// New returns a Controller talking to svc. Voice input stays disabled unless
// both [WithDevice] and [WithTranscriber] are given.
func New(svc Service, opts ...Option) *Controller {
	c := &Controller{
		svc:     svc,
		timeout: DefaultTimeout,
		retry:   resilience.RetryPolicy{MaxRetries: DefaultMaxRetries, Delay: DefaultRetryDelay},
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	c.lifetime, c.cancel = context.WithCancel(context.Background())
	return c
}

// VoiceEnabled reports whether a microphone and a transcriber are configured.
func (c *Controller) VoiceEnabled() bool {
	return c.device != nil && c.transcriber != nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	turns := make([]Turn, len(c.transcript))
	copy(turns, c.transcript)
	return Snapshot{
		Turns:   turns,
		Sending: c.sending,
		Busy:    c.sending || c.capture == CaptureTranscribing,
		Capture: c.capture,
		Draft:   c.draft,
		Scope:   c.scope,
	}
}

// TakeDraft returns the pending transcription and clears it.
func (c *Controller) TakeDraft() string {
	c.mu.Lock()
	d := c.draft
	c.draft = ""
	c.mu.Unlock()
	if d != "" {
		c.notify()
	}
	return d
}

// Close cancels in-flight work, releases an open capture and waits for all
// controller goroutines to exit. It is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	rec := c.rec
	c.mu.Unlock()

	c.cancel()
	if rec != nil {
		rec.capture.Stop()
	}
	c.wg.Wait()
	if rec != nil {
		c.release(rec)
	}
	slog.Debug("chat: controller closed")
	return nil
}

// ---- helpers ----

// bind derives a context that is also cancelled when the controller closes.
func (c *Controller) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) notify() {
	if c.observer != nil {
		c.observer()
	}
}

func (c *Controller) newTurn(sp Speaker, kind TurnKind, text string) Turn {
	return Turn{ID: uuid.New(), Speaker: sp, Kind: kind, Text: text, At: c.now()}
}

// appendIfCurrent appends t unless the chapter changed since epoch. It
// reports whether t was appended and notifies observers if so.
func (c *Controller) appendIfCurrent(epoch uint64, t Turn) bool {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return false
	}
	c.transcript = append(c.transcript, t)
	c.mu.Unlock()
	c.notify()
	return true
}

// removeLocked drops the turn with the given ID. c.mu must be held.
func (c *Controller) removeLocked(id uuid.UUID) {
	for i := len(c.transcript) - 1; i >= 0; i-- {
		if c.transcript[i].ID == id {
			c.transcript = append(c.transcript[:i], c.transcript[i+1:]...)
			return
		}
	}
}
