package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/MrWong99/tutor/internal/observe"
	"github.com/MrWong99/tutor/pkg/provider/stt"
)

// STTFallback implements [stt.Provider] with automatic failover across multiple
// transcription backends. Each backend has its own circuit breaker.
type STTFallback struct {
	group   *FallbackGroup[stt.Provider]
	metrics *observe.Metrics
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred
// backend. An empty clip is never retried against a fallback.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	if cfg.Permanent == nil {
		cfg.Permanent = func(err error) bool { return errors.Is(err, stt.ErrEmptyClip) }
	}
	return &STTFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// WithMetrics records per-provider request counts and latency to m.
func (f *STTFallback) WithMetrics(m *observe.Metrics) *STTFallback {
	f.metrics = m
	return f
}

// AddFallback registers an additional STT provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// States reports the breaker state of every registered provider.
func (f *STTFallback) States() []EntryState { return f.group.States() }

// Transcribe sends req to the first healthy provider, failing over to the
// next one on error.
func (f *STTFallback) Transcribe(ctx context.Context, req stt.Request) (stt.Transcript, error) {
	t, name, err := ExecuteWithResult(ctx, f.group, func(ctx context.Context, p stt.Provider) (stt.Transcript, error) {
		start := time.Now()
		t, err := p.Transcribe(ctx, req)
		if f.metrics != nil {
			f.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
		}
		return t, err
	})
	if f.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		f.metrics.RecordProviderRequest(ctx, name, status)
	}
	if err != nil {
		return stt.Transcript{}, err
	}
	if t.Provider == "" {
		t.Provider = name
	}
	return t, nil
}
