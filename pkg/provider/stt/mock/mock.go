// Package mock provides a test double for the [stt.Provider] interface.
//
// Example:
//
//	p := &mock.Provider{Result: stt.Transcript{Text: "what is photosynthesis"}}
//	got, _ := p.Transcribe(ctx, stt.Request{Clip: clip})
//	// p.Calls()[0].Req.Clip == clip
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/tutor/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// Req is the request passed to Transcribe.
	Req stt.Request
}

// Provider is a mock implementation of [stt.Provider].
type Provider struct {
	mu sync.Mutex

	// Result is returned by Transcribe when Err is nil.
	Result stt.Transcript

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Hook, if set, runs before Transcribe returns. Tests use it to block the
	// call and observe intermediate controller state.
	Hook func(ctx context.Context)

	calls []TranscribeCall
}

// Transcribe records the call and returns Result, Err.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (stt.Transcript, error) {
	p.mu.Lock()
	p.calls = append(p.calls, TranscribeCall{Req: req})
	hook, result, err := p.Hook, p.Result, p.Err
	p.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return stt.Transcript{}, err
	}
	return result, nil
}

// Calls returns a copy of all recorded Transcribe calls.
func (p *Provider) Calls() []TranscribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TranscribeCall, len(p.calls))
	copy(out, p.calls)
	return out
}

var _ stt.Provider = (*Provider)(nil)
