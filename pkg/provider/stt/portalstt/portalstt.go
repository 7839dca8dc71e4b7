// Package portalstt adapts the portal's transcription endpoint to
// [stt.Provider].
package portalstt

import (
	"context"
	"strings"

	"github.com/MrWong99/tutor/pkg/provider/stt"
)

// Transcriber is the subset of the portal client used here.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, language string) (string, error)
}

// Provider sends recordings to the portal.
type Provider struct {
	client Transcriber
}

var _ stt.Provider = (*Provider)(nil)

// New returns a Provider backed by client.
func New(client Transcriber) *Provider {
	return &Provider{client: client}
}

// Transcribe implements [stt.Provider].
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (stt.Transcript, error) {
	if len(req.Clip.Data) == 0 {
		return stt.Transcript{}, stt.ErrEmptyClip
	}
	text, err := p.client.Transcribe(ctx, req.Clip.Data, req.Language)
	if err != nil {
		return stt.Transcript{}, err
	}
	return stt.Transcript{
		Text:     strings.TrimSpace(text),
		Language: req.Language,
		Duration: req.Clip.Duration,
		Provider: "portal",
	}, nil
}
