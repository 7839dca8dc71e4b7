package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrWong99/tutor/internal/account"
	"github.com/MrWong99/tutor/internal/config"
	"github.com/MrWong99/tutor/internal/observe"
	"github.com/MrWong99/tutor/internal/resilience"
	"github.com/MrWong99/tutor/pkg/audio"
	"github.com/MrWong99/tutor/pkg/audio/recorder"
	"github.com/MrWong99/tutor/pkg/audio/wsmic"
	"github.com/MrWong99/tutor/pkg/portal"
	"github.com/MrWong99/tutor/pkg/provider/stt"
	oaistt "github.com/MrWong99/tutor/pkg/provider/stt/openai"
	"github.com/MrWong99/tutor/pkg/provider/stt/portalstt"
	"github.com/MrWong99/tutor/pkg/provider/stt/whisper"
)

// ── Portal ────────────────────────────────────────────────────────────────────

// session bundles the portal client with the cookie file backing it.
type session struct {
	client *portal.Client
	file   *account.SessionFile
}

// openPortal builds the portal client around the stored session.
func (c *cli) openPortal() (*session, error) {
	pc := c.cfg.Portal
	file, err := account.OpenSession(pc.SessionFile, pc.BaseURL)
	if err != nil {
		return nil, err
	}
	opts := []portal.Option{
		portal.WithTransport(observe.Transport(c.metrics, nil)),
		portal.WithJar(file.Jar()),
		portal.WithQuizURL(c.cfg.Quiz.BaseURL),
	}
	if p := c.cfg.Chat.Endpoint; p != "" {
		opts = append(opts, portal.WithChatPath(p))
	}
	if p := c.cfg.Chat.HistoryEndpoint; p != "" {
		opts = append(opts, portal.WithHistoryPath(p))
	}
	if p := c.cfg.Transcription.Endpoint; p != "" {
		opts = append(opts, portal.WithTranscribePath(p))
	}
	client, err := portal.New(pc.BaseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &session{client: client, file: file}, nil
}

// requestContext bounds one non-chat portal call.
func (c *cli) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.Portal.Timeout)
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the built-in transcription providers and
// audio devices into reg. The portal transcriber talks to client.
func registerBuiltinProviders(reg *config.Registry, client *portal.Client) {
	reg.RegisterSTT("portal", func(config.ProviderEntry) (stt.Provider, error) {
		return portalstt.New(client), nil
	})

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []oaistt.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaistt.WithBaseURL(entry.BaseURL))
		}
		if n := entry.Int("max_retries"); n > 0 {
			opts = append(opts, oaistt.WithMaxRetries(n))
		}
		return oaistt.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := entry.String("language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterAudio("recorder", func(entry config.ProviderEntry) (audio.Device, error) {
		opts := []recorder.Option{recorder.WithFormat(deviceFormat(entry))}
		if cmd := entry.Strings("command"); len(cmd) > 0 {
			opts = append(opts, recorder.WithCommand(cmd[0], cmd[1:]...))
		}
		return recorder.New(opts...), nil
	})

	reg.RegisterAudio("wsmic", func(entry config.ProviderEntry) (audio.Device, error) {
		opts := []wsmic.Option{wsmic.WithFormat(deviceFormat(entry))}
		if entry.APIKey != "" {
			opts = append(opts, wsmic.WithToken(entry.APIKey))
		}
		return wsmic.New(entry.BaseURL, opts...), nil
	})

	reg.RegisterAudio("none", func(config.ProviderEntry) (audio.Device, error) {
		return nil, nil
	})

	for _, kind := range []string{config.KindSTT, config.KindAudio} {
		for _, name := range reg.Names(kind) {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// deviceFormat reads sample_rate and channels from the device options.
func deviceFormat(entry config.ProviderEntry) audio.Format {
	f := audio.SpeechFormat
	if r := entry.Int("sample_rate"); r > 0 {
		f.SampleRate = r
	}
	if ch := entry.Int("channels"); ch > 0 {
		f.Channels = ch
	}
	return f
}

// voice holds the voice-input components; both are nil when voice input is
// disabled.
type voice struct {
	transcriber stt.Provider
	device      audio.Device
}

// buildVoice instantiates the capture device and the transcription chain
// named in cfg. Providers that fail to build are skipped with a warning so a
// missing API key for a fallback does not disable voice input.
func buildVoice(cfg *config.Config, reg *config.Registry, m *observe.Metrics) (voice, error) {
	dev, err := reg.CreateAudio(cfg.Audio)
	if err != nil {
		return voice{}, fmt.Errorf("create audio device %q: %w", cfg.Audio.Name, err)
	}
	if dev == nil {
		slog.Info("voice input disabled", "audio", cfg.Audio.Name)
		return voice{}, nil
	}

	var chain *resilience.STTFallback
	for _, entry := range cfg.Transcription.Providers {
		p, err := reg.CreateSTT(entry)
		switch {
		case errors.Is(err, config.ErrProviderNotRegistered):
			slog.Warn("unknown transcription provider, skipping", "name", entry.Name)
			continue
		case err != nil:
			slog.Warn("transcription provider unavailable, skipping", "name", entry.Name, "err", err)
			continue
		}
		if chain == nil {
			chain = resilience.NewSTTFallback(p, entry.Name, resilience.FallbackConfig{}).WithMetrics(m)
		} else {
			chain.AddFallback(entry.Name, p)
		}
		slog.Debug("provider created", "kind", "stt", "name", entry.Name)
	}
	if chain == nil {
		return voice{}, errors.New("no usable transcription provider configured")
	}
	return voice{
		transcriber: withTimeout(chain, cfg.Transcription.Timeout),
		device:      dev,
	}, nil
}

// withTimeout bounds every transcription by d.
func withTimeout(p stt.Provider, d time.Duration) stt.Provider {
	if d <= 0 {
		return p
	}
	return stt.Func(func(ctx context.Context, req stt.Request) (stt.Transcript, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return p.Transcribe(ctx, req)
	})
}
