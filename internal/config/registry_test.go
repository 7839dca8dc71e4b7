package config_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/tutor/internal/config"
	"github.com/MrWong99/tutor/pkg/audio"
	audiomock "github.com/MrWong99/tutor/pkg/audio/mock"
	"github.com/MrWong99/tutor/pkg/provider/stt"
)

func TestRegistry(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()

	var gotEntry config.ProviderEntry
	reg.RegisterSTT("fake", func(e config.ProviderEntry) (stt.Provider, error) {
		gotEntry = e
		return stt.Func(func(context.Context, stt.Request) (stt.Transcript, error) {
			return stt.Transcript{Text: "ok"}, nil
		}), nil
	})
	reg.RegisterAudio("mock", func(config.ProviderEntry) (audio.Device, error) {
		return &audiomock.Device{}, nil
	})

	p, err := reg.CreateSTT(config.ProviderEntry{Name: "fake", Model: "m"})
	if err != nil {
		t.Fatalf("CreateSTT: %v", err)
	}
	if gotEntry.Model != "m" {
		t.Errorf("factory got entry %+v", gotEntry)
	}
	if tr, _ := p.Transcribe(context.Background(), stt.Request{}); tr.Text != "ok" {
		t.Errorf("provider returned %q", tr.Text)
	}
	if _, err := reg.CreateAudio(config.ProviderEntry{Name: "mock"}); err != nil {
		t.Fatalf("CreateAudio: %v", err)
	}

	if _, err := reg.CreateSTT(config.ProviderEntry{Name: "nope"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
	_, err = reg.CreateAudio(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
	if err != nil && !strings.Contains(err.Error(), "(have mock)") {
		t.Errorf("err = %q, want the registered names listed", err)
	}
	if diff := cmp.Diff([]string{"fake"}, reg.Names(config.KindSTT)); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if got := reg.Names("tts"); got != nil {
		t.Errorf("Names(unknown kind) = %v, want nil", got)
	}
}

func TestProviderEntry_Options(t *testing.T) {
	t.Parallel()
	e := config.ProviderEntry{Options: map[string]any{
		"command":     []any{"arecord", "-q"},
		"token":       "abc",
		"sample_rate": 44100,
		"channels":    float64(2),
	}}
	if diff := cmp.Diff([]string{"arecord", "-q"}, e.Strings("command")); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}
	if e.String("token") != "abc" || e.String("missing") != "" {
		t.Error("String option mismatch")
	}
	if e.Int("sample_rate") != 44100 || e.Int("channels") != 2 || e.Int("token") != 0 {
		t.Error("Int option mismatch")
	}
}
