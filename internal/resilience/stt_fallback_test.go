package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/tutor/pkg/audio"
	"github.com/MrWong99/tutor/pkg/provider/stt"
	sttmock "github.com/MrWong99/tutor/pkg/provider/stt/mock"
)

func testRequest() stt.Request {
	return stt.Request{Clip: audio.NewClip(make([]byte, 320), audio.SpeechFormat)}
}

func TestSTTFallback_Transcribe_PrimarySuccess(t *testing.T) {
	primary := &sttmock.Provider{Result: stt.Transcript{Text: "hello"}}
	secondary := &sttmock.Provider{}

	fb := NewSTTFallback(primary, "portal", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("openai", secondary)

	got, err := fb.Transcribe(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "hello" || got.Provider != "portal" {
		t.Fatalf("got %+v", got)
	}
	if len(primary.Calls()) != 1 {
		t.Fatalf("primary called %d times, want 1", len(primary.Calls()))
	}
	if len(secondary.Calls()) != 0 {
		t.Fatalf("secondary called %d times, want 0", len(secondary.Calls()))
	}
}

func TestSTTFallback_Transcribe_Failover(t *testing.T) {
	primary := &sttmock.Provider{Err: errors.New("portal down")}
	secondary := &sttmock.Provider{Result: stt.Transcript{Text: "from openai", Provider: "openai"}}

	fb := NewSTTFallback(primary, "portal", FallbackConfig{})
	fb.AddFallback("openai", secondary)

	got, err := fb.Transcribe(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "from openai" {
		t.Fatalf("Text = %q", got.Text)
	}
	if len(secondary.Calls()) != 1 {
		t.Fatalf("secondary called %d times, want 1", len(secondary.Calls()))
	}
}

func TestSTTFallback_Transcribe_AllFail(t *testing.T) {
	primary := &sttmock.Provider{Err: errors.New("primary down")}
	secondary := &sttmock.Provider{Err: errors.New("secondary down")}

	fb := NewSTTFallback(primary, "portal", FallbackConfig{})
	fb.AddFallback("openai", secondary)

	_, err := fb.Transcribe(context.Background(), testRequest())
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestSTTFallback_EmptyClipIsNotFailedOver(t *testing.T) {
	primary := &sttmock.Provider{Err: stt.ErrEmptyClip}
	secondary := &sttmock.Provider{}

	fb := NewSTTFallback(primary, "portal", FallbackConfig{})
	fb.AddFallback("openai", secondary)

	_, err := fb.Transcribe(context.Background(), stt.Request{})
	if !errors.Is(err, stt.ErrEmptyClip) {
		t.Fatalf("err = %v, want ErrEmptyClip", err)
	}
	if len(secondary.Calls()) != 0 {
		t.Fatal("secondary should not be tried for an empty clip")
	}
}
