package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_Attempts(t *testing.T) {
	tests := []struct {
		name   string
		policy RetryPolicy
		want   int
	}{
		{name: "zero value", policy: RetryPolicy{}, want: 1},
		{name: "two retries", policy: RetryPolicy{MaxRetries: 2}, want: 3},
		{name: "negative clamps", policy: RetryPolicy{MaxRetries: -4}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Attempts(); got != tt.want {
				t.Errorf("Attempts() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2}
	for attempt, want := range map[int]bool{1: true, 2: true, 3: false, 4: false} {
		if got := p.ShouldRetry(attempt); got != want {
			t.Errorf("ShouldRetry(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestRetryPolicy_WaitElapses(t *testing.T) {
	p := RetryPolicy{Delay: 10 * time.Millisecond}
	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Wait returned before the delay")
	}
}

func TestRetryPolicy_WaitCancelled(t *testing.T) {
	p := RetryPolicy{Delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	go cancel()

	if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait = %v, want context.Canceled", err)
	}
}
