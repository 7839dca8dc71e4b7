package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newStringGroup(maxFailures int) *FallbackGroup[string] {
	fg := NewFallbackGroup("primary", "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: maxFailures, Cooldown: time.Hour},
	})
	fg.AddFallback("secondary", "secondary")
	return fg
}

func TestExecuteWithResult_PrimarySuccess(t *testing.T) {
	fg := newStringGroup(3)

	got, name, err := ExecuteWithResult(context.Background(), fg, func(_ context.Context, v string) (string, error) {
		return v + "-result", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "primary-result" || name != "primary" {
		t.Fatalf("got %q from %q", got, name)
	}
}

func TestExecuteWithResult_Failover(t *testing.T) {
	fg := newStringGroup(3)

	got, name, err := ExecuteWithResult(context.Background(), fg, func(_ context.Context, v string) (int, error) {
		if v == "primary" {
			return 0, errTest
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || name != "secondary" {
		t.Fatalf("got %d from %q, want 42 from secondary", got, name)
	}
}

func TestExecuteWithResult_AllFail(t *testing.T) {
	fg := newStringGroup(3)

	_, _, err := ExecuteWithResult(context.Background(), fg, func(_ context.Context, v string) (int, error) {
		return 0, errTest
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
	if !errors.Is(err, errTest) {
		t.Fatalf("err = %v, want wrapped errTest", err)
	}
}

func TestExecuteWithResult_SkipsOpenProvider(t *testing.T) {
	fg := newStringGroup(2)
	fail := func(_ context.Context, v string) (string, error) {
		if v == "primary" {
			return "", errTest
		}
		return v, nil
	}
	for range 2 {
		_, _, _ = ExecuteWithResult(context.Background(), fg, fail)
	}

	var calledPrimary bool
	_, name, err := ExecuteWithResult(context.Background(), fg, func(_ context.Context, v string) (string, error) {
		if v == "primary" {
			calledPrimary = true
		}
		return v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calledPrimary || name != "secondary" {
		t.Fatalf("primary called = %v, name = %q; primary circuit should be open", calledPrimary, name)
	}

	states := fg.States()
	if len(states) != 2 || states[0].State != StateOpen || states[1].State != StateClosed {
		t.Fatalf("States = %+v", states)
	}
}

func TestExecuteWithResult_PermanentErrorStops(t *testing.T) {
	permanent := errors.New("malformed")
	fg := NewFallbackGroup("primary", "primary", FallbackConfig{
		Permanent: func(err error) bool { return errors.Is(err, permanent) },
	})
	fg.AddFallback("secondary", "secondary")

	var calls int
	_, _, err := ExecuteWithResult(context.Background(), fg, func(_ context.Context, v string) (string, error) {
		calls++
		return "", permanent
	})
	if !errors.Is(err, permanent) || errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want the permanent error unwrapped", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestExecuteWithResult_CancelledContextStops(t *testing.T) {
	fg := newStringGroup(3)
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	_, _, err := ExecuteWithResult(ctx, fg, func(ctx context.Context, v string) (string, error) {
		calls++
		cancel()
		return "", ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
