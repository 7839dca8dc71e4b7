package recorder_test

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/MrWong99/tutor/pkg/audio"
	"github.com/MrWong99/tutor/pkg/audio/recorder"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func drain(t *testing.T, c audio.Capture) int {
	t.Helper()
	total := 0
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-c.Chunks():
			if !ok {
				return total
			}
			total += len(chunk)
		case <-timeout:
			t.Fatal("capture did not end")
		}
	}
}

func TestOpen_DeliversAllAudio(t *testing.T) {
	requireShell(t)
	// 0.25s of 16kHz mono silence.
	dev := recorder.New(recorder.WithCommand("sh", "-c", "head -c 8000 /dev/zero"))

	c, err := dev.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if got := drain(t, c); got != 8000 {
		t.Errorf("received %d bytes, want 8000", got)
	}
	if err := c.Err(); err != nil {
		t.Errorf("Err = %v, want nil", err)
	}
	if c.Format() != audio.SpeechFormat {
		t.Errorf("Format = %v", c.Format())
	}
}

func TestOpen_PermissionDenied(t *testing.T) {
	requireShell(t)
	dev := recorder.New(recorder.WithCommand("sh", "-c",
		"echo 'arecord: main:831: audio open error: Permission denied' >&2; exit 1"))

	_, err := dev.Open(context.Background())
	if !errors.Is(err, audio.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestOpen_MissingBinary(t *testing.T) {
	dev := recorder.New(recorder.WithCommand("tutor-no-such-recorder-binary"))

	_, err := dev.Open(context.Background())
	if !errors.Is(err, audio.ErrNoDevice) {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
}

func TestStop_EndsCaptureCleanly(t *testing.T) {
	requireShell(t)
	dev := recorder.New(
		recorder.WithCommand("sh", "-c", "exec cat /dev/zero"),
		recorder.WithGracePeriod(500*time.Millisecond),
	)

	c, err := dev.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.Stop()
	c.Stop() // idempotent

	if got := drain(t, c); got == 0 {
		t.Error("expected some audio before stop")
	}
	if err := c.Err(); err != nil {
		t.Errorf("Err after Stop = %v, want nil", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}
