// Package recorder implements [audio.Device] on top of an external recorder
// process that writes raw PCM to stdout, such as ALSA's arecord or sox's rec.
//
// The default command is:
//
//	arecord -q -t raw -f S16_LE -r 16000 -c 1
//
// The process is interrupted on [audio.Capture.Stop] so that it can flush its
// buffers; if it has not exited after the grace period it is killed.
package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrWong99/tutor/pkg/audio"
)

const (
	defaultChunk = 100 * time.Millisecond
	defaultGrace = 2 * time.Second
)

// Device launches a recorder process for every [Device.Open].
type Device struct {
	name   string
	args   []string
	format audio.Format
	chunk  time.Duration
	grace  time.Duration
}

// Option is a functional option for [New].
type Option func(*Device)

// WithCommand overrides the recorder executable and its arguments. The
// command must write 16-bit signed little-endian PCM in the configured format
// to stdout.
func WithCommand(name string, args ...string) Option {
	return func(d *Device) {
		d.name = name
		d.args = args
	}
}

// WithFormat sets the PCM format the recorder is asked to produce. When the
// default command is used its -r and -c flags follow this format.
func WithFormat(f audio.Format) Option {
	return func(d *Device) { d.format = f }
}

// WithChunkDuration sets how much audio is delivered per chunk.
func WithChunkDuration(dur time.Duration) Option {
	return func(d *Device) { d.chunk = dur }
}

// WithGracePeriod sets how long a stopped recorder may take to exit before
// it is killed.
func WithGracePeriod(dur time.Duration) Option {
	return func(d *Device) { d.grace = dur }
}

// New returns a Device with the given options applied.
func New(opts ...Option) *Device {
	d := &Device{
		format: audio.SpeechFormat,
		chunk:  defaultChunk,
		grace:  defaultGrace,
	}
	for _, o := range opts {
		o(d)
	}
	if d.name == "" {
		d.name = "arecord"
		d.args = []string{
			"-q", "-t", "raw", "-f", "S16_LE",
			"-r", strconv.Itoa(d.format.SampleRate),
			"-c", strconv.Itoa(d.format.Channels),
		}
	}
	return d
}

// Open implements [audio.Device]. It starts the recorder and returns once the
// first chunk of audio has been read, so that access errors surface here
// rather than mid-recording.
func (d *Device) Open(ctx context.Context) (audio.Capture, error) {
	if !d.format.Valid() {
		return nil, fmt.Errorf("recorder: invalid format %s", d.format)
	}

	// The capture outlives the Open call; it ends on Stop or Close.
	procCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	cmd := exec.CommandContext(procCtx, d.name, d.args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = d.grace

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("recorder: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("recorder: %s: %w", d.name, audio.ErrNoDevice)
		}
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("recorder: %s: %w", d.name, audio.ErrPermissionDenied)
		}
		return nil, fmt.Errorf("recorder: start %s: %w", d.name, err)
	}

	chunkBytes := d.format.BytesPerSecond() * int(d.chunk/time.Millisecond) / 1000
	chunkBytes -= chunkBytes % (2 * d.format.Channels)
	if chunkBytes <= 0 {
		chunkBytes = 2 * d.format.Channels
	}

	c := &capture{
		format:  d.format,
		cancel:  cancel,
		chunks:  make(chan []byte, 16),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		release: make(chan struct{}),
	}
	go c.read(cmd, stdout, &stderr, chunkBytes)

	select {
	case <-c.ready:
		slog.Debug("recorder: capture started", "command", d.name, "format", d.format.String())
		return c, nil
	case <-c.done:
		cancel()
		if c.err != nil {
			return nil, c.err
		}
		return nil, fmt.Errorf("recorder: %s exited before producing audio: %w", d.name, audio.ErrNoDevice)
	case <-ctx.Done():
		_ = c.Close()
		return nil, ctx.Err()
	}
}

var _ audio.Device = (*Device)(nil)

// capture is the [audio.Capture] for one recorder process.
type capture struct {
	format  audio.Format
	cancel  context.CancelFunc
	chunks  chan []byte
	ready   chan struct{}
	done    chan struct{}
	release chan struct{}
	stopped atomic.Bool

	readyOnce   sync.Once
	releaseOnce sync.Once
	err         error // written before done is closed
}

func (c *capture) read(cmd *exec.Cmd, stdout io.Reader, stderr *bytes.Buffer, size int) {
	defer close(c.done)
	defer close(c.chunks)

	for {
		buf := make([]byte, size)
		n, err := io.ReadFull(stdout, buf)
		if n > 0 {
			select {
			case c.chunks <- buf[:n]:
			case <-c.release:
			}
			c.readyOnce.Do(func() { close(c.ready) })
		}
		if err != nil {
			break
		}
	}

	waitErr := cmd.Wait()
	if c.stopped.Load() {
		return
	}
	c.err = classify(waitErr, stderr.String())
}

// classify maps a recorder exit to an audio error using the process stderr.
func classify(waitErr error, stderr string) error {
	if waitErr == nil {
		return nil
	}
	msg := strings.TrimSpace(stderr)
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "operation not permitted"),
		strings.Contains(lower, "audio open error"):
		return fmt.Errorf("recorder: %s: %w", msg, audio.ErrPermissionDenied)
	case strings.Contains(lower, "no such device"),
		strings.Contains(lower, "no such file or directory"):
		return fmt.Errorf("recorder: %s: %w", msg, audio.ErrNoDevice)
	case msg != "":
		return fmt.Errorf("recorder: %s: %w", msg, waitErr)
	default:
		return fmt.Errorf("recorder: %w", waitErr)
	}
}

func (c *capture) Chunks() <-chan []byte { return c.chunks }

func (c *capture) Format() audio.Format { return c.format }

func (c *capture) Stop() {
	c.stopped.Store(true)
	c.cancel()
}

func (c *capture) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *capture) Close() error {
	c.Stop()
	c.releaseOnce.Do(func() { close(c.release) })
	<-c.done
	return nil
}
